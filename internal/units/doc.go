// Package units implements the dimensional algebra used by formula
// evaluation: unit parsing, conversion factors and quantity arithmetic.
//
// A Unit is a scale factor relative to the base unit of each dimension plus
// a vector of dimension exponents. Two units are compatible when their
// dimension vectors are equal; conversion between them is a ratio of scales.
package units
