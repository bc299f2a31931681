// Package formula parses equation text into a small expression tree and
// evaluates it over unit-carrying quantities.
//
// Formulas use HCL native expression syntax restricted to numbers, bare
// variable names, the four arithmetic operators, unary minus, parentheses
// and calls to functions registered in a Functions table. Identifiers may
// contain dashes in HCL, so subtraction needs surrounding spaces.
package formula
