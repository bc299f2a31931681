// Package config defines the format-agnostic model of the equation registry
// source, along with the Loader interface implemented by each source format.
//
// The `config.Model` is the single input of `registry.Build`. Concrete
// loaders for HCL and YAML live in separate packages.
package config
