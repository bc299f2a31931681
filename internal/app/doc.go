// Package app hosts the engine: it assembles configuration, logging, the
// registry, the data store and the optional health check and registry
// watcher, independent of the CLI that drives it.
package app
