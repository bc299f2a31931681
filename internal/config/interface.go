package config

import (
	"context"
)

// Loader is the interface for a format-specific registry loader.
type Loader interface {
	// Load reads every file of the loader's format found under the given
	// paths and translates them into the format-agnostic model. Paths with
	// no matching files yield an empty model, not an error.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
