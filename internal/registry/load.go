package registry

import (
	"context"
	"fmt"

	"github.com/shuvo-dotcom/nfgcalc/internal/config"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/formula"
)

// Source produces a fully validated snapshot. Holders call it on reload.
type Source func(ctx context.Context) (*Snapshot, error)

// Load runs every loader over paths, merges their models in loader order,
// then builds and validates the snapshot.
func Load(ctx context.Context, fns *formula.Functions, loaders []config.Loader, paths ...string) (*Snapshot, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading definitions...", "paths", paths)

	models := make([]*config.Model, 0, len(loaders))
	for _, l := range loaders {
		m, err := l.Load(ctx, paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load registry: %w", err)
		}
		models = append(models, m)
	}
	model := config.Merge(models...)

	if len(model.Variables) == 0 && len(model.Equations) == 0 {
		logger.Warn("No registry definitions found.", "paths", paths)
	}

	snap, err := Build(model, fns)
	if err != nil {
		return nil, err
	}
	if err := Validate(ctx, snap); err != nil {
		return nil, err
	}

	logger.Info("Registry loaded successfully.", "variables", len(snap.varOrder), "equations", len(snap.eqOrder))
	return snap, nil
}

// FileSource returns a Source that reloads from the same loaders and paths.
func FileSource(fns *formula.Functions, loaders []config.Loader, paths ...string) Source {
	return func(ctx context.Context) (*Snapshot, error) {
		return Load(ctx, fns, loaders, paths...)
	}
}
