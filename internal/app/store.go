package app

import (
	"context"
	"fmt"

	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/inmemorystore"
	"github.com/shuvo-dotcom/nfgcalc/internal/remotestore"
	"github.com/shuvo-dotcom/nfgcalc/internal/sqlitestore"
)

// openStore connects the configured data store. The returned close
// function is never nil.
func openStore(ctx context.Context, cfg DataConfig) (datastore.Store, func() error, error) {
	logger := ctxlog.FromContext(ctx)
	noop := func() error { return nil }

	switch cfg.Kind {
	case "memory", "":
		if cfg.Path == "" {
			logger.Warn("In-memory data store has no fixture file; every leaf will need a default.")
			return inmemorystore.New(), noop, nil
		}
		s, err := inmemorystore.LoadFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Data store loaded.", "kind", "memory", "path", cfg.Path, "records", s.Len())
		return s, noop, nil

	case "sqlite":
		s, err := sqlitestore.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Data store opened.", "kind", "sqlite", "dsn", cfg.Path)
		return s, s.Close, nil

	case "remote":
		s, err := remotestore.Dial(ctx, remotestore.Options{
			URL:       cfg.URL,
			Namespace: cfg.Namespace,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Data store connected.", "kind", "remote", "url", cfg.URL)
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown data store kind %q", cfg.Kind)
}
