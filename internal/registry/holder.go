package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
)

// Holder publishes the current Snapshot. Readers never block; a reload
// replaces the whole snapshot at once.
type Holder struct {
	current atomic.Pointer[Snapshot]
	source  Source
	// reloadMu serializes reloads so two rebuilds never race to publish.
	reloadMu sync.Mutex
}

// NewHolder publishes initial and remembers source for Reload. source may be
// nil when reloading is not needed.
func NewHolder(initial *Snapshot, source Source) *Holder {
	h := &Holder{source: source}
	h.current.Store(initial)
	return h
}

// Current returns the snapshot to use for one query.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Swap publishes next and returns the previous snapshot.
func (h *Holder) Swap(next *Snapshot) *Snapshot {
	return h.current.Swap(next)
}

// Reload rebuilds from the source and publishes the result. On failure the
// current snapshot stays in place.
func (h *Holder) Reload(ctx context.Context) error {
	if h.source == nil {
		return nil
	}
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	logger := ctxlog.FromContext(ctx)
	next, err := h.source(ctx)
	if err != nil {
		logger.Error("Registry reload failed; keeping the current registry.", "error", err)
		return err
	}
	h.Swap(next)
	logger.Info("Registry reloaded.", "variables", len(next.varOrder), "equations", len(next.eqOrder))
	return nil
}
