package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shuvo-dotcom/nfgcalc/internal/config"
	"github.com/shuvo-dotcom/nfgcalc/internal/hcl_adapter"
	"github.com/shuvo-dotcom/nfgcalc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_Reload(t *testing.T) {
	first := loadFixture(t)
	second := loadFixture(t)

	calls := 0
	source := func(ctx context.Context) (*Snapshot, error) {
		calls++
		if calls == 1 {
			return second, nil
		}
		return nil, errors.New("broken file")
	}

	h := NewHolder(first, source)
	assert.Same(t, first, h.Current())

	require.NoError(t, h.Reload(testutil.Context(t)))
	assert.Same(t, second, h.Current())

	assert.Error(t, h.Reload(testutil.Context(t)))
	assert.Same(t, second, h.Current(), "failed reload keeps the live snapshot")
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	a, b := loadFixture(t), loadFixture(t)
	h := NewHolder(a, nil)
	require.NoError(t, h.Reload(context.Background()), "nil source is a no-op")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := h.Current()
				assert.NotEmpty(t, snap.LookupCandidates("lcoe"))
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			h.Swap(b)
		} else {
			h.Swap(a)
		}
	}
	wg.Wait()
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{"lcoe.hcl": testutil.LCOERegistry})
	source := FileSource(testFunctions(), []config.Loader{hcl_adapter.NewLoader()}, dir)

	ctx, cancel := context.WithCancel(testutil.Context(t))
	defer cancel()

	initial, err := source(ctx)
	require.NoError(t, err)
	h := NewHolder(initial, source)

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, h, 20*time.Millisecond, dir) }()

	extra := `
variable "capacity" {
  unit = "MW"
}
`
	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.hcl"), []byte(extra), 0o644))

	require.Eventually(t, func() bool {
		_, ok := h.Current().Variable("capacity")
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
