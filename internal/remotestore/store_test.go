package remotestore

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers every emitted request through serve.
type fakeTransport struct {
	mu      sync.Mutex
	handler func(args ...any)
	serve   func(req request) any
	closed  bool
}

func (f *fakeTransport) OnResponse(event string, handler func(args ...any)) {
	f.handler = handler
}

func (f *fakeTransport) Emit(event string, payload any) {
	// Round-trip through JSON like the wire does.
	raw, _ := json.Marshal(payload)
	var req request
	_ = json.Unmarshal(raw, &req)
	if f.serve == nil {
		return
	}
	reply := f.serve(req)
	if reply == nil {
		return
	}
	raw, _ = json.Marshal(reply)
	var generic map[string]any
	_ = json.Unmarshal(raw, &generic)
	go f.handler(generic)
}

func (f *fakeTransport) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func newTestStore(t *testing.T, ft *fakeTransport, timeout time.Duration) *Store {
	return newStore(ft, Options{Timeout: timeout}, testutil.NewTestLogger(t))
}

func TestStore_Fetch(t *testing.T) {
	ft := &fakeTransport{serve: func(req request) any {
		return response{
			RequestID: req.RequestID,
			Records: []datastore.DataRecord{
				{ID: "r1", Property: req.Property, Child: req.Child, Date: req.Date, Value: 42, Unit: "GWh"},
			},
		}
	}}
	s := newTestStore(t, ft, time.Second)

	got, err := s.Fetch(context.Background(), datastore.FetchRequest{Property: "Generation", Child: "BE", Date: "2050"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, 42.0, got[0].Value)
	assert.Equal(t, "2050", got[0].Date)
}

func TestStore_ConcurrentFetchesAreRoutedById(t *testing.T) {
	ft := &fakeTransport{serve: func(req request) any {
		return response{
			RequestID: req.RequestID,
			Records:   []datastore.DataRecord{{Property: req.Property, Child: req.Child}},
		}
	}}
	s := newTestStore(t, ft, time.Second)

	var wg sync.WaitGroup
	for _, prop := range []string{"a", "b", "c", "d", "e"} {
		wg.Add(1)
		go func(prop string) {
			defer wg.Done()
			got, err := s.Fetch(context.Background(), datastore.FetchRequest{Property: prop, Child: "BE"})
			assert.NoError(t, err)
			if assert.Len(t, got, 1) {
				assert.Equal(t, prop, got[0].Property)
			}
		}(prop)
	}
	wg.Wait()
}

func TestStore_Errors(t *testing.T) {
	t.Run("service error", func(t *testing.T) {
		ft := &fakeTransport{serve: func(req request) any {
			return response{RequestID: req.RequestID, Error: "table not loaded"}
		}}
		_, err := newTestStore(t, ft, time.Second).Fetch(context.Background(), datastore.FetchRequest{Property: "x"})
		assert.EqualError(t, err, "data service: table not loaded")
	})

	t.Run("timeout", func(t *testing.T) {
		ft := &fakeTransport{}
		_, err := newTestStore(t, ft, 20*time.Millisecond).Fetch(context.Background(), datastore.FetchRequest{Property: "x"})
		assert.ErrorContains(t, err, "timed out")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestStore(t, &fakeTransport{}, time.Second).Fetch(ctx, datastore.FetchRequest{Property: "x"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed", func(t *testing.T) {
		ft := &fakeTransport{}
		s := newTestStore(t, ft, time.Second)
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())
		assert.True(t, ft.closed)
		_, err := s.Fetch(context.Background(), datastore.FetchRequest{Property: "x"})
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestStore_IgnoresStrayResponses(t *testing.T) {
	ft := &fakeTransport{}
	s := newStore(ft, Options{}, slog.Default())

	assert.NotPanics(t, func() {
		ft.handler()
		ft.handler("not an object")
		ft.handler(map[string]any{"request_id": "nobody"})
	})
	assert.Equal(t, DefaultRequestEvent, s.opts.RequestEvent)
	assert.Equal(t, DefaultResponseEvent, s.opts.ResponseEvent)
	assert.Equal(t, DefaultTimeout, s.opts.Timeout)
}
