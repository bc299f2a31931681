// Package remotestore implements datastore.Store over a socket.io
// connection to a data service.
//
// Each Fetch emits a request event carrying a fresh request id. The service
// answers on a response event with the same id, so any number of fetches
// can be in flight on one connection.
package remotestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
)

const (
	DefaultRequestEvent  = "fetch_records"
	DefaultResponseEvent = "records"
	DefaultTimeout       = 10 * time.Second
)

// ErrClosed is returned by Fetch after Close.
var ErrClosed = errors.New("remote store closed")

// Options configures the connection.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	RequestEvent       string
	ResponseEvent      string
	// Timeout bounds each fetch and the initial connection.
	Timeout time.Duration
}

func (o *Options) setDefaults() {
	if o.RequestEvent == "" {
		o.RequestEvent = DefaultRequestEvent
	}
	if o.ResponseEvent == "" {
		o.ResponseEvent = DefaultResponseEvent
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Namespace == "" {
		o.Namespace = "/"
	}
}

// transport is the part of a socket.io client the store needs.
type transport interface {
	OnResponse(event string, handler func(args ...any))
	Emit(event string, payload any)
	Close()
}

type request struct {
	RequestID string `json:"request_id"`
	datastore.FetchRequest
}

type response struct {
	RequestID string                 `json:"request_id"`
	Records   []datastore.DataRecord `json:"records"`
	Error     string                 `json:"error,omitempty"`
}

// Store is a datastore.Store backed by a remote service.
type Store struct {
	opts   Options
	t      transport
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]chan response
	closed  bool
}

func newStore(t transport, opts Options, logger *slog.Logger) *Store {
	opts.setDefaults()
	s := &Store{
		opts:    opts,
		t:       t,
		logger:  logger,
		pending: make(map[string]chan response),
	}
	t.OnResponse(opts.ResponseEvent, s.dispatch)
	return s
}

// dispatch routes a response to the fetch waiting for its request id.
func (s *Store) dispatch(args ...any) {
	if len(args) == 0 {
		s.logger.Warn("Empty response from data service.")
		return
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		s.logger.Warn("Unreadable response from data service.", "error", err)
		return
	}
	var resp response
	if err := json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("Malformed response from data service.", "error", err)
		return
	}

	s.mu.Lock()
	ch, ok := s.pending[resp.RequestID]
	delete(s.pending, resp.RequestID)
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("Response for unknown or expired request.", "request_id", resp.RequestID)
		return
	}
	ch <- resp
}

// Fetch implements datastore.Store.
func (s *Store) Fetch(ctx context.Context, req datastore.FetchRequest) ([]datastore.DataRecord, error) {
	id := uuid.NewString()
	ch := make(chan response, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	s.logger.Debug("Emitting fetch request.", "request_id", id, "property", req.Property, "child", req.Child)
	s.t.Emit(s.opts.RequestEvent, request{RequestID: id, FetchRequest: req})

	timer := time.NewTimer(s.opts.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("timed out after %v waiting for records of %q", s.opts.Timeout, req.Property)
	case resp := <-ch:
		if resp.Error != "" {
			return nil, fmt.Errorf("data service: %s", resp.Error)
		}
		return resp.Records, nil
	}
}

// Close disconnects. Pending fetches run into their timeout or context.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.t.Close()
	return nil
}
