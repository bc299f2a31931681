package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/citation"
	"github.com/shuvo-dotcom/nfgcalc/internal/ctxlog"
	"github.com/shuvo-dotcom/nfgcalc/internal/datastore"
	"github.com/shuvo-dotcom/nfgcalc/internal/evaluator"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"github.com/shuvo-dotcom/nfgcalc/internal/registry"
	"github.com/shuvo-dotcom/nfgcalc/internal/resolver"
)

// ErrNoIntentResolver is returned by AnswerText when no resolver is set.
var ErrNoIntentResolver = errors.New("no intent resolver configured")

// Options configures an Engine.
type Options struct {
	Prefetch    bool
	Concurrency int
	// Intents turns free text into queries for AnswerText. Optional.
	Intents query.IntentResolver
}

// Engine answers queries. It is safe for concurrent use.
type Engine struct {
	holder *registry.Holder
	store  datastore.Store
	opts   Options
}

// New creates an engine reading registry snapshots from holder and raw data
// from store.
func New(holder *registry.Holder, store datastore.Store, opts Options) *Engine {
	return &Engine{holder: holder, store: store, opts: opts}
}

// Answer evaluates q. The returned Result is never nil; when err is non-nil
// it carries the Failure and no value.
func (e *Engine) Answer(ctx context.Context, q query.ResolvedQuery) (*Result, error) {
	res := &Result{QueryID: uuid.NewString(), Metric: q.Metric, Entity: q.Entity, Time: q.Time}
	ctx = ctxlog.With(ctx, "query_id", res.QueryID)
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	logger.Debug("Query started.", "query", q.String())

	value, err := e.answer(ctx, q, res)
	if err != nil {
		res = Failed(res.QueryID, q, err)
		if calcerr.IsExpected(err) {
			logger.Info("Query could not be answered.", "metric", q.Metric, "kind", res.Failure.Kind, "reason", err, "duration", time.Since(start))
		} else {
			logger.Error("Query failed.", "metric", q.Metric, "kind", res.Failure.Kind, "error", err, "duration", time.Since(start))
		}
		return res, err
	}

	*res = *value
	logger.Info("Query answered.", "metric", res.Metric, "value", res.Value, "unit", res.Unit, "duration", time.Since(start))
	return res, nil
}

// answer returns a complete result or an error; res is only read for its
// identifying fields.
func (e *Engine) answer(ctx context.Context, q query.ResolvedQuery, res *Result) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	snap := e.holder.Current()
	if snap == nil {
		return nil, errors.New("no registry loaded")
	}

	g, err := resolver.New(snap, e.store, resolver.Options{
		Prefetch:    e.opts.Prefetch,
		Concurrency: e.opts.Concurrency,
	}).Resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := evaluator.New(snap.Functions()).Evaluate(ctx, g); err != nil {
		return nil, err
	}
	report, err := citation.Build(g, q)
	if err != nil {
		return nil, fmt.Errorf("build citations: %w", err)
	}

	root := g.RootNode()
	out := *res
	out.Metric = root.Variable
	out.Value = root.Value.Value
	out.Unit = root.Value.Unit.String()
	out.FormattedValue = report.FormattedValue
	out.Citations = report.Citations
	out.Trace = report.Trace
	out.Narrative = &report.Narrative
	return &out, nil
}

// AnswerText resolves free text into a query with the configured
// IntentResolver and answers it.
func (e *Engine) AnswerText(ctx context.Context, text string) (*Result, error) {
	if e.opts.Intents == nil {
		return nil, ErrNoIntentResolver
	}
	q, err := e.opts.Intents.Resolve(ctx, text)
	if err != nil {
		err = &calcerr.InvalidQueryError{Reason: err.Error()}
		return Failed("", q, err), err
	}
	return e.Answer(ctx, q)
}
