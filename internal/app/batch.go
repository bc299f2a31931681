package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shuvo-dotcom/nfgcalc/internal/calcerr"
	"github.com/shuvo-dotcom/nfgcalc/internal/engine"
	"github.com/shuvo-dotcom/nfgcalc/internal/query"
	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds one JSONL query line.
const maxLineSize = 1 << 20

// BatchSummary counts the outcomes of a batch run.
type BatchSummary struct {
	Total    int
	Answered int
	Failed   int
}

// RunBatch answers one ResolvedQuery per JSONL line of in, concurrently, and
// writes one Result per line to out in input order. Failed queries are
// results too; only I/O errors and cancellation abort the batch.
func (a *App) RunBatch(ctx context.Context, in io.Reader, out io.Writer) (BatchSummary, error) {
	var lines []string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return BatchSummary{}, fmt.Errorf("failed to read batch input: %w", err)
	}

	start := time.Now()
	a.logger.Info("Batch started.", "queries", len(lines), "concurrency", a.config.Fetch.Concurrency)

	results := make([]*engine.Result, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Fetch.Concurrency)
	for i, line := range lines {
		g.Go(func() error {
			var q query.ResolvedQuery
			if err := json.Unmarshal([]byte(line), &q); err != nil {
				results[i] = engine.Failed("", q, &calcerr.InvalidQueryError{Reason: fmt.Sprintf("line %d is not a query: %v", i+1, err)})
				return nil
			}
			results[i], _ = a.Answer(gctx, q)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{Total: len(results)}
	enc := json.NewEncoder(out)
	for _, res := range results {
		if res.OK() {
			summary.Answered++
		} else {
			summary.Failed++
		}
		if err := enc.Encode(res); err != nil {
			return summary, fmt.Errorf("failed to write result: %w", err)
		}
	}

	a.logger.Info("Batch finished.", "answered", summary.Answered, "failed", summary.Failed, "duration", time.Since(start))
	return summary, nil
}
