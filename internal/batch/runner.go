// Package batch drives the resolver over an ordered set of input rows
// with quota pacing, cooperative cancellation, and progress reporting.
package batch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/chmatch/internal/model"
)

// defaultRowInterval spaces remote work between rows. The registry's
// free tier allows 600 searches per day; the original tooling settled
// on 0.7s and that spacing is kept.
const defaultRowInterval = 700 * time.Millisecond

// ProgressFunc receives (processed, total) after each row completes.
type ProgressFunc func(processed, total int)

// NameResolver is the slice of the resolver the runner needs.
type NameResolver interface {
	Resolve(ctx context.Context, raw string) model.Outcome
}

// Runner processes rows strictly in input order, one at a time.
type Runner struct {
	resolver NameResolver
	limiter  *rate.Limiter
	progress ProgressFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithRowInterval overrides the pause between rows. Tests pass 0 to
// disable pacing.
func WithRowInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// New creates a Runner around the given resolver.
func New(resolver NameResolver, opts ...Option) *Runner {
	r := &Runner{
		resolver: resolver,
		limiter:  rate.NewLimiter(rate.Every(defaultRowInterval), 1),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run resolves every row's name at nameColumn, in input order. The
// context is checked only at row boundaries: an in-flight resolution
// always finishes before cancellation is honored, and cancellation
// returns the prefix processed so far with status cancelled, never an
// error. Per-row failures are recorded on the row and never abort the
// batch.
func (r *Runner) Run(ctx context.Context, rows []model.Row, nameColumn string) *model.BatchResult {
	result := &model.BatchResult{
		RunID:   uuid.New().String(),
		Status:  model.RunRunning,
		Total:   len(rows),
		Results: make([]model.RowResult, 0, len(rows)),
	}

	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("batch: starting",
		zap.Int("rows", result.Total),
		zap.String("name_column", nameColumn),
	)

	for _, row := range rows {
		if ctx.Err() != nil {
			result.Status = model.RunCancelled
			log.Warn("batch: cancelled",
				zap.Int("processed", result.Processed),
				zap.Int("total", result.Total),
			)
			return result
		}

		// Pace rows regardless of how many variant queries the previous
		// resolution issued. Burst 1 makes the first row immediate. A
		// wait aborted by cancellation is honored at this boundary.
		if err := r.limiter.Wait(ctx); err != nil {
			result.Status = model.RunCancelled
			log.Warn("batch: cancelled during pacing",
				zap.Int("processed", result.Processed),
			)
			return result
		}

		outcome := r.resolveRow(ctx, row, nameColumn)
		result.Results = append(result.Results, model.RowResult{Row: row, Outcome: outcome})
		result.Processed++

		log.Info("batch: row done",
			zap.Int("processed", result.Processed),
			zap.Int("total", result.Total),
			zap.String("status", string(outcome.Status)),
			zap.Int("score", outcome.Score),
		)
		if r.progress != nil {
			r.progress(result.Processed, result.Total)
		}
	}

	result.Status = model.RunCompleted
	log.Info("batch: complete",
		zap.Int("processed", result.Processed),
		zap.Int("matched", result.MatchedCount()),
	)
	return result
}

// resolveRow extracts the name and resolves it. Missing or empty names
// fail the row locally without touching the registry.
func (r *Runner) resolveRow(ctx context.Context, row model.Row, nameColumn string) model.Outcome {
	name, ok := row[nameColumn]
	if !ok {
		return model.Outcome{Status: model.OutcomeFailed, Err: "missing name column: " + nameColumn}
	}
	if strings.TrimSpace(name) == "" {
		return model.Outcome{Status: model.OutcomeFailed, Err: "empty name"}
	}
	return r.resolver.Resolve(ctx, name)
}
