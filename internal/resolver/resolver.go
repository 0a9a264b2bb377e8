// Package resolver orchestrates variant generation, registry search,
// and scoring into a single resolution outcome per input name.
package resolver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/chmatch/internal/model"
	"github.com/sells-group/chmatch/internal/normalize"
	"github.com/sells-group/chmatch/internal/scorer"
	"github.com/sells-group/chmatch/pkg/companieshouse"
)

const (
	// earlyExitScore stops further variant queries once the running best
	// reaches it. acceptScore decides Matched vs Unmatched at the end.
	// The two thresholds are separate decisions, keep them distinct.
	earlyExitScore = 80
	acceptScore    = 65

	// itemsPerQuery bounds each registry search.
	itemsPerQuery = 10

	// defaultQueryInterval spaces variant queries within one resolution.
	defaultQueryInterval = 200 * time.Millisecond
)

// Searcher is the slice of the registry client the resolver needs.
type Searcher interface {
	Search(ctx context.Context, query string, itemsPerPage int) ([]companieshouse.Candidate, error)
}

// Resolver resolves one raw company name against the registry.
type Resolver struct {
	client  Searcher
	limiter *rate.Limiter
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithQueryInterval overrides the pause between variant queries.
// Tests pass 0 to disable pacing.
func WithQueryInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// New creates a Resolver around the given registry searcher.
func New(client Searcher, opts ...Option) *Resolver {
	r := &Resolver{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(defaultQueryInterval), 1),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve runs the multi-query strategy for one raw name: variants in
// priority order, at most normalize.MaxQueryVariants remote calls,
// early exit on a good-enough match. Any registry error aborts this
// resolution; the caller decides whether the batch continues.
func (r *Resolver) Resolve(ctx context.Context, raw string) model.Outcome {
	variants := normalize.Variants(raw)
	if len(variants) == 0 {
		return model.Outcome{Status: model.OutcomeFailed, Err: "empty name"}
	}
	if len(variants) > normalize.MaxQueryVariants {
		variants = variants[:normalize.MaxQueryVariants]
	}

	var (
		bestScore     int
		bestCandidate *companieshouse.Candidate
		bestQuery     string
		seen          int
	)

	for _, variant := range variants {
		// Burst 1 makes the first wait free; later variants are spaced
		// by the query interval.
		if err := r.limiter.Wait(ctx); err != nil {
			return model.Outcome{Status: model.OutcomeFailed, Err: err.Error(), CandidatesSeen: seen}
		}

		candidates, err := r.client.Search(ctx, variant, itemsPerQuery)
		if err != nil {
			return model.Outcome{
				Status:         model.OutcomeFailed,
				Err:            failReason(err),
				QueryUsed:      variant,
				CandidatesSeen: seen,
			}
		}

		seen += len(candidates)
		for j := range candidates {
			s := scorer.Score(raw, candidates[j].Title)
			if s > bestScore {
				bestScore = s
				bestCandidate = &candidates[j]
				bestQuery = variant
			}
		}

		zap.L().Debug("resolver: variant scored",
			zap.String("variant", variant),
			zap.Int("candidates", len(candidates)),
			zap.Int("best_score", bestScore),
		)

		if bestScore >= earlyExitScore {
			break
		}
	}

	if bestScore >= acceptScore {
		return model.Outcome{
			Status:         model.OutcomeMatched,
			Candidate:      bestCandidate,
			Score:          bestScore,
			QueryUsed:      bestQuery,
			CandidatesSeen: seen,
		}
	}
	return model.Outcome{
		Status:         model.OutcomeUnmatched,
		Score:          bestScore,
		QueryUsed:      bestQuery,
		CandidatesSeen: seen,
	}
}

// failReason maps client errors onto stable outcome reasons.
func failReason(err error) string {
	switch {
	case errors.Is(err, companieshouse.ErrUnauthorized):
		return "unauthorized: API key rejected"
	case errors.Is(err, companieshouse.ErrRateLimited):
		return "rate limited: search quota exhausted"
	default:
		var remote *companieshouse.RemoteError
		if errors.As(err, &remote) {
			return remote.Error()
		}
		return err.Error()
	}
}
