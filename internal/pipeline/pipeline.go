// Package pipeline runs the reconciliation of a work queue: for every entity
// it queries each provider, verifies candidate identities against the anchor
// source, merges the accepted candidates and checkpoints the record.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/agentstation/gamemeta/internal/checkpoint"
	"github.com/agentstation/gamemeta/internal/matcher"
	"github.com/agentstation/gamemeta/internal/metrics"
	"github.com/agentstation/gamemeta/internal/retry"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/logging"
	"github.com/agentstation/gamemeta/pkg/provenance"
	"github.com/agentstation/gamemeta/pkg/reconcile"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// Config holds the per-entity policy of a run.
type Config struct {
	// SearchLimit is passed to every provider search.
	SearchLimit int
	// MaxRetries is the number of failed attempts after which an entity is abandoned.
	MaxRetries int
	// RetryDelay is slept between failed attempts of one entity.
	RetryDelay time.Duration
	// Concurrent queries the providers of one entity in parallel.
	Concurrent bool
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		SearchLimit: constants.SearchLimit,
		MaxRetries:  constants.MaxRetries,
		RetryDelay:  constants.RetryDelay,
	}
}

// Progress is the state of a run. It is owned by Run and never shared.
type Progress struct {
	Cursor           int // queue position of the current entity
	EntityRetries    int // consecutive failed attempts of the current entity
	RateLimitRetries int // consecutive throttles across the run
	Succeeded        int
}

// Summary describes a finished run.
type Summary struct {
	Total     int           `json:"total"`
	Skipped   int           `json:"skipped"` // entities before the resume point
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Abandoned int           `json:"abandoned"`
	Flushes   int           `json:"flushes"`
	Aborted   bool          `json:"aborted"`
	Duration  time.Duration `json:"duration"`
}

// Pipeline reconciles a work queue.
type Pipeline struct {
	cfg        Config
	providers  []sources.Provider
	controller *retry.Controller
	checkpoint *checkpoint.Manager
	matcher    matcher.Matcher
	tracker    provenance.Tracker
	sleeper    retry.Sleeper
	out        io.Writer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMatcher replaces the default identity thresholds.
func WithMatcher(m matcher.Matcher) Option {
	return func(p *Pipeline) {
		p.matcher = m
	}
}

// WithTracker records the origin of every reconciled field.
func WithTracker(t provenance.Tracker) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracker = t
		}
	}
}

// WithSleeper replaces the timer used between failed attempts.
func WithSleeper(s retry.Sleeper) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sleeper = s
		}
	}
}

// WithOutput sets where progress lines and failure traces are written.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		if w != nil {
			p.out = w
		}
	}
}

// New creates a pipeline over the providers of set, queried in source order.
func New(set *sources.Set, controller *retry.Controller, manager *checkpoint.Manager, cfg Config, opts ...Option) *Pipeline {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	p := &Pipeline{
		cfg:        cfg,
		providers:  set.Ordered(),
		controller: controller,
		checkpoint: manager,
		matcher:    matcher.New(),
		tracker:    provenance.NewTracker(false),
		sleeper:    retry.SleeperFunc(retry.Sleep),
		out:        io.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes queue from the checkpoint's resume point. Buffered records
// are flushed when Run returns, whatever the reason. It returns a
// *errors.RateLimitExceededError when the rate-limit ceiling is reached and
// the context error when ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, queue []string) (summary Summary, err error) {
	started := time.Now()
	logger := logging.FromContext(ctx)
	summary.Total = len(queue)

	defer func() {
		// The final flush must run even when ctx is already cancelled.
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.ShutdownTimeout)
		defer cancel()
		if flushErr := p.checkpoint.Flush(flushCtx); flushErr != nil {
			logger.Error().Err(flushErr).Msg("Final flush failed")
			err = errors.Join(err, flushErr)
		}
		summary.Flushes = p.checkpoint.Flushes()
		summary.Duration = time.Since(started)
	}()

	start, err := p.checkpoint.ResumeIndex(ctx, queue)
	if err != nil {
		return summary, err
	}
	summary.Skipped = start
	metrics.Entities.WithLabelValues(metrics.OutcomeSkipped).Add(float64(start))

	progress := Progress{Cursor: start}
	for progress.Cursor < len(queue) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		key := queue[progress.Cursor]
		entityCtx := logging.WithEntity(ctx, key)
		out := p.attempt(entityCtx, key)
		progress.RateLimitRetries = p.controller.RateLimitCount()

		if out.fatal != nil {
			if errors.IsRateLimitExceeded(out.fatal) {
				summary.Aborted = true
				logger.Error().Err(out.fatal).Str("entity", key).Msg("Rate limit ceiling reached, aborting run")
			}
			return summary, out.fatal
		}

		if out.ok() {
			if err := p.commit(entityCtx, key, out.result, true); err != nil {
				logging.FromContext(entityCtx).Error().Err(err).Msg("Checkpoint flush failed, records stay buffered")
			}
			metrics.Entities.WithLabelValues(metrics.OutcomeSucceeded).Inc()
			summary.Processed++
			summary.Succeeded++
			progress.Succeeded++
			progress.EntityRetries = 0
			progress.Cursor++
			continue
		}

		progress.EntityRetries++
		p.trace(key, out)
		if progress.EntityRetries < p.cfg.MaxRetries {
			metrics.EntityRetries.Inc()
			logging.FromContext(entityCtx).Warn().
				Err(out.err()).
				Int("attempt", progress.EntityRetries).
				Int("max_retries", p.cfg.MaxRetries).
				Dur("delay", p.cfg.RetryDelay).
				Msg("Entity attempt failed, retrying")
			if err := p.sleeper.Sleep(ctx, p.cfg.RetryDelay); err != nil {
				return summary, err
			}
			continue
		}

		abandoned := &errors.EntityAbandonedError{
			Entity:   key,
			Attempts: progress.EntityRetries,
			Sources:  out.failedSources(),
			Err:      out.err(),
		}
		logging.FromContext(entityCtx).Error().Err(abandoned).Strs("sources", abandoned.Sources).Msg("Entity abandoned")
		if err := p.commit(entityCtx, key, out.result, false); err != nil {
			logging.FromContext(entityCtx).Error().Err(err).Msg("Checkpoint flush failed, records stay buffered")
		}
		metrics.Entities.WithLabelValues(metrics.OutcomeAbandoned).Inc()
		summary.Processed++
		summary.Abandoned++
		progress.EntityRetries = 0
		progress.Cursor++
	}

	logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("abandoned", summary.Abandoned).
		Int("skipped", summary.Skipped).
		Msg("Queue exhausted")
	return summary, nil
}

// commit records the field origins, prints the progress line and hands the
// record to the checkpoint manager.
func (p *Pipeline) commit(ctx context.Context, key string, result reconcile.Result, success bool) error {
	for _, prov := range result.Provenance {
		p.tracker.Track(key, prov)
	}
	r := result.Record
	fmt.Fprintf(p.out, "%s\t%s\n", r.Name, r.ReleaseDate)
	logging.FromContext(ctx).Info().
		Str("name", r.Name).
		Str("release_date", r.ReleaseDate).
		Bool("success", success).
		Msg("Reconciled")
	return p.checkpoint.Add(ctx, r, success)
}
