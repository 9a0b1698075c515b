// Package retry wraps provider calls with the rate-limit policy of a run.
//
// A throttled call is retried after a fixed backoff until the run-global
// count of consecutive throttles reaches its ceiling, at which point the
// controller returns a fatal *errors.RateLimitExceededError. Every other
// failure is handed back to the caller, which owns per-entity retries.
// A courtesy delay follows every call whatever its outcome.
package retry

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/gamemeta/internal/metrics"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/logging"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// Call is one provider invocation.
type Call func(ctx context.Context) ([]games.Candidate, error)

// Config holds the retry policy.
type Config struct {
	RateLimitBackoff    time.Duration
	MaxRateLimitRetries int
	CourtesyDelay       time.Duration
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		RateLimitBackoff:    constants.RateLimitBackoff,
		MaxRateLimitRetries: constants.MaxRateLimitRetries,
		CourtesyDelay:       constants.CourtesyDelay,
	}
}

// Controller applies the policy. It is safe for concurrent use; the
// rate-limit counter is shared by all calls of the run.
type Controller struct {
	cfg     Config
	sleeper Sleeper

	mu          sync.Mutex
	rateLimited int
}

// Option configures a Controller.
type Option func(*Controller)

// WithSleeper replaces the context-aware timer used for all delays.
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) {
		if s != nil {
			c.sleeper = s
		}
	}
}

// New creates a controller.
func New(cfg Config, opts ...Option) *Controller {
	if cfg.MaxRateLimitRetries < 1 {
		cfg.MaxRateLimitRetries = 1
	}
	c := &Controller{cfg: cfg, sleeper: SleeperFunc(Sleep)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do runs call until it succeeds, fails with a non-throttling error, or the
// rate-limit ceiling is reached.
func (c *Controller) Do(ctx context.Context, source sources.ID, call Call) ([]games.Candidate, error) {
	logger := logging.FromContext(ctx).With().Str("source", source.String()).Logger()

	for {
		start := time.Now()
		candidates, err := call(ctx)
		class := Classify(err)
		metrics.RecordProviderCall(source.String(), class.String(), start)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if sleepErr := c.sleeper.Sleep(ctx, c.cfg.CourtesyDelay); sleepErr != nil {
			return nil, sleepErr
		}

		switch class {
		case ClassNone:
			c.reset()
			return candidates, nil
		case ClassRateLimited:
			count := c.throttled()
			metrics.RateLimitRetries.Inc()
			if count >= c.cfg.MaxRateLimitRetries {
				logger.Error().Err(err).Int("retries", count).Msg("Rate limit ceiling reached")
				return nil, &errors.RateLimitExceededError{
					Provider: source.String(),
					Retries:  count,
					Err:      err,
				}
			}
			logger.Warn().Err(err).
				Int("retries", count).
				Int("max_retries", c.cfg.MaxRateLimitRetries).
				Dur("backoff", c.cfg.RateLimitBackoff).
				Msg("Rate limited, backing off")
			if sleepErr := c.sleeper.Sleep(ctx, c.cfg.RateLimitBackoff); sleepErr != nil {
				return nil, sleepErr
			}
		default:
			return nil, err
		}
	}
}

// RateLimitCount returns the current count of consecutive throttles.
func (c *Controller) RateLimitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimited
}

func (c *Controller) throttled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rateLimited++
	return c.rateLimited
}

func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rateLimited = 0
}
