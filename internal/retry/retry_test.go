package retry

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/sources"
)

func testConfig() Config {
	return Config{
		RateLimitBackoff:    time.Minute,
		MaxRateLimitRetries: 3,
		CourtesyDelay:       time.Second,
	}
}

// script returns a call that yields errs in order, then succeeds.
func script(errs ...error) (Call, *int) {
	calls := 0
	return func(context.Context) ([]games.Candidate, error) {
		calls++
		if calls <= len(errs) {
			return nil, errs[calls-1]
		}
		return []games.Candidate{{Source: "rawg", Name: "Alpha Game"}}, nil
	}, &calls
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{name: "nil", err: nil, want: ClassNone},
		{name: "http 429", err: errors.NewAPIError("rawg", http.StatusTooManyRequests, "slow down"), want: ClassRateLimited},
		{name: "quota keyword", err: errors.NewAPIError("gamespot", http.StatusForbidden, "Daily quota exhausted"), want: ClassRateLimited},
		{name: "420 keyword", err: fmt.Errorf("status 420 enhance your calm"), want: ClassRateLimited},
		{name: "too many requests text", err: fmt.Errorf("Too Many Requests"), want: ClassRateLimited},
		{name: "transport", err: errors.WrapTransport("igdb", "https://api.igdb.com/v4/games", fmt.Errorf("connection reset")), want: ClassTransport},
		{name: "transport with 429 in endpoint", err: errors.WrapTransport("rawg", "https://api.rawg.io/api/games/14207", context.DeadlineExceeded), want: ClassTransport},
		{name: "transport with 420 in slug", err: errors.WrapTransport("metacritic", "https://backend.metacritic.com/composer/metacritic/pages/games/blaze-420", fmt.Errorf("connection reset")), want: ClassTransport},
		{name: "protocol with 429 in endpoint", err: &errors.APIError{Provider: "rawg", StatusCode: http.StatusBadGateway, Message: "bad gateway", Endpoint: "https://api.rawg.io/api/games/4291"}, want: ClassProtocol},
		{name: "parse of file with 420 in name", err: errors.WrapParse("json", "games-420.json", fmt.Errorf("unexpected end of JSON input")), want: ClassProtocol},
		{name: "protocol status", err: errors.NewAPIError("hltb", http.StatusBadGateway, "bad gateway"), want: ClassProtocol},
		{name: "parse", err: errors.WrapParse("xml", "gamespot response", fmt.Errorf("unexpected EOF")), want: ClassProtocol},
		{name: "unknown", err: fmt.Errorf("something odd"), want: ClassUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDoSuccessSleepsCourtesyDelay(t *testing.T) {
	rec := &Recorder{}
	c := New(testConfig(), WithSleeper(rec))
	call, calls := script()

	got, err := c.Do(context.Background(), sources.RAWG, call)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, *calls)
	assert.Equal(t, []time.Duration{time.Second}, rec.Sleeps())
}

func TestDoRetriesRateLimitedCall(t *testing.T) {
	rec := &Recorder{}
	c := New(testConfig(), WithSleeper(rec))
	limited := errors.NewAPIError("rawg", http.StatusTooManyRequests, "slow down")
	call, calls := script(limited, limited)

	got, err := c.Do(context.Background(), sources.RAWG, call)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, *calls)
	assert.Equal(t, 2, rec.Count(time.Minute), "one backoff per throttle")
	assert.Equal(t, 3, rec.Count(time.Second), "courtesy delay after every call")
	assert.Equal(t, 0, c.RateLimitCount(), "success resets the counter")
}

func TestDoAbortsAtRateLimitCeiling(t *testing.T) {
	rec := &Recorder{}
	c := New(testConfig(), WithSleeper(rec))
	limited := errors.NewAPIError("igdb", http.StatusTooManyRequests, "slow down")
	call, calls := script(limited, limited, limited, limited)

	_, err := c.Do(context.Background(), sources.IGDB, call)
	require.Error(t, err)
	assert.True(t, errors.IsRateLimitExceeded(err))

	var exceeded *errors.RateLimitExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 3, exceeded.Retries)
	assert.Equal(t, "igdb", exceeded.Provider)
	assert.Equal(t, 3, *calls, "exactly the ceiling number of throttled calls")
	assert.Equal(t, 2, rec.Count(time.Minute))
}

func TestRateLimitCounterIsRunGlobal(t *testing.T) {
	rec := &Recorder{}
	c := New(testConfig(), WithSleeper(rec))
	limited := errors.NewAPIError("rawg", http.StatusTooManyRequests, "slow down")

	// A throttle that ends in a protocol failure leaves the counter raised.
	call, _ := script(limited, errors.NewAPIError("rawg", http.StatusBadGateway, "bad gateway"))
	_, err := c.Do(context.Background(), sources.RAWG, call)
	require.True(t, errors.IsProtocol(err))
	assert.Equal(t, 1, c.RateLimitCount())

	call, _ = script(limited, limited)
	_, err = c.Do(context.Background(), sources.HLTB, call)
	assert.True(t, errors.IsRateLimitExceeded(err), "counter spans calls and sources")
}

func TestDoReturnsOtherFailures(t *testing.T) {
	rec := &Recorder{}
	c := New(testConfig(), WithSleeper(rec))
	failure := errors.WrapTransport("hltb", "https://howlongtobeat.com/api/search", fmt.Errorf("connection refused"))
	call, calls := script(failure)

	_, err := c.Do(context.Background(), sources.HLTB, call)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 1, *calls, "non-throttling failures are not retried here")
	assert.Equal(t, []time.Duration{time.Second}, rec.Sleeps())
}

func TestDoDoesNotThrottleOnTransportEndpoint(t *testing.T) {
	rec := &Recorder{}
	c := New(testConfig(), WithSleeper(rec))
	timeout := errors.WrapTransport("rawg", "https://api.rawg.io/api/games/14207", context.DeadlineExceeded)

	for i := 0; i < testConfig().MaxRateLimitRetries+1; i++ {
		call, calls := script(timeout)
		_, err := c.Do(context.Background(), sources.RAWG, call)
		require.Error(t, err)
		assert.True(t, errors.IsTransport(err))
		assert.False(t, errors.IsRateLimitExceeded(err))
		assert.Equal(t, 1, *calls)
	}
	assert.Equal(t, 0, c.RateLimitCount())
	assert.NotContains(t, rec.Sleeps(), testConfig().RateLimitBackoff)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(testConfig(), WithSleeper(SleeperFunc(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})))
	limited := errors.NewAPIError("rawg", http.StatusTooManyRequests, "slow down")
	call, _ := script(limited)

	_, err := c.Do(ctx, sources.RAWG, call)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))
}
