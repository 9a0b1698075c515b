package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/gamemeta/pkg/logging"
)

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	ctx = logging.WithEntity(ctx, "Alpha Game")
	ctx = logging.WithSource(ctx, "igdb")
	ctx = logging.WithAttempt(ctx, 2)
	ctx = logging.WithError(ctx, errors.New("boom"))

	logging.FromContext(ctx).Info().Msg("searching")

	tl.AssertContains(t, `"entity":"Alpha Game"`)
	tl.AssertContains(t, `"source":"igdb"`)
	tl.AssertContains(t, `"attempt":2`)
	tl.AssertContains(t, `"error":"boom"`)
	assert.Equal(t, 1, tl.CountContaining("searching"))
}

func TestWithFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{"processed": 4, "ratio": 0.95, "resumed": true})

	logging.Ctx(ctx).Info().Msg("progress")

	tl.AssertContains(t, `"processed":4`)
	tl.AssertContains(t, `"ratio":0.95`)
	tl.AssertContains(t, `"resumed":true`)
}

func TestWithField(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithField(ctx, "column", "game_name")
	ctx = logging.WithField(ctx, "cause", errors.New("short row"))

	logging.FromContext(ctx).Info().Msg("loading")

	tl.AssertContains(t, `"column":"game_name"`)
	tl.AssertContains(t, `"cause":"short row"`)
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Equal(t, context.Background(), logging.WithError(context.Background(), nil))
}
