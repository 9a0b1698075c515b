package providers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/agentstation/gamemeta/internal/sources/providers"
	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/registry"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/sources"
)

func TestAllSourcesRegistered(t *testing.T) {
	assert.Equal(t, sources.IDs(), registry.Supported())
}

func TestBuild(t *testing.T) {
	configs := map[sources.ID]baseclient.Config{
		sources.RAWG:       {APIKey: "r"},
		sources.IGDB:       {APIKey: "id", Secret: "secret"},
		sources.GameSpot:   {APIKey: "g"},
		sources.Metacritic: {APIKey: "m"},
	}
	set, err := registry.Build(sources.IDs(), configs)
	require.NoError(t, err)
	assert.Equal(t, 5, set.Len())

	var order []sources.ID
	for _, p := range set.Ordered() {
		order = append(order, p.ID())
	}
	assert.Equal(t, sources.IDs(), order)
}

func TestBuildReportsEveryMissingKey(t *testing.T) {
	_, err := registry.Build([]sources.ID{sources.RAWG, sources.HLTB, sources.GameSpot}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
	assert.Contains(t, err.Error(), "RAWG_API_KEY")
	assert.Contains(t, err.Error(), "GAMESPOT_API_KEY")
}

func TestNewUnknownSource(t *testing.T) {
	_, err := registry.New(sources.ID("steam"), baseclient.Config{})
	assert.True(t, errors.IsNotFound(err))
}
