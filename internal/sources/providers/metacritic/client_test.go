package metacritic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/testhelper"
	"github.com/agentstation/gamemeta/pkg/errors"
)

const composer = "/composer/metacritic/pages/games/"

func newTestClient(t *testing.T, srv *testhelper.Server) *Client {
	t.Helper()
	c, err := NewClient(baseclient.Config{APIKey: "mc-key", BaseURL: srv.URL, RequestsPerSecond: -1})
	require.NoError(t, err)
	return c
}

func TestSearch(t *testing.T) {
	srv := testhelper.NewServer(t, map[string]testhelper.Route{
		"/finder/metacritic/search/Alpha Game/web": {File: "finder.json"},
		composer + "alpha-game/web":                {File: "alpha-game.json"},
		composer + "alpha-game-remastered/web":     {File: "alpha-game-remastered.json"},
		composer + "alpha-game-demo/web":           {Body: `{"components": []}`},
	})

	got, err := newTestClient(t, srv).Search(context.Background(), "Alpha Game", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	g := got[0]
	assert.Equal(t, "Alpha Game", g.Name, "closest name ranks first")
	assert.Equal(t, "metacritic", g.Source)
	assert.Equal(t, "alpha-game", g.ProviderID)
	assert.Equal(t, "2020-05-01", g.ReleaseDate)
	assert.Equal(t, []string{"Alpha Studio"}, g.Developers)
	assert.Equal(t, []string{"Alpha Publishing"}, g.Publishers)
	assert.Equal(t, []string{"Action RPG"}, g.Genres)
	assert.Equal(t, []string{"PC", "PlayStation 4"}, g.Platforms)
	require.NotNil(t, g.MetacriticRating)
	assert.InDelta(t, 0.86, *g.MetacriticRating, 1e-9)
	require.NotNil(t, g.UserRating)
	assert.InDelta(t, 0.79, *g.UserRating, 1e-9)

	remastered := got[1]
	assert.Equal(t, "Alpha Game Remastered", remastered.Name)
	assert.Nil(t, remastered.MetacriticRating, "null critic score")
	assert.Nil(t, remastered.UserRating, "missing user score component")

	reqs := srv.Requests()
	require.Len(t, reqs, 4, "finder plus one composer page per game title")
	q := reqs[0].URL.Query()
	assert.Equal(t, "mc-key", q.Get("apiKey"))
	assert.Equal(t, "7", q.Get("limit"))
	assert.Equal(t, "0", q.Get("offset"))
	for _, r := range reqs[1:] {
		assert.Equal(t, "true", r.URL.Query().Get("contentOnly"))
		assert.Empty(t, r.URL.Query().Get("apiKey"))
	}
}

func TestSearchWithoutData(t *testing.T) {
	srv := testhelper.NewServer(t, map[string]testhelper.Route{
		"/finder/metacritic/search/Nothing/web": {Body: `{"links": {}}`},
	})
	got, err := newTestClient(t, srv).Search(context.Background(), "Nothing", 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchComposerFailure(t *testing.T) {
	srv := testhelper.NewServer(t, map[string]testhelper.Route{
		"/finder/metacritic/search/Alpha Game/web": {File: "finder.json"},
	})
	_, err := newTestClient(t, srv).Search(context.Background(), "Alpha Game", 1)
	assert.True(t, errors.IsProtocol(err))
}

func TestComposerItemBounds(t *testing.T) {
	var page composerResponse
	var s score
	assert.False(t, page.item(componentUserScore, &s))
}
