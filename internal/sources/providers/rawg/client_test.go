package rawg

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/testhelper"
	"github.com/agentstation/gamemeta/pkg/errors"
)

func newTestClient(t *testing.T, srv *testhelper.Server) *Client {
	t.Helper()
	c, err := NewClient(baseclient.Config{APIKey: "test-key", BaseURL: srv.URL, RequestsPerSecond: -1})
	require.NoError(t, err)
	return c
}

func TestSearch(t *testing.T) {
	srv := testhelper.NewServer(t, map[string]testhelper.Route{
		"/api/games":      {File: "search.json"},
		"/api/games/3498": {File: "game_3498.json"},
	})
	c := newTestClient(t, srv)

	got, err := c.Search(context.Background(), "Alpha Game", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	g := got[0]
	assert.Equal(t, "rawg", g.Source)
	assert.Equal(t, "3498", g.ProviderID)
	assert.Equal(t, "Alpha Game", g.Name)
	assert.Equal(t, "2020-05-01", g.ReleaseDate)
	require.NotNil(t, g.Rating)
	assert.InDelta(t, 0.8, *g.Rating, 1e-9)
	require.NotNil(t, g.MetacriticRating)
	assert.InDelta(t, 0.85, *g.MetacriticRating, 1e-9)
	require.NotNil(t, g.MainStory)
	assert.Equal(t, 12.0, *g.MainStory)
	assert.Equal(t, []string{"PC", "PlayStation 4"}, g.Platforms)
	assert.Equal(t, []string{"Action", "Adventure"}, g.Genres)
	assert.Equal(t, []string{"Singleplayer", "Steam Achievements"}, g.Keywords)
	assert.Equal(t, "Mature", g.ContentRating)
	assert.Equal(t, []string{"Alpha Studio"}, g.Developers)
	assert.Equal(t, []string{"Alpha Publishing"}, g.Publishers)
	assert.Equal(t, "https://media.rawg.io/media/games/alpha.jpg", g.CoverURL)
	assert.Equal(t, "Alpha Game is an action game.\n\nSecond paragraph.", g.Description)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Alpha Game", reqs[0].URL.Query().Get("search"))
	assert.Equal(t, "1", reqs[0].URL.Query().Get("page_size"))
	assert.Equal(t, "test-key", reqs[0].URL.Query().Get("key"))
	assert.Equal(t, "test-key", reqs[1].URL.Query().Get("key"))
}

func TestConvertUnratedGame(t *testing.T) {
	var detail gameResponse
	require.NoError(t, json.Unmarshal(testhelper.LoadTestdata(t, "game_unrated.json"), &detail))

	g := convert(detail)
	assert.Nil(t, g.Rating, "zero rating with no votes is absent")
	assert.Nil(t, g.MetacriticRating)
	assert.Nil(t, g.MainStory, "zero playtime is absent")
	assert.Empty(t, g.ReleaseDate)
	assert.Equal(t, "Coming soon.", g.Description, "falls back to stripped HTML")
	assert.Empty(t, g.ContentRating)
}

func TestSearchNoResults(t *testing.T) {
	srv := testhelper.NewServer(t, map[string]testhelper.Route{
		"/api/games": {Body: `{"count": 0, "results": []}`},
	})
	got, err := newTestClient(t, srv).Search(context.Background(), "Nothing", 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchErrors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		srv := testhelper.NewServer(t, map[string]testhelper.Route{
			"/api/games": {Status: http.StatusTooManyRequests, Body: `{"error": "slow down"}`},
		})
		_, err := newTestClient(t, srv).Search(context.Background(), "Alpha", 1)
		assert.True(t, errors.IsRateLimited(err))
	})

	t.Run("detail failure is protocol", func(t *testing.T) {
		srv := testhelper.NewServer(t, map[string]testhelper.Route{
			"/api/games": {File: "search.json"},
		})
		_, err := newTestClient(t, srv).Search(context.Background(), "Alpha", 1)
		assert.True(t, errors.IsProtocol(err))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewClient(baseclient.Config{})
		assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
	})
}
