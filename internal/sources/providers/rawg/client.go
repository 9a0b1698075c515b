// Package rawg provides a client for the RAWG video games database API.
package rawg

import (
	"context"
	"net/url"
	"strconv"

	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/registry"
	"github.com/agentstation/gamemeta/internal/transport"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// DefaultBaseURL is the RAWG API root.
const DefaultBaseURL = "https://api.rawg.io"

// EnvAPIKey names the environment variable holding the API key.
const EnvAPIKey = "RAWG_API_KEY"

func init() {
	registry.Register(sources.RAWG, func(cfg baseclient.Config) (sources.Provider, error) {
		return NewClient(cfg)
	})
}

type searchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"results"`
}

type named struct {
	Name string `json:"name"`
}

type gameResponse struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Released       string   `json:"released"`
	Rating         float64  `json:"rating"`
	RatingsCount   int      `json:"ratings_count"`
	Metacritic     *float64 `json:"metacritic"`
	Playtime       float64  `json:"playtime"`
	Description    string   `json:"description"`
	DescriptionRaw string   `json:"description_raw"`
	BackgroundImg  string   `json:"background_image"`
	Platforms      []struct {
		Platform *named `json:"platform"`
	} `json:"platforms"`
	Genres     []named `json:"genres"`
	Tags       []named `json:"tags"`
	ESRBRating *named  `json:"esrb_rating"`
	Developers []named `json:"developers"`
	Publishers []named `json:"publishers"`
}

// Client implements sources.Provider for RAWG.
type Client struct {
	baseURL   string
	transport *transport.Client
}

// NewClient creates a RAWG client. The API key is required.
func NewClient(cfg baseclient.Config) (*Client, error) {
	if err := baseclient.RequireAPIKey(sources.RAWG.String(), EnvAPIKey, cfg.APIKey); err != nil {
		return nil, err
	}
	return &Client{
		baseURL:   cfg.BaseURLOr(DefaultBaseURL),
		transport: cfg.Transport(sources.RAWG.String(), transport.WithAuth(&transport.QueryAuth{Param: "key"}, cfg.APIKey)),
	}, nil
}

// ID returns the source identifier.
func (c *Client) ID() sources.ID {
	return sources.RAWG
}

// Search looks up name and fetches the details of the top limit results.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]games.Candidate, error) {
	limit = baseclient.Limit(limit)

	var found searchResponse
	query := url.Values{"search": {name}, "page_size": {strconv.Itoa(limit)}}
	if err := c.transport.GetJSON(ctx, transport.URL(c.baseURL, "/api/games", query), &found); err != nil {
		return nil, err
	}

	candidates := make([]games.Candidate, 0, limit)
	for i, summary := range found.Results {
		if i >= limit {
			break
		}
		var detail gameResponse
		path := "/api/games/" + strconv.Itoa(summary.ID)
		if err := c.transport.GetJSON(ctx, transport.URL(c.baseURL, path, nil), &detail); err != nil {
			return nil, err
		}
		candidates = append(candidates, convert(detail))
	}
	return candidates, nil
}

func convert(g gameResponse) games.Candidate {
	c := games.Candidate{
		Source:      sources.RAWG.String(),
		ProviderID:  strconv.Itoa(g.ID),
		Name:        g.Name,
		ReleaseDate: g.Released,
		Genres:      baseclient.Names(g.Genres, nameOf),
		Keywords:    baseclient.Names(g.Tags, nameOf),
		Developers:  baseclient.Names(g.Developers, nameOf),
		Publishers:  baseclient.Names(g.Publishers, nameOf),
		CoverURL:    g.BackgroundImg,
		Description: g.DescriptionRaw,
	}
	if c.Description == "" {
		c.Description = baseclient.StripHTML(g.Description)
	}

	// RAWG reports 0 for unrated games and unknown playtimes.
	if g.Rating > 0 || g.RatingsCount > 0 {
		c.Rating = games.Ratio(g.Rating, 5)
	}
	if g.Metacritic != nil && *g.Metacritic > 0 {
		c.MetacriticRating = games.Ratio(*g.Metacritic, 100)
	}
	if g.Playtime > 0 {
		c.MainStory = games.Float(g.Playtime)
	}
	if g.ESRBRating != nil {
		c.ContentRating = g.ESRBRating.Name
	}
	for _, p := range g.Platforms {
		if p.Platform != nil && p.Platform.Name != "" {
			c.Platforms = append(c.Platforms, p.Platform.Name)
		}
	}
	return c
}

func nameOf(n named) string { return n.Name }
