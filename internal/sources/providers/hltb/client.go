// Package hltb provides a client for the HowLongToBeat search endpoint.
// The endpoint needs no credentials but rejects requests without a
// browser-like origin.
package hltb

import (
	"context"
	"strconv"
	"strings"

	"github.com/agentstation/gamemeta/internal/matcher"
	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/registry"
	"github.com/agentstation/gamemeta/internal/transport"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// DefaultBaseURL is the HowLongToBeat site root.
const DefaultBaseURL = "https://howlongtobeat.com"

// pageSize is how many results are requested before ranking by similarity.
const pageSize = 20

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func init() {
	registry.Register(sources.HLTB, func(cfg baseclient.Config) (sources.Provider, error) {
		return NewClient(cfg), nil
	})
}

type searchRequest struct {
	SearchType    string        `json:"searchType"`
	SearchTerms   []string      `json:"searchTerms"`
	SearchPage    int           `json:"searchPage"`
	Size          int           `json:"size"`
	SearchOptions searchOptions `json:"searchOptions"`
}

type searchOptions struct {
	Games struct {
		UserID        int    `json:"userId"`
		Platform      string `json:"platform"`
		SortCategory  string `json:"sortCategory"`
		RangeCategory string `json:"rangeCategory"`
		Modifier      string `json:"modifier"`
	} `json:"games"`
	Filter     string `json:"filter"`
	Sort       int    `json:"sort"`
	Randomizer int    `json:"randomizer"`
}

type searchResponse struct {
	Count int     `json:"count"`
	Data  []entry `json:"data"`
}

type entry struct {
	GameID          int64   `json:"game_id"`
	GameName        string  `json:"game_name"`
	GameType        string  `json:"game_type"`
	GameImage       string  `json:"game_image"`
	ReviewScore     float64 `json:"review_score"`
	ProfilePlatform string  `json:"profile_platform"`
	ReleaseWorld    int     `json:"release_world"`
	CompMain        float64 `json:"comp_main"`
	CompPlus        float64 `json:"comp_plus"`
	Comp100         float64 `json:"comp_100"`
}

// Client implements sources.Provider for HowLongToBeat.
type Client struct {
	baseURL   string
	transport *transport.Client
}

// NewClient creates a HowLongToBeat client.
func NewClient(cfg baseclient.Config) *Client {
	return &Client{
		baseURL:   cfg.BaseURLOr(DefaultBaseURL),
		transport: cfg.Transport(sources.HLTB.String(), transport.WithUserAgent(browserUserAgent)),
	}
}

// ID returns the source identifier.
func (c *Client) ID() sources.ID {
	return sources.HLTB
}

// Search returns the limit entries most similar to name.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]games.Candidate, error) {
	body := searchRequest{
		SearchType:  "games",
		SearchTerms: strings.Fields(name),
		SearchPage:  1,
		Size:        pageSize,
	}
	body.SearchOptions.Games.SortCategory = "popular"
	body.SearchOptions.Games.RangeCategory = "main"

	payload, err := c.encode(body)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var found searchResponse
	if err := transport.DecodeJSON(sources.HLTB.String(), resp, &found); err != nil {
		return nil, err
	}

	matcher.SortBySimilarity(name, found.Data, func(e entry) string { return e.GameName })
	if limit = baseclient.Limit(limit); len(found.Data) > limit {
		found.Data = found.Data[:limit]
	}

	candidates := make([]games.Candidate, 0, len(found.Data))
	for _, e := range found.Data {
		candidates = append(candidates, convert(e))
	}
	return candidates, nil
}

func convert(e entry) games.Candidate {
	c := games.Candidate{
		Source:        sources.HLTB.String(),
		ProviderID:    strconv.FormatInt(e.GameID, 10),
		Name:          e.GameName,
		GameType:      e.GameType,
		MainStory:     hours(e.CompMain),
		MainExtra:     hours(e.CompPlus),
		Completionist: hours(e.Comp100),
	}
	if e.ReviewScore > 0 {
		c.Rating = games.Ratio(e.ReviewScore, 100)
	}
	if e.ReleaseWorld > 0 {
		c.ReleaseDate = strconv.Itoa(e.ReleaseWorld)
	}
	for _, p := range strings.Split(e.ProfilePlatform, ",") {
		if p = strings.TrimSpace(p); p != "" {
			c.Platforms = append(c.Platforms, p)
		}
	}
	return c
}

// hours converts a completion time in seconds, treating zero as unknown.
func hours(seconds float64) *float64 {
	if seconds <= 0 {
		return nil
	}
	return games.Float(seconds / 3600)
}
