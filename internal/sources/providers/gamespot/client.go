// Package gamespot provides a client for the GameSpot games API, which
// answers in XML.
package gamespot

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/registry"
	"github.com/agentstation/gamemeta/internal/transport"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/sources"
)

const (
	// DefaultBaseURL is the GameSpot site root.
	DefaultBaseURL = "https://www.gamespot.com"
	// EnvAPIKey names the environment variable holding the API key.
	EnvAPIKey = "GAMESPOT_API_KEY"

	releaseLayout    = "2006-01-02 15:04:05"
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Response status codes reported inside the XML envelope.
const (
	statusOK          = 1
	statusInvalidKey  = 100
	statusRateLimited = 107
)

func init() {
	registry.Register(sources.GameSpot, func(cfg baseclient.Config) (sources.Provider, error) {
		return NewClient(cfg)
	})
}

type response struct {
	XMLName    xml.Name `xml:"response"`
	Error      string   `xml:"error"`
	StatusCode int      `xml:"status_code"`
	Games      []game   `xml:"results>game"`
}

type named struct {
	Name string `xml:"name"`
}

type game struct {
	ID          int64  `xml:"id"`
	Name        string `xml:"name"`
	ReleaseDate string `xml:"release_date"`
	Description string `xml:"description"`
	Deck        string `xml:"deck"`
	Image       struct {
		Original string `xml:"original"`
	} `xml:"image"`

	// Genres and themes appear either wrapped in a plural element or as
	// direct children, depending on the endpoint version.
	Genres       []named `xml:"genres>genre"`
	DirectGenres []named `xml:"genre"`
	Themes       []named `xml:"themes>theme"`
	DirectThemes []named `xml:"theme"`
}

// Client implements sources.Provider for GameSpot.
type Client struct {
	baseURL   string
	transport *transport.Client
}

// NewClient creates a GameSpot client. The API key is required.
func NewClient(cfg baseclient.Config) (*Client, error) {
	if err := baseclient.RequireAPIKey(sources.GameSpot.String(), EnvAPIKey, cfg.APIKey); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: cfg.BaseURLOr(DefaultBaseURL),
		transport: cfg.Transport(sources.GameSpot.String(),
			transport.WithAuth(&transport.QueryAuth{Param: "api_key"}, cfg.APIKey),
			transport.WithUserAgent(browserUserAgent),
		),
	}, nil
}

// ID returns the source identifier.
func (c *Client) ID() sources.ID {
	return sources.GameSpot
}

// Search filters the games collection by name.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]games.Candidate, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(baseclient.Limit(limit))},
		"filter": {"name:" + name},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, transport.URL(c.baseURL, "/api/games/", query), nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "gamespot search", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var found response
	if err := transport.DecodeXML(sources.GameSpot.String(), resp, &found); err != nil {
		return nil, err
	}
	if err := statusError(found); err != nil {
		return nil, err
	}

	candidates := make([]games.Candidate, 0, len(found.Games))
	for _, g := range found.Games {
		candidates = append(candidates, convert(g))
	}
	return candidates, nil
}

// statusError maps a failure reported in the envelope to an API error.
func statusError(r response) error {
	var status int
	switch r.StatusCode {
	case 0, statusOK:
		return nil
	case statusInvalidKey:
		status = http.StatusUnauthorized
	case statusRateLimited:
		status = http.StatusTooManyRequests
	default:
		status = http.StatusBadGateway
	}
	return &errors.APIError{
		Provider:   sources.GameSpot.String(),
		StatusCode: status,
		Message:    fmt.Sprintf("status %d: %s", r.StatusCode, r.Error),
	}
}

func convert(g game) games.Candidate {
	c := games.Candidate{
		Source:      sources.GameSpot.String(),
		ProviderID:  strconv.FormatInt(g.ID, 10),
		Name:        g.Name,
		ReleaseDate: baseclient.ReformatDate(g.ReleaseDate, releaseLayout),
		Description: baseclient.StripHTML(g.Description),
		CoverURL:    g.Image.Original,
		Genres:      baseclient.Names(append(g.Genres, g.DirectGenres...), nameOf),
		Themes:      baseclient.Names(append(g.Themes, g.DirectThemes...), nameOf),
	}
	if c.Description == "" {
		c.Description = g.Deck
	}
	return c
}

func nameOf(n named) string { return n.Name }
