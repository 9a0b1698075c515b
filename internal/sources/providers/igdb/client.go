// Package igdb provides a client for the IGDB games API. Requests are
// authorised with a Twitch application access token that the client obtains
// through the client-credentials flow and caches until shortly before expiry.
package igdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/registry"
	"github.com/agentstation/gamemeta/internal/transport"
	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/logging"
	"github.com/agentstation/gamemeta/pkg/sources"
)

const (
	// DefaultBaseURL is the IGDB API root.
	DefaultBaseURL = "https://api.igdb.com"
	// DefaultAuthURL is the Twitch identity service root.
	DefaultAuthURL = "https://id.twitch.tv"

	// EnvClientID names the environment variable holding the Twitch client id.
	EnvClientID = "IGDB_CLIENT_ID"
	// EnvClientSecret names the environment variable holding the Twitch client secret.
	EnvClientSecret = "IGDB_CLIENT_SECRET"
)

const queryFields = "name, game_modes.name, game_type.type, keywords.name, " +
	"language_supports.language.name, platforms.name, player_perspectives.name, " +
	"themes.name, rating, summary, first_release_date, genres.name, cover.url"

func init() {
	registry.Register(sources.IGDB, func(cfg baseclient.Config) (sources.Provider, error) {
		return NewClient(cfg)
	})
}

type named struct {
	Name string `json:"name"`
}

type game struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Summary          string   `json:"summary"`
	Rating           *float64 `json:"rating"`
	FirstReleaseDate *int64   `json:"first_release_date"`
	GameType         *struct {
		Type string `json:"type"`
	} `json:"game_type"`
	GameModes          []named `json:"game_modes"`
	Keywords           []named `json:"keywords"`
	Platforms          []named `json:"platforms"`
	PlayerPerspectives []named `json:"player_perspectives"`
	Themes             []named `json:"themes"`
	Genres             []named `json:"genres"`
	LanguageSupports   []struct {
		Language *named `json:"language"`
	} `json:"language_supports"`
	Cover *struct {
		URL string `json:"url"`
	} `json:"cover"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Client implements sources.Provider for IGDB.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string
	transport    *transport.Client

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// NewClient creates an IGDB client. Both the client id and secret are required.
func NewClient(cfg baseclient.Config) (*Client, error) {
	if err := baseclient.RequireAPIKey(sources.IGDB.String(), EnvClientID, cfg.APIKey); err != nil {
		return nil, err
	}
	if err := baseclient.RequireAPIKey(sources.IGDB.String(), EnvClientSecret, cfg.Secret); err != nil {
		return nil, err
	}
	return &Client{
		clientID:     cfg.APIKey,
		clientSecret: cfg.Secret,
		baseURL:      cfg.BaseURLOr(DefaultBaseURL),
		authURL:      strings.TrimRight(cfg.AuthURLOr(DefaultAuthURL), "/"),
		transport:    cfg.Transport(sources.IGDB.String()),
		now:          time.Now,
	}, nil
}

// ID returns the source identifier.
func (c *Client) ID() sources.ID {
	return sources.IGDB
}

// Search queries the games endpoint. A rejected token is refreshed once.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]games.Candidate, error) {
	body := buildQuery(name, baseclient.Limit(limit))

	results, err := c.query(ctx, body)
	if errors.IsAPIKeyError(err) {
		logging.FromContext(ctx).Debug().Str("source", sources.IGDB.String()).Msg("Access token rejected, re-authenticating")
		c.invalidate()
		results, err = c.query(ctx, body)
	}
	if err != nil {
		return nil, err
	}

	candidates := make([]games.Candidate, 0, len(results))
	for _, g := range results {
		candidates = append(candidates, convert(g))
	}
	return candidates, nil
}

func (c *Client) query(ctx context.Context, body string) ([]game, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, transport.URL(c.baseURL, "/v4/games", nil), strings.NewReader(body))
	if err != nil {
		return nil, errors.WrapResource("create", "request", "igdb games", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var results []game
	if err := transport.DecodeJSON(sources.IGDB.String(), resp, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// accessToken returns the cached token, fetching a new one when it is
// missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expires) {
		return c.token, nil
	}

	query := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	resp, err := c.transport.Post(ctx, transport.URL(c.authURL, "/oauth2/token", query), "application/x-www-form-urlencoded", nil)
	if err != nil {
		return "", err
	}
	var tok tokenResponse
	if err := transport.DecodeJSON(sources.IGDB.String(), resp, &tok); err != nil {
		if errors.IsProtocol(err) && !errors.IsRateLimited(err) {
			return "", &errors.AuthenticationError{Provider: sources.IGDB.String(), Method: "client_credentials", Message: "token request failed", Err: err}
		}
		return "", err
	}
	if tok.AccessToken == "" {
		return "", &errors.AuthenticationError{Provider: sources.IGDB.String(), Method: "client_credentials", Message: "empty access token"}
	}

	c.token = tok.AccessToken
	c.expires = c.now().Add(time.Duration(tok.ExpiresIn)*time.Second - constants.TokenExpiryLeeway)
	return c.token, nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

func buildQuery(name string, limit int) string {
	escaped := strings.ReplaceAll(name, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return fmt.Sprintf("fields %s;\nsearch \"%s\";\nlimit %d;\n", queryFields, escaped, limit)
}

func convert(g game) games.Candidate {
	c := games.Candidate{
		Source:             sources.IGDB.String(),
		ProviderID:         strconv.FormatInt(g.ID, 10),
		Name:               g.Name,
		Description:        g.Summary,
		Platforms:          baseclient.Names(g.Platforms, nameOf),
		Genres:             baseclient.Names(g.Genres, nameOf),
		Keywords:           baseclient.Names(g.Keywords, nameOf),
		Themes:             baseclient.Names(g.Themes, nameOf),
		GameModes:          baseclient.Names(g.GameModes, nameOf),
		PlayerPerspectives: baseclient.Names(g.PlayerPerspectives, nameOf),
	}
	if g.Rating != nil {
		c.Rating = games.Ratio(*g.Rating, 100)
	}
	if g.FirstReleaseDate != nil {
		c.ReleaseDate = time.Unix(*g.FirstReleaseDate, 0).UTC().Format(constants.DateFormat)
	}
	if g.GameType != nil {
		c.GameType = g.GameType.Type
	}
	if g.Cover != nil && g.Cover.URL != "" {
		c.CoverURL = g.Cover.URL
		if strings.HasPrefix(c.CoverURL, "//") {
			c.CoverURL = "https:" + c.CoverURL
		}
	}

	// IGDB lists one language support per kind (audio, subtitles, interface).
	seen := make(map[string]bool)
	for _, ls := range g.LanguageSupports {
		if ls.Language == nil || ls.Language.Name == "" || seen[ls.Language.Name] {
			continue
		}
		seen[ls.Language.Name] = true
		c.LanguageSupports = append(c.LanguageSupports, ls.Language.Name)
	}
	return c
}

func nameOf(n named) string { return n.Name }
