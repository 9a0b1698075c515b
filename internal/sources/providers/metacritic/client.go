// Package metacritic provides a client for the Metacritic backend. A search
// runs in two steps: the finder resolves a name to product slugs, then the
// composer page of each game slug supplies its details and scores.
package metacritic

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/agentstation/gamemeta/internal/matcher"
	"github.com/agentstation/gamemeta/internal/sources/providers/baseclient"
	"github.com/agentstation/gamemeta/internal/sources/providers/registry"
	"github.com/agentstation/gamemeta/internal/transport"
	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/logging"
	"github.com/agentstation/gamemeta/pkg/sources"
)

const (
	// DefaultBaseURL is the Metacritic backend root.
	DefaultBaseURL = "https://backend.metacritic.com"
	// EnvAPIKey names the environment variable holding the API key.
	EnvAPIKey = "METACRITIC_API_KEY"

	// extraResults widens the finder query so ranking has room to work.
	extraResults = 5
)

// Positions of the composer page components this client reads.
const (
	componentProduct     = 0
	componentCriticScore = 6
	componentUserScore   = 8
)

func init() {
	registry.Register(sources.Metacritic, func(cfg baseclient.Config) (sources.Provider, error) {
		return NewClient(cfg)
	})
}

type finderResponse struct {
	Data *struct {
		TotalResults int `json:"totalResults"`
		Items        []struct {
			ID    int64  `json:"id"`
			Type  string `json:"type"`
			Title string `json:"title"`
			Slug  string `json:"slug"`
		} `json:"items"`
	} `json:"data"`
}

type composerResponse struct {
	Components []struct {
		Meta struct {
			ComponentName string `json:"componentName"`
		} `json:"meta"`
		Data struct {
			Item json.RawMessage `json:"item"`
		} `json:"data"`
	} `json:"components"`
}

type named struct {
	Name string `json:"name"`
}

type product struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"releaseDate"`
	Description string `json:"description"`
	Production  struct {
		Companies []struct {
			Name     string `json:"name"`
			TypeName string `json:"typeName"`
		} `json:"companies"`
	} `json:"production"`
	Genres    []named `json:"genres"`
	Platforms []named `json:"platforms"`
}

type score struct {
	Score *float64 `json:"score"`
	Max   float64  `json:"max"`
}

// Client implements sources.Provider for Metacritic.
type Client struct {
	apiKey    string
	baseURL   string
	transport *transport.Client
}

// NewClient creates a Metacritic client. The API key is required.
func NewClient(cfg baseclient.Config) (*Client, error) {
	if err := baseclient.RequireAPIKey(sources.Metacritic.String(), EnvAPIKey, cfg.APIKey); err != nil {
		return nil, err
	}
	return &Client{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURLOr(DefaultBaseURL),
		transport: cfg.Transport(sources.Metacritic.String()),
	}, nil
}

// ID returns the source identifier.
func (c *Client) ID() sources.ID {
	return sources.Metacritic
}

// Search resolves name through the finder and loads each game-title hit.
// Results are ordered by name similarity and cut to limit.
func (c *Client) Search(ctx context.Context, name string, limit int) ([]games.Candidate, error) {
	limit = baseclient.Limit(limit)

	query := url.Values{
		"apiKey": {c.apiKey},
		"limit":  {strconv.Itoa(limit + extraResults)},
		"offset": {"0"},
	}
	path := "/finder/metacritic/search/" + url.PathEscape(name) + "/web"

	var found finderResponse
	if err := c.transport.GetJSON(ctx, transport.URL(c.baseURL, path, query), &found); err != nil {
		return nil, err
	}
	if found.Data == nil {
		return []games.Candidate{}, nil
	}

	candidates := make([]games.Candidate, 0, len(found.Data.Items))
	for _, item := range found.Data.Items {
		if item.Type != "game-title" || item.Slug == "" {
			continue
		}
		candidate, ok, err := c.game(ctx, item.Slug)
		if err != nil {
			return nil, err
		}
		if !ok {
			logging.FromContext(ctx).Debug().Str("slug", item.Slug).Msg("Composer page has no components, skipping")
			continue
		}
		if candidate.Name == "" {
			candidate.Name = item.Title
		}
		candidates = append(candidates, candidate)
	}

	matcher.SortBySimilarity(name, candidates, func(c games.Candidate) string { return c.Name })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// game loads the composer page for slug. It reports false when the page
// lacks the product component.
func (c *Client) game(ctx context.Context, slug string) (games.Candidate, bool, error) {
	path := "/composer/metacritic/pages/games/" + url.PathEscape(slug) + "/web"
	var page composerResponse
	if err := c.transport.GetJSON(ctx, transport.URL(c.baseURL, path, url.Values{"contentOnly": {"true"}}), &page); err != nil {
		return games.Candidate{}, false, err
	}

	var p product
	if !page.item(componentProduct, &p) {
		return games.Candidate{}, false, nil
	}

	candidate := games.Candidate{
		Source:      sources.Metacritic.String(),
		ProviderID:  slug,
		Name:        p.Title,
		ReleaseDate: p.ReleaseDate,
		Description: p.Description,
		Genres:      baseclient.Names(p.Genres, nameOf),
		Platforms:   baseclient.Names(p.Platforms, nameOf),
	}
	for _, company := range p.Production.Companies {
		switch company.TypeName {
		case "Developer":
			candidate.Developers = append(candidate.Developers, company.Name)
		case "Publisher":
			candidate.Publishers = append(candidate.Publishers, company.Name)
		}
	}

	var critic, user score
	if page.item(componentCriticScore, &critic) && critic.Score != nil {
		candidate.MetacriticRating = games.Ratio(*critic.Score, critic.Max)
	}
	if page.item(componentUserScore, &user) && user.Score != nil {
		candidate.UserRating = games.Ratio(*user.Score, user.Max)
	}
	return candidate, true, nil
}

// item decodes component i into target, reporting false when the component
// is absent or malformed.
func (r composerResponse) item(i int, target any) bool {
	if i >= len(r.Components) {
		return false
	}
	raw := r.Components[i].Data.Item
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, target) == nil
}

func nameOf(n named) string { return n.Name }
