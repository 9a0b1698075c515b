// Package sources defines the provider contract every game metadata source
// implements, the identifiers of the known sources and their fixed order.
//
// The order matters: the first source is the anchor whose accepted candidate
// usually establishes the identity reference, and the reconciler's authority
// table refers to sources by these IDs.
//
// Example usage:
//
//	set := sources.NewSet()
//	set.Set(sources.RAWG, rawgClient)
//	for _, p := range set.Ordered() {
//	    candidates, err := p.Search(ctx, "Hades", 1)
//	    ...
//	}
package sources

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
)

// ID represents the identifier of a data source.
type ID string

// String returns the string representation of a source name.
func (id ID) String() string {
	return string(id)
}

// Known sources.
const (
	RAWG       ID = "rawg"
	IGDB       ID = "igdb"
	HLTB       ID = "hltb"
	GameSpot   ID = "gamespot"
	Metacritic ID = "metacritic"
)

// IDs returns all sources in their fixed processing order.
func IDs() []ID {
	return []ID{RAWG, IGDB, HLTB, GameSpot, Metacritic}
}

// IsValid returns true if the ID is one of the defined constants.
func (id ID) IsValid() bool {
	return slices.Contains(IDs(), id)
}

// ParseIDs parses a comma separated list of source names.
// An empty list selects every source.
func ParseIDs(list []string) ([]ID, error) {
	if len(list) == 0 {
		return IDs(), nil
	}
	seen := make(map[ID]bool, len(list))
	for _, raw := range list {
		for _, part := range strings.Split(raw, ",") {
			id := ID(strings.ToLower(strings.TrimSpace(part)))
			if id == "" {
				continue
			}
			if !id.IsValid() {
				return nil, errors.NewValidationError("sources", part, "unknown source "+part)
			}
			seen[id] = true
		}
	}
	ids := make([]ID, 0, len(seen))
	for _, id := range IDs() {
		if seen[id] {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Provider searches one external catalogue for candidates matching a name.
type Provider interface {
	// ID returns the source identifier.
	ID() ID

	// Search returns up to limit candidates ordered by the provider's relevance.
	// No results is an empty slice and a nil error.
	Search(ctx context.Context, name string, limit int) ([]games.Candidate, error)
}

// Set is a thread-safe container of providers keyed by source.
type Set struct {
	mu        sync.RWMutex
	providers map[ID]Provider
}

// NewSet creates an empty provider set.
func NewSet() *Set {
	return &Set{providers: make(map[ID]Provider)}
}

// Get returns a provider by ID.
func (s *Set) Get(id ID) (Provider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	return p, ok
}

// Set registers a provider under id.
func (s *Set) Set(id ID, p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[id] = p
}

// Len returns the number of providers.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.providers)
}

// Ordered returns the registered providers in source order.
func (s *Set) Ordered() []Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Provider, 0, len(s.providers))
	for _, id := range IDs() {
		if p, ok := s.providers[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
