// Package games defines the domain types shared across gamemeta: the raw
// candidate a provider returns for a search and the canonical record the
// reconciler produces from the accepted candidates.
package games

// Candidate is one provider's view of a possible match for an entity.
// All units are normalised by the provider client: ratings are in [0,1],
// playtimes are hours and dates are YYYY-MM-DD (or a bare year).
type Candidate struct {
	Source      string `json:"source" yaml:"source"`
	ProviderID  string `json:"provider_id,omitempty" yaml:"provider_id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	ReleaseDate string `json:"release_date,omitempty" yaml:"release_date,omitempty"`

	Rating           *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	MetacriticRating *float64 `json:"metacritic_rating,omitempty" yaml:"metacritic_rating,omitempty"`
	UserRating       *float64 `json:"user_rating,omitempty" yaml:"user_rating,omitempty"`

	Platforms          []string `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	Genres             []string `json:"genres,omitempty" yaml:"genres,omitempty"`
	Keywords           []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Themes             []string `json:"themes,omitempty" yaml:"themes,omitempty"`
	GameModes          []string `json:"game_modes,omitempty" yaml:"game_modes,omitempty"`
	PlayerPerspectives []string `json:"player_perspectives,omitempty" yaml:"player_perspectives,omitempty"`
	ContentRating      string   `json:"content_rating,omitempty" yaml:"content_rating,omitempty"`
	LanguageSupports   []string `json:"language_supports,omitempty" yaml:"language_supports,omitempty"`

	MainStory     *float64 `json:"main_story,omitempty" yaml:"main_story,omitempty"`
	MainExtra     *float64 `json:"main_extra,omitempty" yaml:"main_extra,omitempty"`
	Completionist *float64 `json:"completionist,omitempty" yaml:"completionist,omitempty"`

	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	Developers  []string `json:"developers,omitempty" yaml:"developers,omitempty"`
	Publishers  []string `json:"publishers,omitempty" yaml:"publishers,omitempty"`
	GameType    string   `json:"game_type,omitempty" yaml:"game_type,omitempty"`
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}

// Ratio converts a score on a 0..max scale into [0,1].
// A non-positive max yields nil.
func Ratio(score, max float64) *float64 {
	if max <= 0 {
		return nil
	}
	return Float(score / max)
}
