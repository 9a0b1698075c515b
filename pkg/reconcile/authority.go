package reconcile

import (
	"github.com/agentstation/gamemeta/pkg/provenance"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// Rule is how a field's value is chosen among the accepted candidates.
type Rule int

const (
	// FirstNonEmpty takes the value of the first source in order that has one.
	FirstNonEmpty Rule = iota
	// Union concatenates the values of every source in order, deduplicated.
	Union
	// FromReference takes the value of the identity reference candidate.
	FromReference
)

// Reason returns the provenance reason recorded for a rule.
func (r Rule) Reason() string {
	switch r {
	case Union:
		return provenance.ReasonUnion
	case FromReference:
		return provenance.ReasonReference
	default:
		return provenance.ReasonFirstNonEmpty
	}
}

// FieldAuthority defines the source priority for one record field.
type FieldAuthority struct {
	Field   string       `json:"field" yaml:"field"`
	Rule    Rule         `json:"rule" yaml:"rule"`
	Sources []sources.ID `json:"sources" yaml:"sources"` // highest priority first
}

// Record fields, named after their persisted columns.
const (
	FieldName             = "name"
	FieldReleaseDate      = "release_date"
	FieldRAWGRating       = "rawg_rating"
	FieldIGDBRating       = "igdb_rating"
	FieldHLTBRating       = "hltb_rating"
	FieldMetacriticRating = "metacritic_rating"
	FieldUserRating       = "user_rating"
	FieldPlatforms        = "platforms"
	FieldMainStory        = "main_story"
	FieldMainExtra        = "main_extra"
	FieldCompletionist    = "completionist"
	FieldCoverURL         = "cover_url"
	FieldDevelopers       = "developers"
	FieldPublishers       = "publishers"
	FieldDescription      = "description"
	FieldLanguageSupports = "language_supports"
	FieldGenres           = "genres"
	FieldKeywords         = "keywords"
)

var defaultAuthorities = []FieldAuthority{
	{Field: FieldName, Rule: FirstNonEmpty, Sources: sources.IDs()},
	{Field: FieldReleaseDate, Rule: FromReference, Sources: sources.IDs()},
	{Field: FieldRAWGRating, Rule: FirstNonEmpty, Sources: []sources.ID{sources.RAWG}},
	{Field: FieldIGDBRating, Rule: FirstNonEmpty, Sources: []sources.ID{sources.IGDB}},
	{Field: FieldHLTBRating, Rule: FirstNonEmpty, Sources: []sources.ID{sources.HLTB}},
	{Field: FieldMetacriticRating, Rule: FirstNonEmpty, Sources: []sources.ID{sources.Metacritic, sources.RAWG}},
	{Field: FieldUserRating, Rule: FirstNonEmpty, Sources: []sources.ID{sources.Metacritic}},
	{Field: FieldPlatforms, Rule: FirstNonEmpty, Sources: []sources.ID{sources.RAWG, sources.IGDB, sources.Metacritic, sources.HLTB}},
	{Field: FieldMainStory, Rule: FirstNonEmpty, Sources: []sources.ID{sources.HLTB, sources.RAWG}},
	{Field: FieldMainExtra, Rule: FirstNonEmpty, Sources: []sources.ID{sources.HLTB}},
	{Field: FieldCompletionist, Rule: FirstNonEmpty, Sources: []sources.ID{sources.HLTB}},
	{Field: FieldCoverURL, Rule: Union, Sources: []sources.ID{sources.IGDB, sources.GameSpot, sources.RAWG}},
	{Field: FieldDevelopers, Rule: FirstNonEmpty, Sources: []sources.ID{sources.RAWG, sources.Metacritic}},
	{Field: FieldPublishers, Rule: FirstNonEmpty, Sources: []sources.ID{sources.RAWG, sources.Metacritic}},
	{Field: FieldDescription, Rule: FirstNonEmpty, Sources: []sources.ID{sources.RAWG, sources.IGDB}},
	{Field: FieldLanguageSupports, Rule: FirstNonEmpty, Sources: []sources.ID{sources.IGDB}},
	{Field: FieldGenres, Rule: Union, Sources: []sources.ID{sources.RAWG, sources.IGDB, sources.GameSpot, sources.Metacritic}},
	{Field: FieldKeywords, Rule: Union, Sources: []sources.ID{sources.RAWG, sources.IGDB, sources.GameSpot}},
}

// Authorities returns a copy of the field authority table in column order.
func Authorities() []FieldAuthority {
	out := make([]FieldAuthority, len(defaultAuthorities))
	for i, a := range defaultAuthorities {
		a.Sources = append([]sources.ID(nil), a.Sources...)
		out[i] = a
	}
	return out
}

// AuthorityByField returns the authority for a field, or nil if the field is unknown.
func AuthorityByField(field string) *FieldAuthority {
	for i := range defaultAuthorities {
		if defaultAuthorities[i].Field == field {
			a := defaultAuthorities[i]
			a.Sources = append([]sources.ID(nil), a.Sources...)
			return &a
		}
	}
	return nil
}
