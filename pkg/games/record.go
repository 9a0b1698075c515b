package games

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/agentstation/gamemeta/pkg/errors"
)

// Record is the canonical reconciled view of one game. Optional numerics are
// nil when no accepted source supplied them.
type Record struct {
	ID               string
	Name             string
	ReleaseDate      string
	RAWGRating       *float64
	IGDBRating       *float64
	HLTBRating       *float64
	MetacriticRating *float64
	UserRating       *float64
	Platforms        []string
	MainStory        *float64
	MainExtra        *float64
	Completionist    *float64
	CoverURL         []string
	Developers       []string
	Publishers       []string
	Description      string
	LanguageSupports []string
	Genres           []string
	Keywords         []string
}

// Columns is the fixed column order of a persisted record.
var Columns = []string{
	"id",
	"name",
	"release_date",
	"rawg_rating",
	"igdb_rating",
	"hltb_rating",
	"metacritic_rating",
	"user_rating",
	"platforms",
	"main_story",
	"main_extra",
	"completionist",
	"cover_url",
	"developers",
	"publishers",
	"description",
	"language_supports",
	"genres",
	"keywords",
}

// Row serialises the record in Columns order. Absent numerics become empty
// cells and lists become JSON arrays.
func (r Record) Row() []string {
	return []string{
		r.ID,
		r.Name,
		r.ReleaseDate,
		formatFloat(r.RAWGRating),
		formatFloat(r.IGDBRating),
		formatFloat(r.HLTBRating),
		formatFloat(r.MetacriticRating),
		formatFloat(r.UserRating),
		formatList(r.Platforms),
		formatFloat(r.MainStory),
		formatFloat(r.MainExtra),
		formatFloat(r.Completionist),
		formatList(r.CoverURL),
		formatList(r.Developers),
		formatList(r.Publishers),
		r.Description,
		formatList(r.LanguageSupports),
		formatList(r.Genres),
		formatList(r.Keywords),
	}
}

// ParseRow rebuilds a record from a row, using header to locate columns.
// Unknown columns are ignored and missing columns stay empty.
func ParseRow(header, row []string) (Record, error) {
	var r Record
	for i, col := range header {
		if i >= len(row) {
			break
		}
		if err := r.set(col, row[i]); err != nil {
			return Record{}, errors.NewParseError("csv", "", "column "+col+": "+err.Error(), err)
		}
	}
	return r, nil
}

func (r *Record) set(col, cell string) error {
	var err error
	switch col {
	case "id":
		r.ID = cell
	case "name":
		r.Name = cell
	case "release_date":
		r.ReleaseDate = cell
	case "description":
		r.Description = cell
	case "rawg_rating":
		r.RAWGRating, err = parseFloat(cell)
	case "igdb_rating":
		r.IGDBRating, err = parseFloat(cell)
	case "hltb_rating":
		r.HLTBRating, err = parseFloat(cell)
	case "metacritic_rating":
		r.MetacriticRating, err = parseFloat(cell)
	case "user_rating":
		r.UserRating, err = parseFloat(cell)
	case "main_story":
		r.MainStory, err = parseFloat(cell)
	case "main_extra":
		r.MainExtra, err = parseFloat(cell)
	case "completionist":
		r.Completionist, err = parseFloat(cell)
	case "platforms":
		r.Platforms, err = parseList(cell)
	case "cover_url":
		r.CoverURL, err = parseList(cell)
	case "developers":
		r.Developers, err = parseList(cell)
	case "publishers":
		r.Publishers, err = parseList(cell)
	case "language_supports":
		r.LanguageSupports, err = parseList(cell)
	case "genres":
		r.Genres, err = parseList(cell)
	case "keywords":
		r.Keywords, err = parseList(cell)
	}
	return err
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseFloat(cell string) (*float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func parseList(cell string) ([]string, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "[]" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(cell), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}
