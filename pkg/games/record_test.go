package games_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/pkg/errors"
	"github.com/agentstation/gamemeta/pkg/games"
)

func TestRowColumnOrder(t *testing.T) {
	r := games.Record{
		ID:          "id-1",
		Name:        "Alpha Game",
		ReleaseDate: "2020-05-01",
		RAWGRating:  games.Float(0.8),
		Platforms:   []string{"PC", "Switch"},
		MainStory:   games.Float(12.5),
		Description: "A game, with \"quotes\"\nand newlines",
	}

	row := r.Row()
	require.Len(t, row, len(games.Columns))
	assert.Equal(t, "id-1", row[0])
	assert.Equal(t, "Alpha Game", row[1])
	assert.Equal(t, "0.8", row[3])
	assert.Equal(t, "", row[4], "absent rating is an empty cell, not 0")
	assert.Equal(t, `["PC","Switch"]`, row[8])
	assert.Equal(t, "12.5", row[9])
	assert.Equal(t, "[]", row[12])
}

func TestParseRowRestoresRecord(t *testing.T) {
	original := games.Record{
		ID:               "id-2",
		Name:             "Beta Game",
		HLTBRating:       games.Float(0.75),
		UserRating:       games.Float(0),
		Genres:           []string{"Action", "RPG"},
		Keywords:         []string{"souls-like"},
		LanguageSupports: []string{"English"},
	}

	parsed, err := games.ParseRow(games.Columns, original.Row())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
	require.NotNil(t, parsed.UserRating, "a stored zero stays present")
}

func TestParseRowHeaderMapping(t *testing.T) {
	header := []string{"name", "extra", "igdb_rating"}
	parsed, err := games.ParseRow(header, []string{"Gamma", "ignored", "0.5"})
	require.NoError(t, err)
	assert.Equal(t, "Gamma", parsed.Name)
	require.NotNil(t, parsed.IGDBRating)
	assert.InDelta(t, 0.5, *parsed.IGDBRating, 1e-9)

	_, err = games.ParseRow([]string{"main_story"}, []string{"long"})
	require.Error(t, err)
	assert.True(t, errors.IsProtocol(err))
}

func TestRatio(t *testing.T) {
	assert.Nil(t, games.Ratio(5, 0))
	assert.InDelta(t, 0.87, *games.Ratio(87, 100), 1e-9)
}
