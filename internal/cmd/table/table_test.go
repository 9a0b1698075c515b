package table

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/provenance"
)

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Data{
		Headers:         []string{"Name", "Score"},
		Rows:            [][]string{{"Alpha Game", "0.80"}, {"Beta Game"}},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Alpha Game")
	assert.Contains(t, out, "0.80")
	assert.Contains(t, out, "╭")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)
}

func TestRenderNoHeaders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Data{Rows: [][]string{{"x"}}}))
	assert.Empty(t, buf.String())
}

func TestRecordsToTableData(t *testing.T) {
	records := []games.Record{{
		Name:        "Alpha Game",
		ReleaseDate: "2020-01-01",
		RAWGRating:  games.Float(0.8),
		Genres:      []string{"Action", "Adventure", "RPG", "Indie"},
		MainStory:   games.Float(12.5),
		Description: "A long   description\nover lines",
	}}

	narrow := RecordsToTableData(records, false)
	require.Len(t, narrow.Rows, 1)
	assert.Len(t, narrow.Headers, len(narrow.Rows[0]))
	assert.Equal(t, []string{"Alpha Game", "2020-01-01", "0.80", "-", "-", "-", "-", "Action, Adventure, RPG +1"}, narrow.Rows[0])

	wide := RecordsToTableData(records, true)
	assert.Len(t, wide.Headers, len(wide.Rows[0]))
	assert.Equal(t, "12.5h", wide.Rows[0][8])
	assert.Equal(t, "A long description over lines", wide.Rows[0][12])
}

func TestCandidatesToTableData(t *testing.T) {
	data := CandidatesToTableData([]games.Candidate{
		{Name: "Alpha Game", Rating: games.Float(0.912)},
		{Name: "Alpha Game 2"},
	})
	require.Len(t, data.Rows, 2)
	assert.Equal(t, []string{"1", "Alpha Game", "-", "0.91", "-", "-"}, data.Rows[0])
	assert.Equal(t, "2", data.Rows[1][0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "-", Truncate("  ", 10))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
}

func TestProvenanceToTableData(t *testing.T) {
	now := time.Now()
	data := ProvenanceToTableData(map[string][]provenance.Provenance{
		"name": {
			{Field: "name", Source: "igdb", Reason: provenance.ReasonFirstNonEmpty, Value: "Alpha", Timestamp: now.Add(-2 * time.Hour)},
			{Field: "name", Source: "rawg", Reason: provenance.ReasonFirstNonEmpty, Value: "Alpha Game", Timestamp: now},
		},
		"genres": {
			{Field: "genres", Source: "rawg,igdb", Reason: provenance.ReasonUnion, Value: []string{"Action", "RPG"}},
		},
	})

	require.Len(t, data.Rows, 3)
	assert.Equal(t, []string{"genres", "→", "[Action, RPG]", "rawg,igdb", provenance.ReasonUnion, "-"}, data.Rows[0])
	assert.Equal(t, "name", data.Rows[1][0])
	assert.Equal(t, "rawg", data.Rows[1][3], "newest entry first")
	assert.Equal(t, "", data.Rows[2][0])
	assert.Equal(t, "2 hr ago", data.Rows[2][5])
}

func TestMatchField(t *testing.T) {
	assert.True(t, MatchField("igdb_rating", nil))
	assert.True(t, MatchField("igdb_rating", []string{"*_rating"}))
	assert.True(t, MatchField("Name", []string{"name"}))
	assert.False(t, MatchField("genres", []string{"*_rating", "name"}))
}
