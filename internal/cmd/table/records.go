package table

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/agentstation/gamemeta/pkg/games"
)

const (
	maxDescription = 80
	maxListItems   = 3
)

// RecordsToTableData converts reconciled records to table format. The wide
// layout adds the play times, the people and the description.
func RecordsToTableData(records []games.Record, wide bool) Data {
	headers := []string{"Name", "Released", "RAWG", "IGDB", "HLTB", "Metacritic", "User", "Genres"}
	aligns := []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft}
	if wide {
		headers = append(headers, "Main", "Extra", "Complete", "Developers", "Description")
		aligns = append(aligns, AlignRight, AlignRight, AlignRight, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{
			orDash(r.Name),
			orDash(r.ReleaseDate),
			FormatRatio(r.RAWGRating),
			FormatRatio(r.IGDBRating),
			FormatRatio(r.HLTBRating),
			FormatRatio(r.MetacriticRating),
			FormatRatio(r.UserRating),
			FormatList(r.Genres),
		}
		if wide {
			row = append(row,
				FormatHours(r.MainStory),
				FormatHours(r.MainExtra),
				FormatHours(r.Completionist),
				FormatList(r.Developers),
				Truncate(r.Description, maxDescription),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: aligns}
}

// CandidatesToTableData converts the candidates of one provider search to table format.
func CandidatesToTableData(candidates []games.Candidate) Data {
	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			orDash(c.Name),
			orDash(c.ReleaseDate),
			FormatRatio(c.Rating),
			FormatList(c.Platforms),
			FormatList(c.Genres),
		})
	}
	return Data{
		Headers:         []string{"#", "Name", "Released", "Rating", "Platforms", "Genres"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft},
	}
}

// FormatRatio formats a normalized rating with two decimals.
func FormatRatio(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// FormatHours formats a play time in hours.
func FormatHours(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1fh", *v)
}

// FormatList joins the first items of a list and counts the rest.
func FormatList(items []string) string {
	switch {
	case len(items) == 0:
		return "-"
	case len(items) <= maxListItems:
		return strings.Join(items, ", ")
	default:
		return fmt.Sprintf("%s +%d", strings.Join(items[:maxListItems], ", "), len(items)-maxListItems)
	}
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "-"
	}
	if text.RuneWidthWithoutEscSequences(s) <= n {
		return s
	}
	return text.Trim(s, n-3) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
