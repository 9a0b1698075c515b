package table

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/gamemeta/pkg/provenance"
)

// ProvenanceToTableData converts the provenance of one entity to table format.
// Fields are sorted by name and each field's history newest first.
func ProvenanceToTableData(fieldProvenance map[string][]provenance.Provenance) Data {
	var rows [][]string

	fields := make([]string, 0, len(fieldProvenance))
	for field := range fieldProvenance {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		history := fieldProvenance[field]
		if len(history) == 0 {
			continue
		}

		sorted := make([]provenance.Provenance, len(history))
		copy(sorted, history)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.After(sorted[j].Timestamp)
		})

		for i, entry := range sorted {
			fieldName, current := "", ""
			if i == 0 {
				fieldName, current = field, "→"
			}
			rows = append(rows, []string{
				fieldName,
				current,
				formatValueAsYAML(entry.Value),
				entry.Source,
				entry.Reason,
				formatTimestamp(entry.Timestamp),
			})
		}
	}

	return Data{
		Headers:         []string{"Field", "Curr", "Value", "Source", "Reason", "When"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignCenter, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}
}

// MatchField reports whether field matches any of the glob patterns,
// ignoring case. No patterns match everything.
func MatchField(field string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	field = strings.ToLower(field)
	for _, pattern := range patterns {
		if matched, err := filepath.Match(strings.ToLower(pattern), field); err == nil && matched {
			return true
		}
	}
	return false
}

// formatValueAsYAML formats a provenance value for display. Lists are
// rendered as flow YAML so they stay on one line.
func formatValueAsYAML(val any) string {
	switch v := val.(type) {
	case nil:
		return "<nil>"
	case string:
		if v == "" {
			return "<empty>"
		}
		return Truncate(v, maxDescription)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case *float64:
		return FormatRatio(v)
	}

	data, err := yaml.MarshalWithOptions(val, yaml.Flow(true))
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(data), "\n")
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d hr ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02 15:04")
}
