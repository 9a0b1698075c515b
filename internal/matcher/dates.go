package matcher

import (
	"strings"
	"time"

	"github.com/agentstation/gamemeta/pkg/constants"
)

var dateLayouts = []string{
	constants.DateFormat,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
	"2006",
}

// ParseYear extracts the year of a release date in any supported layout.
func ParseYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// DatesCorroborate reports whether two release dates are within
// constants.MaxYearDrift years of each other. Empty or unparsable dates never
// corroborate.
func DatesCorroborate(a, b string) bool {
	ya, ok := ParseYear(a)
	if !ok {
		return false
	}
	yb, ok := ParseYear(b)
	if !ok {
		return false
	}
	drift := ya - yb
	if drift < 0 {
		drift = -drift
	}
	return drift <= constants.MaxYearDrift
}
