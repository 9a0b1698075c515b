package baseclient

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agentstation/gamemeta/pkg/constants"
)

// StripHTML returns the visible text of an HTML fragment with paragraphs
// separated by blank lines. Plain text passes through unchanged.
func StripHTML(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.Contains(fragment, "<") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var parts []string
	blocks := doc.Find("p, li, h1, h2, h3, h4, h5, h6")
	if blocks.Length() == 0 {
		return collapse(doc.Text())
	}
	blocks.Each(func(_ int, s *goquery.Selection) {
		if text := collapse(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Names flattens a list of named objects, dropping empty names.
func Names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if n := strings.TrimSpace(name(item)); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// ReformatDate parses value with layout and returns it as YYYY-MM-DD.
// Unparsable values are returned trimmed and unchanged.
func ReformatDate(value, layout string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	t, err := time.Parse(layout, value)
	if err != nil {
		return value
	}
	return t.Format(constants.DateFormat)
}

// Limit clamps limit to at least one.
func Limit(limit int) int {
	if limit < 1 {
		return 1
	}
	return limit
}
