// Package reconcile merges the candidates accepted for one entity into a
// canonical record. Reconciliation is pure: for the same entity key and the
// same accepted candidates it always yields an identical record.
package reconcile

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/agentstation/gamemeta/pkg/games"
	"github.com/agentstation/gamemeta/pkg/provenance"
	"github.com/agentstation/gamemeta/pkg/sources"
)

// Namespace is the UUIDv5 namespace of record IDs.
var Namespace = uuid.MustParse("3f0c9a52-6d1e-4b8f-9a7c-2e5d8b41f6a3")

// Accepted holds the candidate each source contributed. A source missing from
// the map is absent: it failed, returned nothing, or was rejected.
type Accepted map[sources.ID]games.Candidate

// Get returns the candidate for a source if it is present.
func (a Accepted) Get(id sources.ID) (games.Candidate, bool) {
	c, ok := a[id]
	return c, ok
}

// Sources returns the present sources in source order.
func (a Accepted) Sources() []sources.ID {
	ids := make([]sources.ID, 0, len(a))
	for _, id := range sources.IDs() {
		if _, ok := a[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Reference returns the candidate that established the identity reference:
// the first present source in source order.
func (a Accepted) Reference() (games.Candidate, sources.ID, bool) {
	for _, id := range sources.IDs() {
		if c, ok := a[id]; ok {
			return c, id, true
		}
	}
	return games.Candidate{}, "", false
}

// Result is a reconciled record together with the origin of each field.
type Result struct {
	Record     games.Record
	Provenance []provenance.Provenance
}

// RecordID returns the deterministic ID of an entity key.
func RecordID(key string) string {
	folded := cases.Fold().String(strings.TrimSpace(key))
	return uuid.NewSHA1(Namespace, []byte(folded)).String()
}

// Reconcile builds the canonical record for key from the accepted candidates.
func Reconcile(key string, accepted Accepted) Result {
	m := merger{accepted: accepted}
	r := games.Record{ID: RecordID(key)}

	r.Name = m.str(FieldName, func(c games.Candidate) string { return c.Name })
	if r.Name == "" {
		r.Name = key
		m.track(FieldName, "", provenance.ReasonFallback, key)
	}

	if ref, id, ok := accepted.Reference(); ok && ref.ReleaseDate != "" {
		r.ReleaseDate = ref.ReleaseDate
		m.track(FieldReleaseDate, string(id), provenance.ReasonReference, ref.ReleaseDate)
	}

	rating := func(c games.Candidate) *float64 { return c.Rating }
	r.RAWGRating = m.num(FieldRAWGRating, rating)
	r.IGDBRating = m.num(FieldIGDBRating, rating)
	r.HLTBRating = m.num(FieldHLTBRating, rating)
	r.MetacriticRating = m.num(FieldMetacriticRating, func(c games.Candidate) *float64 { return c.MetacriticRating })
	r.UserRating = m.num(FieldUserRating, func(c games.Candidate) *float64 { return c.UserRating })

	r.Platforms = m.list(FieldPlatforms, func(c games.Candidate) []string { return c.Platforms })
	r.MainStory = m.num(FieldMainStory, func(c games.Candidate) *float64 { return c.MainStory })
	r.MainExtra = m.num(FieldMainExtra, func(c games.Candidate) *float64 { return c.MainExtra })
	r.Completionist = m.num(FieldCompletionist, func(c games.Candidate) *float64 { return c.Completionist })
	r.CoverURL = m.union(FieldCoverURL, func(c games.Candidate) []string { return nonEmpty(c.CoverURL) })
	r.Developers = m.list(FieldDevelopers, func(c games.Candidate) []string { return c.Developers })
	r.Publishers = m.list(FieldPublishers, func(c games.Candidate) []string { return c.Publishers })
	r.Description = m.str(FieldDescription, func(c games.Candidate) string { return c.Description })
	r.LanguageSupports = m.list(FieldLanguageSupports, func(c games.Candidate) []string { return c.LanguageSupports })
	r.Genres = m.union(FieldGenres, func(c games.Candidate) []string { return c.Genres })
	r.Keywords = m.union(FieldKeywords, keywords)

	return Result{Record: r, Provenance: m.provenance}
}

// keywords folds every tag-like attribute of a candidate into one list.
func keywords(c games.Candidate) []string {
	out := make([]string, 0, len(c.Keywords)+len(c.Themes)+len(c.GameModes)+len(c.PlayerPerspectives)+1)
	out = append(out, c.Keywords...)
	out = append(out, c.Themes...)
	out = append(out, c.GameModes...)
	out = append(out, c.PlayerPerspectives...)
	if c.ContentRating != "" {
		out = append(out, c.ContentRating)
	}
	return out
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

type merger struct {
	accepted   Accepted
	provenance []provenance.Provenance
}

func (m *merger) track(field, source, reason string, value any) {
	m.provenance = append(m.provenance, provenance.Provenance{
		Field:  field,
		Source: source,
		Reason: reason,
		Value:  value,
	})
}

// candidates yields the present candidates of a field's authority in priority order.
func (m *merger) candidates(field string) ([]sources.ID, []games.Candidate) {
	auth := AuthorityByField(field)
	if auth == nil {
		return nil, nil
	}
	var ids []sources.ID
	var cs []games.Candidate
	for _, id := range auth.Sources {
		if c, ok := m.accepted.Get(id); ok {
			ids = append(ids, id)
			cs = append(cs, c)
		}
	}
	return ids, cs
}

func reasonFor(field string) string {
	auth := AuthorityByField(field)
	if auth != nil && len(auth.Sources) == 1 {
		return provenance.ReasonSingleSource
	}
	return provenance.ReasonFirstNonEmpty
}

func (m *merger) str(field string, get func(games.Candidate) string) string {
	ids, cs := m.candidates(field)
	for i, c := range cs {
		if v := strings.TrimSpace(get(c)); v != "" {
			m.track(field, string(ids[i]), reasonFor(field), v)
			return v
		}
	}
	return ""
}

func (m *merger) num(field string, get func(games.Candidate) *float64) *float64 {
	ids, cs := m.candidates(field)
	for i, c := range cs {
		if v := get(c); v != nil {
			out := *v
			reason := reasonFor(field)
			if reason == provenance.ReasonFirstNonEmpty {
				reason = provenance.ReasonFirstAvailable
			}
			m.track(field, string(ids[i]), reason, out)
			return &out
		}
	}
	return nil
}

func (m *merger) list(field string, get func(games.Candidate) []string) []string {
	ids, cs := m.candidates(field)
	for i, c := range cs {
		if v := dedupe(get(c)); len(v) > 0 {
			m.track(field, string(ids[i]), reasonFor(field), v)
			return v
		}
	}
	return nil
}

func (m *merger) union(field string, get func(games.Candidate) []string) []string {
	ids, cs := m.candidates(field)
	var all []string
	var contributors []string
	for i, c := range cs {
		v := get(c)
		if len(dedupe(v)) == 0 {
			continue
		}
		contributors = append(contributors, string(ids[i]))
		all = append(all, v...)
	}
	out := dedupe(all)
	if len(out) > 0 {
		m.track(field, strings.Join(contributors, ","), provenance.ReasonUnion, out)
	}
	return out
}

// dedupe trims items, drops empties and case-insensitive duplicates while
// keeping the first spelling seen. It returns nil for an empty result.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	fold := cases.Fold()
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := fold.String(item)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
