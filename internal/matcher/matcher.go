// Package matcher decides whether a candidate returned by a provider refers to
// the same game as the entity being processed. Names are compared with a
// normalised edit-distance similarity and, for weaker name matches, release
// years must corroborate the identity reference.
package matcher

import (
	"cmp"
	"slices"

	"github.com/agentstation/gamemeta/pkg/constants"
	"github.com/agentstation/gamemeta/pkg/games"
)

// Verdict is the outcome of evaluating one candidate against a reference.
type Verdict int

const (
	// Rejected candidates contribute nothing.
	Rejected Verdict = iota
	// Weak candidates have a plausible name and a corroborating date.
	Weak
	// Strong candidates have a near-identical name.
	Strong
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	default:
		return "rejected"
	}
}

// Accepted reports whether the candidate may contribute fields.
func (v Verdict) Accepted() bool {
	return v == Strong || v == Weak
}

// Reference is the identity candidates are compared against.
type Reference struct {
	Name        string
	ReleaseDate string
}

// NewReference returns the reference used before any source was accepted:
// the entity key with no date.
func NewReference(key string) Reference {
	return Reference{Name: key}
}

// FromCandidate returns the reference established by an accepted candidate.
func FromCandidate(c games.Candidate) Reference {
	return Reference{Name: c.Name, ReleaseDate: c.ReleaseDate}
}

// Matcher holds the similarity thresholds.
type Matcher struct {
	GoodRatio float64
	MinRatio  float64
}

// New returns a Matcher with the default thresholds.
func New() Matcher {
	return Matcher{GoodRatio: constants.GoodRatio, MinRatio: constants.MinRatio}
}

// Verdict evaluates a candidate and returns the verdict with the name score.
func (m Matcher) Verdict(ref Reference, c games.Candidate) (Verdict, float64) {
	score := Score(ref.Name, c.Name)
	switch {
	case score > m.GoodRatio:
		return Strong, score
	case score > m.MinRatio && (ref.ReleaseDate == "" || DatesCorroborate(ref.ReleaseDate, c.ReleaseDate)):
		return Weak, score
	default:
		return Rejected, score
	}
}

// BestMatch returns the index of the queue entry most similar to name and its
// score. The first entry wins ties. An empty queue returns -1.
func BestMatch(name string, queue []string) (int, float64) {
	best, bestScore := -1, -1.0
	for i, entry := range queue {
		if s := Score(name, entry); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}

// SortBySimilarity stably orders items by descending similarity of key(item) to name.
func SortBySimilarity[T any](name string, items []T, key func(T) string) {
	scores := make(map[int]float64, len(items))
	idx := make([]int, len(items))
	for i := range items {
		idx[i] = i
		scores[i] = Score(name, key(items[i]))
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})
	sorted := make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	copy(items, sorted)
}
