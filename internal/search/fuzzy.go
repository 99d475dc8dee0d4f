package search

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Field designates one text-bearing field of T used for approximate
// matching. Weight is in (0, 1]; fields with a higher weight count more
// toward the record's score.
type Field[T any] struct {
	Weight float64
	Value  func(T) string
}

// Match couples a record with its score. Scores run from 0 (perfect match)
// to 1 (no resemblance); only records at or below the matcher's threshold
// are returned.
type Match[T any] struct {
	Record T
	Score  float64
}

// Matcher ranks records against a free-text query. Implementations must be
// total: an empty query passes every record through unranked, a query that
// matches nothing yields an empty result, never an error.
type Matcher[T any] interface {
	Match(query string, records []T) []Match[T]
}

// LevenshteinMatcher scores records by normalized edit distance between the
// query and each designated field, tolerant of typos and partial words.
// It is the default Matcher; the interface exists so the algorithm can be
// swapped without touching call sites.
type LevenshteinMatcher[T any] struct {
	threshold float64
	fields    []Field[T]
}

// NewMatcher builds a LevenshteinMatcher with the given similarity
// threshold and weighted fields. Fields with a non-positive weight are
// treated as weight 1.
func NewMatcher[T any](threshold float64, fields ...Field[T]) *LevenshteinMatcher[T] {
	return &LevenshteinMatcher[T]{threshold: threshold, fields: fields}
}

// Match implements Matcher. Results are ordered best match first; ties keep
// the records' relative input order.
func (m *LevenshteinMatcher[T]) Match(query string, records []T) []Match[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		out := make([]Match[T], len(records))
		for i, r := range records {
			out[i] = Match[T]{Record: r}
		}
		return out
	}

	out := make([]Match[T], 0, len(records))
	for _, r := range records {
		score := m.score(q, r)
		if score <= m.threshold {
			out = append(out, Match[T]{Record: r, Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score < out[j].Score
	})
	return out
}

// score returns the best weighted field score for the record.
func (m *LevenshteinMatcher[T]) score(query string, record T) float64 {
	best := math.Inf(1)
	for _, f := range m.fields {
		weight := f.Weight
		if weight <= 0 {
			weight = 1
		}
		s := fieldScore(query, strings.ToLower(f.Value(record))) / weight
		if s < best {
			best = s
		}
	}
	return best
}

// fieldScore scores a single lowercased field value against the lowercased
// query. Exact matches score 0, substring hits score near 0 (shorter values
// rank ahead of longer ones), everything else falls back to normalized
// Levenshtein distance against the whole value and each of its words.
func fieldScore(query, value string) float64 {
	if value == "" {
		return 1
	}
	if value == query {
		return 0
	}
	if strings.Contains(value, query) {
		return 0.1 * (1 - float64(utf8.RuneCountInString(query))/float64(utf8.RuneCountInString(value)))
	}

	best := normalizedDistance(query, value)
	for _, word := range strings.Fields(value) {
		if d := normalizedDistance(query, word); d < best {
			best = d
		}
	}
	return best
}

func normalizedDistance(a, b string) float64 {
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}
	return float64(fuzzy.LevenshteinDistance(a, b)) / float64(longest)
}
