// Package search shapes record collections for listing surfaces: an
// approximate text match, an exact categorical filter and a deterministic
// sort, applied in that order. The pipeline is a pure function of its
// inputs and never fails.
package search

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FilterAll is the sentinel filter value meaning "no categorical
// restriction". It is never compared against record field values.
const FilterAll = "all"

// SortKey selects the pipeline's final ordering. SortNone keeps the order
// produced by the earlier stages (input order, or match rank when a query
// was given). An explicitly chosen key overrides the match rank.
type SortKey string

const (
	SortNone      SortKey = ""
	SortNameAsc   SortKey = "name_asc"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
)

// Pipeline produces the visible subset and ordering of a record collection
// from a free-text query, a categorical filter value and a sort key.
type Pipeline[T any] struct {
	matcher  Matcher[T]
	category func(T) string
	name     func(T) string
	price    func(T) int64
	collator *collate.Collator
}

// NewPipeline wires a pipeline for one listing surface. category selects
// the field compared against the filter value; name and price feed the sort
// comparators and may be nil for surfaces that never sort on them.
func NewPipeline[T any](matcher Matcher[T], category func(T) string, name func(T) string, price func(T) int64) *Pipeline[T] {
	return &Pipeline[T]{
		matcher:  matcher,
		category: category,
		name:     name,
		price:    price,
		collator: collate.New(language.Indonesian, collate.IgnoreCase),
	}
}

// Apply runs match, filter and sort over the records and returns a new
// slice. The input is never mutated.
func (p *Pipeline[T]) Apply(records []T, query, filter string, key SortKey) []T {
	result := make([]T, 0, len(records))

	if strings.TrimSpace(query) != "" {
		for _, m := range p.matcher.Match(query, records) {
			result = append(result, m.Record)
		}
	} else {
		result = append(result, records...)
	}

	if p.category != nil && filter != "" && filter != FilterAll {
		kept := result[:0]
		for _, r := range result {
			if p.category(r) == filter {
				kept = append(kept, r)
			}
		}
		result = kept
	}

	p.sortBy(result, key)
	return result
}

func (p *Pipeline[T]) sortBy(records []T, key SortKey) {
	switch key {
	case SortNone:
		return
	case SortPriceAsc:
		if p.price == nil {
			return
		}
		sort.SliceStable(records, func(i, j int) bool {
			return p.price(records[i]) < p.price(records[j])
		})
	case SortPriceDesc:
		if p.price == nil {
			return
		}
		sort.SliceStable(records, func(i, j int) bool {
			return p.price(records[i]) > p.price(records[j])
		})
	default:
		// SortNameAsc and any unrecognized key fall back to name ascending.
		if p.name == nil {
			return
		}
		sort.SliceStable(records, func(i, j int) bool {
			return p.collator.CompareString(p.name(records[i]), p.name(records[j])) < 0
		})
	}
}
