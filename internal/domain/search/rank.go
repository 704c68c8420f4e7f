// Package search implements the tiered matching used by inventory and
// customer lookup.
package search

import (
	"sort"
	"strings"
)

// Tier is the quality of a match; lower is better.
type Tier int

const (
	TierExact       Tier = 0
	TierPrefix      Tier = 1
	TierContains    Tier = 2
	TierComposition Tier = 3

	// TierNone means the candidate does not match and is dropped.
	TierNone Tier = -1
)

// Fields is what a candidate exposes to the ranker.
type Fields struct {
	Name string
	// Secondary is matched by substring only (salt composition, mobile number).
	Secondary string
}

// Classify returns the tier of one candidate for an already-normalized query.
func Classify(query string, f Fields) Tier {
	if query == "" {
		return TierNone
	}
	name := Normalize(f.Name)
	switch {
	case name == query:
		return TierExact
	case strings.HasPrefix(name, query):
		return TierPrefix
	case strings.Contains(name, query):
		return TierContains
	case f.Secondary != "" && strings.Contains(Normalize(f.Secondary), query):
		return TierComposition
	}
	return TierNone
}

// Normalize lower-cases s and collapses whitespace runs.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type ranked[T any] struct {
	item T
	tier Tier
}

// Rank filters candidates matching query and orders them by tier. Candidates
// of equal tier keep their input order. limit <= 0 means no limit.
func Rank[T any](query string, candidates []T, fields func(T) Fields, limit int) []T {
	q := Normalize(query)
	matches := make([]ranked[T], 0, len(candidates))
	for _, c := range candidates {
		if tier := Classify(q, fields(c)); tier != TierNone {
			matches = append(matches, ranked[T]{item: c, tier: tier})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].tier < matches[j].tier
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}
