package ingredient

import (
	"sort"

	"github.com/google/uuid"
)

// Source names the search tier a candidate came from
type Source string

const (
	SourceExact    Source = "exact"
	SourceFuzzy    Source = "fuzzy"
	SourceSemantic Source = "semantic"
)

// Candidate is a scored search hit
type Candidate struct {
	ID            uuid.UUID
	CanonicalName string
	Aliases       []string
	Category      string
	Similarity    float64
	Source        Source
}

// CandidateFrom builds a candidate from a catalog entry
func CandidateFrom(ing *Ingredient, similarity float64, source Source) Candidate {
	return Candidate{
		ID:            ing.ID,
		CanonicalName: ing.CanonicalName,
		Aliases:       ing.Aliases.Strings(),
		Category:      ing.Category,
		Similarity:    similarity,
		Source:        source,
	}
}

// SortCandidates orders by similarity descending, ties broken by id
func SortCandidates(c []Candidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Similarity != c[j].Similarity {
			return c[i].Similarity > c[j].Similarity
		}
		return c[i].ID.String() < c[j].ID.String()
	})
}

// MergeCandidates unions candidate lists by id. The first occurrence keeps
// its display fields while the similarity is the maximum seen. The result is
// sorted and truncated to limit when limit > 0.
func MergeCandidates(limit int, lists ...[]Candidate) []Candidate {
	index := make(map[uuid.UUID]int)
	var merged []Candidate
	for _, list := range lists {
		for _, c := range list {
			if i, ok := index[c.ID]; ok {
				if c.Similarity > merged[i].Similarity {
					merged[i].Similarity = c.Similarity
				}
				continue
			}
			index[c.ID] = len(merged)
			merged = append(merged, c)
		}
	}

	SortCandidates(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
