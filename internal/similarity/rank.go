package similarity

import (
	"sort"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// MultiFieldRank scores each item against query over fields, keeps the best
// (score, field) pair, drops items scoring below threshold and sorts the rest
// by score descending. Equal scores keep their input order.
func MultiFieldRank(items []*domain.SearchResultItem, query string, fields []domain.Field, threshold float64) []*domain.SearchResultItem {
	ranked := make([]*domain.SearchResultItem, 0, len(items))
	for _, item := range items {
		best, bestField := -1.0, domain.Field("")
		for _, f := range fields {
			v := item.StringValue(f)
			if v == "" {
				continue
			}
			if s := Similarity(query, v); s > best {
				best, bestField = s, f
			}
		}
		if best < 0 || best < threshold {
			continue
		}
		ranked = append(ranked, scored(item, best, string(bestField)))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].SimilarityScore > *ranked[j].SimilarityScore
	})
	return ranked
}

// RankIdentifiers keeps items whose identifier field matches query under
// IdentifiersMatch and sorts them by score descending
func RankIdentifiers(items []*domain.SearchResultItem, kind domain.SearchType, field domain.Field, query string, threshold float64) []*domain.SearchResultItem {
	ranked := make([]*domain.SearchResultItem, 0, len(items))
	for _, item := range items {
		v := item.StringValue(field)
		if !IdentifiersMatch(kind, query, v, threshold) {
			continue
		}
		ranked = append(ranked, scored(item, IdentifierScore(kind, query, v), string(field)))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].SimilarityScore > *ranked[j].SimilarityScore
	})
	return ranked
}

func scored(item *domain.SearchResultItem, score float64, field string) *domain.SearchResultItem {
	out := *item
	out.SimilarityScore = &score
	out.MatchedField = field
	return &out
}
