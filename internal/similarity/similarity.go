// Package similarity scores how closely two strings or identifiers match.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// MinSuffixLength is the shortest normalized phone number accepted by the suffix rule
const MinSuffixLength = 7

// EditDistance returns the Levenshtein distance between a and b, counted in runes
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity returns a case-insensitive score in [0,100]
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 100
	}
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := max(la, lb)
	return 100 * float64(maxLen-EditDistance(a, b)) / float64(maxLen)
}

// IsSimilar reports whether Similarity(a, b) reaches threshold
func IsSimilar(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}

// NormalizeIdentifier canonicalizes an identifier of the given kind
func NormalizeIdentifier(kind domain.SearchType, value string) string {
	switch kind {
	case domain.SearchTypePhone:
		return domain.DigitsOnly(value)
	case domain.SearchTypeIMEI:
		return domain.Compact(value)
	case domain.SearchTypeEmail:
		return strings.ToLower(strings.TrimSpace(value))
	}
	return strings.TrimSpace(value)
}

// IdentifierScore compares two identifiers of the same kind.
// Exact matches after normalization and phone suffix matches score 100;
// everything else scores the similarity of the normalized forms.
func IdentifierScore(kind domain.SearchType, a, b string) float64 {
	na, nb := NormalizeIdentifier(kind, a), NormalizeIdentifier(kind, b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}
	if kind == domain.SearchTypePhone && phoneSuffixMatch(na, nb) {
		return 100
	}
	return Similarity(na, nb)
}

// IdentifiersMatch reports whether a and b identify the same device or person.
// The fuzzy fallback requires a score strictly above threshold, so an
// identifier one edit away from a ten digit number does not pass at 90.
func IdentifiersMatch(kind domain.SearchType, a, b string, threshold float64) bool {
	score := IdentifierScore(kind, a, b)
	return score == 100 || score > threshold
}

func phoneSuffixMatch(a, b string) bool {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= MinSuffixLength && strings.HasSuffix(long, short)
}
