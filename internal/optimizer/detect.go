package optimizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// DetectSearchType classifies a query without an explicit type.
// region is the ISO country used to parse numbers without a country code.
func DetectSearchType(query, region string) domain.SearchType {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.SearchTypeGeneral
	}
	if strings.Contains(q, "@") {
		return domain.SearchTypeEmail
	}

	compact := domain.Compact(q)
	if n := len(compact); n >= 14 && n <= 16 && domain.DigitsOnly(compact) == compact {
		return domain.SearchTypeIMEI
	}

	if looksLikeNumber(q) {
		number, err := phonenumbers.Parse(q, strings.ToUpper(region))
		if err == nil && phonenumbers.IsPossibleNumber(number) {
			return domain.SearchTypePhone
		}
	}
	return domain.SearchTypeGeneral
}

func looksLikeNumber(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(" +-().", r):
		default:
			return false
		}
	}
	return digits >= 7
}
