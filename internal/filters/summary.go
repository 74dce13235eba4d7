package filters

import (
	"strings"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// Summarize describes the active filters of f
func Summarize(f domain.FilterSet) domain.FilterSummary {
	names := []string{}
	add := func(active bool, name string) {
		if active {
			names = append(names, name)
		}
	}

	add(len(f.Statuses) > 0, "status")
	add(len(f.DeviceTypes) > 0, "device_type")
	add(len(f.Brands) > 0, "brand")
	add(f.DateRange != "", "date_range")
	add(f.DateFrom != "", "date_from")
	add(f.DateTo != "", "date_to")
	add(strings.TrimSpace(f.Country) != "", "country")
	add(strings.TrimSpace(f.Region) != "", "region")
	add(strings.TrimSpace(f.City) != "", "city")
	add(strings.TrimSpace(f.IMEI) != "", "imei")
	add(strings.TrimSpace(f.PhoneNumber) != "", "phone_number")

	return domain.FilterSummary{
		ActiveFilterCount: len(names),
		FilterNames:       names,
		Complexity:        complexity(len(names)),
	}
}

func complexity(n int) string {
	switch {
	case n <= 2:
		return domain.ComplexitySimple
	case n <= 5:
		return domain.ComplexityModerate
	}
	return domain.ComplexityComplex
}
