// Package filters turns a filter set into a record predicate and an ordering.
package filters

import (
	"strings"
	"time"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// Build returns the predicate for every filter in f, including the plain
// location filters, and the ordering those filters dictate.
func Build(f domain.FilterSet, now time.Time, fallback domain.Order) (domain.Predicate, domain.Order) {
	pred := And(Location(f), Advanced(f, now))
	return pred, Ordering(f, fallback)
}

// And joins non-nil predicates; nested Ands are flattened
func And(preds ...domain.Predicate) domain.And {
	out := domain.And{}
	for _, p := range preds {
		switch v := p.(type) {
		case nil:
		case domain.And:
			out = append(out, v...)
		default:
			out = append(out, v)
		}
	}
	return out
}

// Location matches country, region and city by case-insensitive substring
func Location(f domain.FilterSet) domain.Predicate {
	var and domain.And
	add := func(field domain.Field, v string) {
		if v = strings.TrimSpace(v); v != "" {
			and = append(and, domain.Cond{Field: field, Op: domain.OpContains, Value: v})
		}
	}
	add(domain.FieldCountry, f.Country)
	add(domain.FieldRegion, f.Region)
	add(domain.FieldCity, f.City)
	if len(and) == 0 {
		return nil
	}
	return and
}

// Advanced covers the set-membership, date and identifier filters.
// Unknown set values are ignored; a set with no known value matches everything.
func Advanced(f domain.FilterSet, now time.Time) domain.Predicate {
	var and domain.And

	if v := knownStatuses(f.Statuses); len(v) > 0 {
		and = append(and, domain.Cond{Field: domain.FieldStatus, Op: domain.OpIn, Value: v})
	}
	if v := allowed(f.DeviceTypes, DeviceTypes); len(v) > 0 {
		and = append(and, domain.Cond{Field: domain.FieldDeviceType, Op: domain.OpIn, Value: v})
	}
	if v := allowed(f.Brands, Brands); len(v) > 0 {
		and = append(and, domain.Cond{Field: domain.FieldBrand, Op: domain.OpIn, Value: v})
	}

	from, to := DateBounds(f, now)
	if !from.IsZero() {
		and = append(and, domain.Cond{Field: domain.FieldDate, Op: domain.OpGTE, Value: from})
	}
	if !to.IsZero() {
		and = append(and, domain.Cond{Field: domain.FieldDate, Op: domain.OpLT, Value: to})
	}

	if v := strings.TrimSpace(f.IMEI); v != "" {
		and = append(and, domain.Cond{Field: domain.FieldIMEI, Op: domain.OpCompactContains, Value: v})
	}
	if v := domain.DigitsOnly(f.PhoneNumber); v != "" {
		and = append(and, domain.Cond{Field: domain.FieldPhoneNumber, Op: domain.OpDigitsContain, Value: v})
	}

	if len(and) == 0 {
		return nil
	}
	return and
}

// DateBounds returns the half-open interval [from, to) selected by f.
// A zero bound is open. A known named window wins over explicit dates;
// an explicit date_to covers the whole day.
func DateBounds(f domain.FilterSet, now time.Time) (from, to time.Time) {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)

	switch f.DateRange {
	case domain.DateRangeToday:
		return today, tomorrow
	case domain.DateRangeLastWeek:
		return today.AddDate(0, 0, -7), tomorrow
	case domain.DateRangeLastMonth:
		return today.AddDate(0, -1, 0), tomorrow
	case domain.DateRangeLast3Months:
		return today.AddDate(0, -3, 0), tomorrow
	case domain.DateRangeLast6Months:
		return today.AddDate(0, -6, 0), tomorrow
	case domain.DateRangeLastYear:
		return today.AddDate(-1, 0, 0), tomorrow
	}

	if d, err := time.ParseInLocation(domain.DateLayout, f.DateFrom, now.Location()); err == nil {
		from = d
	}
	if d, err := time.ParseInLocation(domain.DateLayout, f.DateTo, now.Location()); err == nil {
		to = d.AddDate(0, 0, 1)
	}
	return from, to
}

// Ordering picks the sort order: newest first when a date filter is active,
// by place when only location filters are active, fallback otherwise.
func Ordering(f domain.FilterSet, fallback domain.Order) domain.Order {
	switch {
	case f.HasDate():
		return domain.Order{
			{Field: domain.FieldCreatedAt, Desc: true},
			{Field: domain.FieldID, Desc: true},
		}
	case f.HasLocation():
		return domain.Order{
			{Field: domain.FieldCountry},
			{Field: domain.FieldRegion},
			{Field: domain.FieldCity},
			{Field: domain.FieldCreatedAt, Desc: true},
		}
	}
	return fallback
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
