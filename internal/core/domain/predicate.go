package domain

import (
	"strings"
	"time"
	"unicode"
)

// Field is a logical record attribute. Store adapters map fields to
// category-specific column names.
type Field string

const (
	FieldID           Field = "id"
	FieldPhoneNumber  Field = "phone_number"
	FieldIMEI         Field = "imei"
	FieldEmail        Field = "email"
	FieldBrand        Field = "brand"
	FieldModel        Field = "model"
	FieldColor        Field = "color"
	FieldDeviceType   Field = "device_type"
	FieldDescription  Field = "description"
	FieldLocation     Field = "location"
	FieldCountry      Field = "country"
	FieldRegion       Field = "region"
	FieldCity         Field = "city"
	FieldLatitude     Field = "latitude"
	FieldLongitude    Field = "longitude"
	FieldContactName  Field = "contact_name"
	FieldContactPhone Field = "contact_phone"
	FieldContactEmail Field = "contact_email"
	FieldStatus       Field = "status"
	FieldDate         Field = "date"
	FieldCreatedAt    Field = "created_at"
)

// Op is a comparison operator
type Op string

const (
	// OpContains is a case-insensitive substring match
	OpContains Op = "contains"
	// OpDigitsContain compares digit-only forms (phone numbers)
	OpDigitsContain Op = "digits_contain"
	// OpCompactContains strips whitespace and hyphens and compares case-insensitively (IMEIs)
	OpCompactContains Op = "compact_contains"
	// OpIn is case-insensitive set membership; Value is []string
	OpIn Op = "in"
	// OpNotEmpty requires a non-blank value
	OpNotEmpty Op = "not_empty"
	// OpGTE and OpLT compare time.Time or float64 values
	OpGTE Op = "gte"
	OpLT  Op = "lt"
	// OpBetween is an inclusive float range; Value is [2]float64
	OpBetween Op = "between"
)

// Predicate is a node of a structured row filter
type Predicate interface {
	// Matches evaluates the predicate against a record in memory
	Matches(r *Record) bool
}

// Cond compares one field against a value
type Cond struct {
	Field Field
	Op    Op
	Value any
}

// And matches when every child matches. An empty And matches everything.
type And []Predicate

// Or matches when any child matches. An empty Or matches everything.
type Or []Predicate

// Matches implements Predicate
func (a And) Matches(r *Record) bool {
	for _, p := range a {
		if !p.Matches(r) {
			return false
		}
	}
	return true
}

// Matches implements Predicate
func (o Or) Matches(r *Record) bool {
	if len(o) == 0 {
		return true
	}
	for _, p := range o {
		if p.Matches(r) {
			return true
		}
	}
	return false
}

// Matches implements Predicate
func (c Cond) Matches(r *Record) bool {
	switch c.Op {
	case OpContains:
		needle, _ := c.Value.(string)
		return strings.Contains(strings.ToLower(r.StringValue(c.Field)), strings.ToLower(needle))
	case OpDigitsContain:
		needle, _ := c.Value.(string)
		return strings.Contains(DigitsOnly(r.StringValue(c.Field)), DigitsOnly(needle))
	case OpCompactContains:
		needle, _ := c.Value.(string)
		return strings.Contains(Compact(r.StringValue(c.Field)), Compact(needle))
	case OpIn:
		values, _ := c.Value.([]string)
		v := strings.ToLower(r.StringValue(c.Field))
		for _, want := range values {
			if strings.ToLower(want) == v {
				return true
			}
		}
		return false
	case OpNotEmpty:
		return strings.TrimSpace(r.StringValue(c.Field)) != ""
	case OpGTE, OpLT:
		return c.compareOrdered(r)
	case OpBetween:
		bounds, ok := c.Value.([2]float64)
		if !ok {
			return false
		}
		v, ok := r.FloatValue(c.Field)
		return ok && v >= bounds[0] && v <= bounds[1]
	}
	return false
}

func (c Cond) compareOrdered(r *Record) bool {
	switch want := c.Value.(type) {
	case time.Time:
		got, ok := r.TimeValue(c.Field)
		if !ok {
			return false
		}
		if c.Op == OpGTE {
			return !got.Before(want)
		}
		return got.Before(want)
	case float64:
		got, ok := r.FloatValue(c.Field)
		if !ok {
			return false
		}
		if c.Op == OpGTE {
			return got >= want
		}
		return got < want
	}
	return false
}

// DigitsOnly strips every non-digit character
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Compact strips whitespace and hyphens and upper-cases the rest
func Compact(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// OrderKey is one sort key of an ordering strategy
type OrderKey struct {
	Field Field
	Desc  bool
}

// Order is an ordered list of sort keys
type Order []OrderKey

// DefaultOrder is the newest-first ordering used when no filter dictates one
var DefaultOrder = Order{{Field: FieldCreatedAt, Desc: true}}
