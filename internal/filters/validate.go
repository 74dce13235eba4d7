package filters

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// Validator checks filter sets with struct tags plus cross-field date rules
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a Validator
func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

var defaultValidator = NewValidator()

// Validate checks f against the shared Validator
func Validate(f domain.FilterSet, now time.Time) error {
	return defaultValidator.Validate(f, now)
}

// Validate returns a *domain.ValidationError listing every violation, or nil
func (val *Validator) Validate(f domain.FilterSet, now time.Time) error {
	var violations []string

	normalized := f
	normalized.Statuses = make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		normalized.Statuses[i] = strings.ToLower(strings.TrimSpace(s))
	}

	if err := val.v.Struct(normalized); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate filters: %w", err)
		}
		for _, fe := range verrs {
			violations = append(violations, message(fe, f))
		}
	}

	from, fromErr := time.ParseInLocation(domain.DateLayout, f.DateFrom, now.Location())
	to, toErr := time.ParseInLocation(domain.DateLayout, f.DateTo, now.Location())
	if f.DateFrom != "" && fromErr == nil {
		if f.DateTo != "" && toErr == nil && from.After(to) {
			violations = append(violations, "Date from cannot be later than date to")
		}
		if from.After(startOfDay(now)) {
			violations = append(violations, "Date from cannot be in the future")
		}
	}

	if verr := domain.NewValidationError(violations); verr != nil {
		return verr
	}
	return nil
}

func message(fe validator.FieldError, f domain.FilterSet) string {
	switch {
	case strings.HasPrefix(fe.StructField(), "Statuses"):
		return fmt.Sprintf("Invalid status: %s", originalStatus(fe, f))
	case fe.StructField() == "DateFrom":
		return fmt.Sprintf("Invalid date from: %q (expected YYYY-MM-DD)", f.DateFrom)
	case fe.StructField() == "DateTo":
		return fmt.Sprintf("Invalid date to: %q (expected YYYY-MM-DD)", f.DateTo)
	}
	return fmt.Sprintf("Invalid %s: %v", strings.ToLower(fe.Field()), fe.Value())
}

// originalStatus recovers the caller's spelling from the Statuses[i] field name
func originalStatus(fe validator.FieldError, f domain.FilterSet) string {
	var i int
	if _, err := fmt.Sscanf(fe.StructField(), "Statuses[%d]", &i); err == nil && i >= 0 && i < len(f.Statuses) {
		return f.Statuses[i]
	}
	return fmt.Sprint(fe.Value())
}
