package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// whereBuilder compiles a predicate tree into a parameterized WHERE clause
type whereBuilder struct {
	table categoryTable
	args  []any
}

func (b *whereBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) compile(p domain.Predicate) (string, error) {
	switch v := p.(type) {
	case nil:
		return "TRUE", nil
	case domain.And:
		return b.join(v, " AND ")
	case domain.Or:
		return b.join(v, " OR ")
	case domain.Cond:
		return b.cond(v)
	}
	return "", fmt.Errorf("unsupported predicate %T", p)
}

func (b *whereBuilder) join(children []domain.Predicate, sep string) (string, error) {
	if len(children) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(children))
	for _, c := range children {
		s, err := b.compile(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (b *whereBuilder) cond(c domain.Cond) (string, error) {
	col, err := b.table.column(c.Field)
	if err != nil {
		return "", err
	}

	switch c.Op {
	case domain.OpContains:
		s, err := stringValue(c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("COALESCE(%s, '') ILIKE %s", col, b.arg(likePattern(s))), nil

	case domain.OpDigitsContain:
		s, err := stringValue(c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("regexp_replace(COALESCE(%s, ''), '[^0-9]', '', 'g') LIKE %s",
			col, b.arg(likePattern(domain.DigitsOnly(s)))), nil

	case domain.OpCompactContains:
		s, err := stringValue(c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(`upper(regexp_replace(COALESCE(%s, ''), '[\s-]', '', 'g')) LIKE %s`,
			col, b.arg(likePattern(domain.Compact(s)))), nil

	case domain.OpIn:
		values, ok := c.Value.([]string)
		if !ok {
			return "", fmt.Errorf("%s on %s needs []string, got %T", c.Op, c.Field, c.Value)
		}
		lowered := make([]string, len(values))
		for i, v := range values {
			lowered[i] = strings.ToLower(v)
		}
		return fmt.Sprintf("lower(%s) = ANY(%s)", col, b.arg(pq.Array(lowered))), nil

	case domain.OpNotEmpty:
		return fmt.Sprintf("btrim(COALESCE(%s, '')) <> ''", col), nil

	case domain.OpGTE:
		return fmt.Sprintf("%s >= %s", col, b.arg(c.Value)), nil

	case domain.OpLT:
		return fmt.Sprintf("%s < %s", col, b.arg(c.Value)), nil

	case domain.OpBetween:
		bounds, ok := c.Value.([2]float64)
		if !ok {
			return "", fmt.Errorf("%s on %s needs [2]float64, got %T", c.Op, c.Field, c.Value)
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, b.arg(bounds[0]), b.arg(bounds[1])), nil
	}
	return "", fmt.Errorf("unsupported operator %q", c.Op)
}

func (b *whereBuilder) orderBy(order domain.Order) (string, error) {
	if len(order) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(order))
	for _, k := range order {
		col, err := b.table.column(k.Field)
		if err != nil {
			return "", err
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func stringValue(c domain.Cond) (string, error) {
	s, ok := c.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s on %s needs a string, got %T", c.Op, c.Field, c.Value)
	}
	return s, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likePattern wraps s for a substring LIKE match, escaping wildcards
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
