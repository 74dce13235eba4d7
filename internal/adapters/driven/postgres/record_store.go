package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
	"github.com/custodia-labs/phonematch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore implements driven.RecordStore over the lost_phones and found_phones tables
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new RecordStore
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// Scan returns records of category matching pred
func (s *RecordStore) Scan(ctx context.Context, category domain.Category, pred domain.Predicate, order domain.Order, limit int) ([]*domain.Record, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, category)
	}

	query, args, err := buildScanQuery(category, pred, order, limit)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", category, err)
	}
	defer rows.Close()

	var records []*domain.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", category, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", category, err)
	}
	return records, nil
}

// Ping checks if the database is reachable
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func buildScanQuery(category domain.Category, pred domain.Predicate, order domain.Order, limit int) (string, []any, error) {
	table, err := tableFor(category)
	if err != nil {
		return "", nil, err
	}

	cols := make([]string, 0, len(selectFields))
	for _, f := range selectFields {
		col, err := table.column(f)
		if err != nil {
			return "", nil, err
		}
		if nullableText[f] {
			col = fmt.Sprintf("COALESCE(%s, '')", col)
		}
		cols = append(cols, col)
	}

	b := &whereBuilder{table: table}
	where, err := b.compile(pred)
	if err != nil {
		return "", nil, err
	}
	orderBy, err := b.orderBy(order)
	if err != nil {
		return "", nil, err
	}

	var q strings.Builder
	fmt.Fprintf(&q, "SELECT %s FROM %s WHERE %s%s", strings.Join(cols, ", "), table.name, where, orderBy)
	if limit > 0 {
		fmt.Fprintf(&q, " LIMIT %s", b.arg(limit))
	}
	return q.String(), b.args, nil
}

func scanRecord(rows *sql.Rows) (*domain.Record, error) {
	var (
		r        domain.Record
		lat, lon sql.NullFloat64
		status   string
		date     sql.NullTime
	)
	err := rows.Scan(
		&r.ID,
		&r.PhoneNumber, &r.IMEI, &r.Email,
		&r.Brand, &r.Model, &r.Color, &r.DeviceType, &r.Description,
		&r.Location, &r.Country, &r.Region, &r.City,
		&lat, &lon,
		&r.ContactName, &r.ContactPhone, &r.ContactEmail,
		&status, &date, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Latitude = FloatPtr(lat)
	r.Longitude = FloatPtr(lon)
	r.Status = domain.Status(status)
	if date.Valid {
		r.Date = date.Time
	}
	return &r, nil
}
