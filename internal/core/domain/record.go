package domain

import (
	"strings"
	"time"
)

// Category identifies one of the two record collections
type Category string

const (
	CategoryLost  Category = "lost"
	CategoryFound Category = "found"
)

// Categories lists every category in scan order
var Categories = []Category{CategoryLost, CategoryFound}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	return c == CategoryLost || c == CategoryFound
}

// Status is the lifecycle state of a report
type Status string

const (
	StatusLost     Status = "lost"
	StatusFound    Status = "found"
	StatusReturned Status = "returned"
	StatusClaimed  Status = "claimed"
)

// ValidStatuses is the status whitelist
var ValidStatuses = []Status{StatusLost, StatusFound, StatusReturned, StatusClaimed}

// ParseStatus returns the status matching s (case-insensitive)
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range ValidStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Record is a lost or found device report.
// Lost and found reports share this shape; the contact fields hold the owner
// for lost reports and the finder for found reports.
type Record struct {
	ID int64 `json:"id"`

	// Identifiers (at least one is set)
	PhoneNumber string `json:"phone_number,omitempty"`
	IMEI        string `json:"imei,omitempty"`
	Email       string `json:"email,omitempty"`

	// Descriptive attributes
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Color       string `json:"color,omitempty"`
	DeviceType  string `json:"device_type,omitempty"`
	Description string `json:"description,omitempty"`

	// Location attributes
	Location  string   `json:"location,omitempty"`
	Country   string   `json:"country,omitempty"`
	Region    string   `json:"region,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Reporter (owner or finder)
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`

	Status    Status    `json:"status"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are within geographic range
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// StringValue returns the textual value of a logical field.
// Non-text fields return an empty string.
func (r *Record) StringValue(f Field) string {
	switch f {
	case FieldPhoneNumber:
		return r.PhoneNumber
	case FieldIMEI:
		return r.IMEI
	case FieldEmail:
		return r.Email
	case FieldBrand:
		return r.Brand
	case FieldModel:
		return r.Model
	case FieldColor:
		return r.Color
	case FieldDeviceType:
		return r.DeviceType
	case FieldDescription:
		return r.Description
	case FieldLocation:
		return r.Location
	case FieldCountry:
		return r.Country
	case FieldRegion:
		return r.Region
	case FieldCity:
		return r.City
	case FieldContactName:
		return r.ContactName
	case FieldContactPhone:
		return r.ContactPhone
	case FieldContactEmail:
		return r.ContactEmail
	case FieldStatus:
		return string(r.Status)
	}
	return ""
}

// TimeValue returns the value of a temporal field
func (r *Record) TimeValue(f Field) (time.Time, bool) {
	switch f {
	case FieldDate:
		return r.Date, !r.Date.IsZero()
	case FieldCreatedAt:
		return r.CreatedAt, !r.CreatedAt.IsZero()
	}
	return time.Time{}, false
}

// FloatValue returns the value of a numeric field
func (r *Record) FloatValue(f Field) (float64, bool) {
	switch f {
	case FieldLatitude:
		if r.Latitude == nil {
			return 0, false
		}
		return *r.Latitude, true
	case FieldLongitude:
		if r.Longitude == nil {
			return 0, false
		}
		return *r.Longitude, true
	case FieldID:
		return float64(r.ID), true
	}
	return 0, false
}

// SearchResultItem is a record annotated with its provenance and ranking data
type SearchResultItem struct {
	*Record
	Source          Category `json:"source"`
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
	MatchedField    string   `json:"matched_field,omitempty"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
}

// NewResultItems wraps records from one category as result items
func NewResultItems(category Category, records []*Record) []*SearchResultItem {
	items := make([]*SearchResultItem, 0, len(records))
	for _, r := range records {
		items = append(items, &SearchResultItem{Record: r, Source: category})
	}
	return items
}
