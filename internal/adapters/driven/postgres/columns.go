package postgres

import (
	"fmt"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

// categoryTable maps a category to its table and logical fields to columns
type categoryTable struct {
	name    string
	columns map[domain.Field]string
}

func newCategoryTable(name, suffix, reporter string) categoryTable {
	return categoryTable{
		name: name,
		columns: map[domain.Field]string{
			domain.FieldID:           "id",
			domain.FieldPhoneNumber:  "phone_number",
			domain.FieldIMEI:         "imei",
			domain.FieldEmail:        "email",
			domain.FieldBrand:        "brand",
			domain.FieldModel:        "model",
			domain.FieldColor:        "color",
			domain.FieldDeviceType:   "device_type",
			domain.FieldDescription:  "description",
			domain.FieldLocation:     "location_" + suffix,
			domain.FieldCountry:      "country",
			domain.FieldRegion:       "region",
			domain.FieldCity:         "city",
			domain.FieldLatitude:     "latitude",
			domain.FieldLongitude:    "longitude",
			domain.FieldContactName:  reporter + "_name",
			domain.FieldContactPhone: reporter + "_phone",
			domain.FieldContactEmail: reporter + "_email",
			domain.FieldStatus:       "status",
			domain.FieldDate:         "date_" + suffix,
			domain.FieldCreatedAt:    "created_at",
		},
	}
}

var categoryTables = map[domain.Category]categoryTable{
	domain.CategoryLost:  newCategoryTable("lost_phones", "lost", "owner"),
	domain.CategoryFound: newCategoryTable("found_phones", "found", "finder"),
}

func tableFor(c domain.Category) (categoryTable, error) {
	t, ok := categoryTables[c]
	if !ok {
		return categoryTable{}, fmt.Errorf("unknown category %q", c)
	}
	return t, nil
}

func (t categoryTable) column(f domain.Field) (string, error) {
	col, ok := t.columns[f]
	if !ok {
		return "", fmt.Errorf("field %q has no column in %s", f, t.name)
	}
	return col, nil
}

// selectFields lists the scanned fields in Record order
var selectFields = []domain.Field{
	domain.FieldID,
	domain.FieldPhoneNumber, domain.FieldIMEI, domain.FieldEmail,
	domain.FieldBrand, domain.FieldModel, domain.FieldColor, domain.FieldDeviceType, domain.FieldDescription,
	domain.FieldLocation, domain.FieldCountry, domain.FieldRegion, domain.FieldCity,
	domain.FieldLatitude, domain.FieldLongitude,
	domain.FieldContactName, domain.FieldContactPhone, domain.FieldContactEmail,
	domain.FieldStatus, domain.FieldDate, domain.FieldCreatedAt,
}

// nullableText is every text column that may be NULL
var nullableText = map[domain.Field]bool{
	domain.FieldPhoneNumber: true, domain.FieldIMEI: true, domain.FieldEmail: true,
	domain.FieldBrand: true, domain.FieldModel: true, domain.FieldColor: true,
	domain.FieldDeviceType: true, domain.FieldDescription: true, domain.FieldLocation: true,
	domain.FieldCountry: true, domain.FieldRegion: true, domain.FieldCity: true,
	domain.FieldContactPhone: true, domain.FieldContactEmail: true,
}
