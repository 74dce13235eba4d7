package domain

import (
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func testRecord() *Record {
	return &Record{
		ID:          7,
		PhoneNumber: "+63 917-555-0101",
		IMEI:        "35-209900-176148-1",
		Email:       "Ana@Example.com",
		Brand:       "Samsung",
		Model:       "Galaxy S21",
		Color:       "Phantom Black",
		DeviceType:  "smartphone",
		Country:     "Philippines",
		Region:      "NCR",
		City:        "Manila",
		Latitude:    floatPtr(14.5995),
		Longitude:   floatPtr(120.9842),
		ContactName: "Ana Santos",
		Status:      StatusLost,
		Date:        time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
		CreatedAt:   time.Date(2025, 2, 11, 8, 30, 0, 0, time.UTC),
	}
}

func TestCond_Matches(t *testing.T) {
	r := testRecord()

	tests := []struct {
		name string
		cond Cond
		want bool
	}{
		{"contains case-insensitive", Cond{Field: FieldModel, Op: OpContains, Value: "galaxy"}, true},
		{"contains miss", Cond{Field: FieldModel, Op: OpContains, Value: "pixel"}, false},
		{"digits contain", Cond{Field: FieldPhoneNumber, Op: OpDigitsContain, Value: "9175550101"}, true},
		{"digits contain miss", Cond{Field: FieldPhoneNumber, Op: OpDigitsContain, Value: "9175550102"}, false},
		{"compact contains", Cond{Field: FieldIMEI, Op: OpCompactContains, Value: "352099 00176"}, true},
		{"in", Cond{Field: FieldBrand, Op: OpIn, Value: []string{"apple", "samsung"}}, true},
		{"in miss", Cond{Field: FieldBrand, Op: OpIn, Value: []string{"apple"}}, false},
		{"not empty", Cond{Field: FieldEmail, Op: OpNotEmpty}, true},
		{"not empty miss", Cond{Field: FieldDescription, Op: OpNotEmpty}, false},
		{"gte time", Cond{Field: FieldDate, Op: OpGTE, Value: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)}, true},
		{"lt time", Cond{Field: FieldDate, Op: OpLT, Value: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)}, false},
		{"between", Cond{Field: FieldLatitude, Op: OpBetween, Value: [2]float64{14.5, 14.7}}, true},
		{"between miss", Cond{Field: FieldLongitude, Op: OpBetween, Value: [2]float64{121, 122}}, false},
		{"unknown op", Cond{Field: FieldBrand, Op: Op("regex"), Value: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Matches(r); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCond_BetweenMissingCoordinates(t *testing.T) {
	r := testRecord()
	r.Latitude = nil

	c := Cond{Field: FieldLatitude, Op: OpBetween, Value: [2]float64{-90, 90}}
	if c.Matches(r) {
		t.Error("expected record without latitude not to match a latitude range")
	}
}

func TestAndOr(t *testing.T) {
	r := testRecord()
	hit := Cond{Field: FieldCity, Op: OpContains, Value: "man"}
	miss := Cond{Field: FieldCity, Op: OpContains, Value: "cebu"}

	if !(And{}).Matches(r) {
		t.Error("empty And should match")
	}
	if !(Or{}).Matches(r) {
		t.Error("empty Or should match")
	}
	if (And{hit, miss}).Matches(r) {
		t.Error("And with a miss should not match")
	}
	if !(Or{miss, hit}).Matches(r) {
		t.Error("Or with a hit should match")
	}
	if !(And{hit, Or{miss, hit}}).Matches(r) {
		t.Error("nested predicate should match")
	}
}

func TestDigitsOnlyAndCompact(t *testing.T) {
	if got := DigitsOnly("+1 (555) 123-4567"); got != "15551234567" {
		t.Errorf("DigitsOnly = %q", got)
	}
	if got := Compact(" 35-2099 00a "); got != "35209900A" {
		t.Errorf("Compact = %q", got)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Claimed "); !ok || s != StatusClaimed {
		t.Errorf("ParseStatus = %q, %v", s, ok)
	}
	if _, ok := ParseStatus("stolen"); ok {
		t.Error("expected unknown status to be rejected")
	}
}
