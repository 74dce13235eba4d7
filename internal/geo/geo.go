// Package geo computes great-circle distances and proximity filters.
package geo

import (
	"math"
	"sort"

	"github.com/custodia-labs/phonematch-core/internal/core/domain"
)

const (
	// EarthRadiusKm is the mean Earth radius used by HaversineKm
	EarthRadiusKm = 6371.0

	// KmPerDegreeLat is the length of one degree of latitude
	KmPerDegreeLat = 111.32

	// boxPadding widens the box so it contains the whole circle despite
	// the flat-earth approximation
	boxPadding = 1.01
)

// BoundingBox is an axis-aligned latitude/longitude rectangle
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the box (edges included)
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// HaversineKm returns the great-circle distance in kilometres.
// Invalid coordinates yield +Inf.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	if !valid(lat1, lon1) || !valid(lat2, lon2) {
		return math.Inf(1)
	}

	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// BoundingBoxFor returns a box containing every point within radiusKm of the center.
// Boxes touching a pole or crossing the antimeridian span all longitudes.
func BoundingBoxFor(lat, lon, radiusKm float64) BoundingBox {
	dLat := radiusKm / KmPerDegreeLat * boxPadding
	box := BoundingBox{MinLat: lat - dLat, MaxLat: lat + dLat, MinLon: -180, MaxLon: 180}

	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.MinLat = math.Max(box.MinLat, -90)
		box.MaxLat = math.Min(box.MaxLat, 90)
		return box
	}

	edge := math.Max(math.Abs(box.MinLat), math.Abs(box.MaxLat))
	dLon := radiusKm / (KmPerDegreeLat * math.Cos(radians(edge))) * boxPadding
	if dLon >= 180 || lon-dLon < -180 || lon+dLon > 180 {
		return box
	}

	box.MinLon = lon - dLon
	box.MaxLon = lon + dLon
	return box
}

// ExtractCoordinates returns the record's position when both halves are present and valid
func ExtractCoordinates(r *domain.Record) (domain.Coordinates, bool) {
	if r == nil || r.Latitude == nil || r.Longitude == nil {
		return domain.Coordinates{}, false
	}
	c := domain.Coordinates{Lat: *r.Latitude, Lon: *r.Longitude}
	if !valid(c.Lat, c.Lon) {
		return domain.Coordinates{}, false
	}
	return c, true
}

// FilterByProximity keeps items within radiusKm of the center, sets their
// distance rounded to two decimals and sorts them nearest first.
// Items without usable coordinates are dropped.
func FilterByProximity(items []*domain.SearchResultItem, lat, lon, radiusKm float64) []*domain.SearchResultItem {
	type hit struct {
		item *domain.SearchResultItem
		km   float64
	}

	hits := make([]hit, 0, len(items))
	for _, item := range items {
		c, ok := ExtractCoordinates(item.Record)
		if !ok {
			continue
		}
		km := HaversineKm(lat, lon, c.Lat, c.Lon)
		if km > radiusKm {
			continue
		}
		hits = append(hits, hit{item: item, km: km})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].km < hits[j].km })

	out := make([]*domain.SearchResultItem, 0, len(hits))
	for _, h := range hits {
		item := *h.item
		d := math.Round(h.km*100) / 100
		item.DistanceKm = &d
		out = append(out, &item)
	}
	return out
}

func valid(lat, lon float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lon) &&
		lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
