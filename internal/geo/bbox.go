// Package geo holds coordinate aggregates collected during feed ingestion.
package geo

// BoundingBox is the smallest lat/lon rectangle covering every coordinate
// passed to Extend. The zero value is empty.
type BoundingBox struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
	set            bool
}

// Extend grows the box to include lat, lon.
func (b *BoundingBox) Extend(lat, lon float64) {
	if !b.set {
		b.MinLat, b.MaxLat = lat, lat
		b.MinLon, b.MaxLon = lon, lon
		b.set = true
		return
	}
	b.MinLat = min(b.MinLat, lat)
	b.MaxLat = max(b.MaxLat, lat)
	b.MinLon = min(b.MinLon, lon)
	b.MaxLon = max(b.MaxLon, lon)
}

// Empty reports whether no coordinate has been added.
func (b BoundingBox) Empty() bool { return !b.set }

// Contains reports whether lat, lon lies inside the box, edges included.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return b.set && lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}
