package geo

import "testing"

func TestBoundingBox_Extend(t *testing.T) {
	var b BoundingBox
	if !b.Empty() {
		t.Fatal("zero BoundingBox should be empty")
	}
	if b.Contains(0, 0) {
		t.Error("empty box should contain nothing")
	}

	points := []struct{ lat, lon float64 }{
		{44.9778, -93.2650},
		{44.9537, -93.0900},
		{45.0100, -93.3000},
	}
	for _, p := range points {
		b.Extend(p.lat, p.lon)
	}

	if b.MinLat != 44.9537 || b.MaxLat != 45.0100 {
		t.Errorf("lat range = [%v, %v], want [44.9537, 45.01]", b.MinLat, b.MaxLat)
	}
	if b.MinLon != -93.3000 || b.MaxLon != -93.0900 {
		t.Errorf("lon range = [%v, %v], want [-93.3, -93.09]", b.MinLon, b.MaxLon)
	}
}

func TestBoundingBox_SinglePoint(t *testing.T) {
	var b BoundingBox
	b.Extend(-33.5, 151.25)
	if b.Empty() {
		t.Fatal("box with one point reported empty")
	}
	lat, lon := b.Center()
	if lat != -33.5 || lon != 151.25 {
		t.Errorf("Center() = (%v, %v), want (-33.5, 151.25)", lat, lon)
	}
}

func TestBoundingBox_Contains(t *testing.T) {
	var b BoundingBox
	b.Extend(0, 0)
	b.Extend(10, 20)

	tests := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"inside", 5, 5, true},
		{"corner", 10, 20, true},
		{"edge", 0, 10, true},
		{"north of box", 10.1, 5, false},
		{"west of box", 5, -0.1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}
