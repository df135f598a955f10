package geo

import "testing"

func almost(a, b, eps float64) bool {
	if a > b {
		return a-b < eps
	}
	return b-a < eps
}

func TestHaversineKm_SamePoint(t *testing.T) {
	d := HaversineKm(52.4064, 16.9252, 52.4064, 16.9252)
	if d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversineKm_Poznan_Warsaw(t *testing.T) {
	// ~279 km great-circle
	d := HaversineKm(52.4064, 16.9252, 52.2297, 21.0122)
	if !almost(d, 279, 5) {
		t.Fatalf("want ~279 km, got %f", d)
	}
}

func TestPoint_DistanceKm_Symmetric(t *testing.T) {
	a := Point{Latitude: 50.0647, Longitude: 19.9450}
	b := Point{Latitude: 54.3520, Longitude: 18.6466}
	if !almost(a.DistanceKm(b), b.DistanceKm(a), 1e-9) {
		t.Fatal("distance must be symmetric")
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{90.1, 0, false},
		{0, -180.5, false},
	}
	for _, tc := range tests {
		if got := (Point{Latitude: tc.lat, Longitude: tc.lon}).Valid(); got != tc.want {
			t.Errorf("Valid(%v,%v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
		}
	}
}
