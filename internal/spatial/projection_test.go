package spatial

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/s2"
)

func TestProject(t *testing.T) {
	tests := []struct {
		name         string
		lat, lon     float64
		zoom         int
		wantX, wantY int
	}{
		{"origin zoom 0", 0, 0, 0, 0, 0},
		{"origin zoom 1", 0, 0, 1, 1, 1},
		{"north west corner", 85, -180, 2, 0, 0},
		{"munich zoom 14", 48.137, 11.575, 14, 8718, 5685},
		{"sydney zoom 10", -33.8688, 151.2093, 10, 942, 614},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := Project(tt.lat, tt.lon, tt.zoom)
			if err != nil {
				t.Fatalf("Project() error = %v", err)
			}
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Project(%v, %v, %d) = (%d, %d), want (%d, %d)", tt.lat, tt.lon, tt.zoom, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestProjectDeterministic(t *testing.T) {
	x1, y1, _ := Project(49.4521, 11.0767, 14)
	for i := 0; i < 100; i++ {
		x, y, _ := Project(49.4521, 11.0767, 14)
		if x != x1 || y != y1 {
			t.Fatalf("iteration %d: got (%d, %d), want (%d, %d)", i, x, y, x1, y1)
		}
	}
}

func TestProjectInvalidZoom(t *testing.T) {
	for _, zoom := range []int{-1, 21, 100} {
		_, _, err := Project(0, 0, zoom)
		if !errors.Is(err, ErrInvalidZoom) {
			t.Errorf("Project(zoom=%d) error = %v, want ErrInvalidZoom", zoom, err)
		}
	}

	for _, zoom := range []int{0, 20} {
		if _, _, err := Project(0, 0, zoom); err != nil {
			t.Errorf("Project(zoom=%d) error = %v, want nil", zoom, err)
		}
	}
}

func TestZoomIn(t *testing.T) {
	got := ZoomIn(17599, 10747)
	want := map[[2]int]bool{
		{35198, 21494}: true,
		{35199, 21494}: true,
		{35198, 21495}: true,
		{35199, 21495}: true,
	}

	for _, c := range got {
		if !want[c] {
			t.Errorf("unexpected child %v", c)
		}
		delete(want, c)
	}
	if len(want) != 0 {
		t.Errorf("missing children %v", want)
	}
}

func TestZoomOut(t *testing.T) {
	x, y := ZoomOut(35199, 21494)
	if x != 17599 || y != 10747 {
		t.Errorf("ZoomOut() = (%d, %d), want (17599, 10747)", x, y)
	}
}

func TestZoomRoundTrip(t *testing.T) {
	tiles := [][2]int{{0, 0}, {1, 0}, {17599, 10747}, {8191, 4095}}

	for _, tile := range tiles {
		for _, child := range ZoomIn(tile[0], tile[1]) {
			px, py := ZoomOut(child[0], child[1])
			if px != tile[0] || py != tile[1] {
				t.Errorf("ZoomOut(ZoomIn(%v)) = (%d, %d)", tile, px, py)
			}
		}
	}
}

func TestValidTile(t *testing.T) {
	tests := []struct {
		x, y, zoom int
		want       bool
	}{
		{0, 0, 0, true},
		{1, 0, 0, false},
		{3, 3, 2, true},
		{4, 0, 2, false},
		{-1, 0, 5, false},
		{0, 0, 21, false},
	}

	for _, tt := range tests {
		if got := ValidTile(tt.x, tt.y, tt.zoom); got != tt.want {
			t.Errorf("ValidTile(%d, %d, %d) = %v, want %v", tt.x, tt.y, tt.zoom, got, tt.want)
		}
	}
}

func TestTrackLength(t *testing.T) {
	if got := TrackLength(nil); got != 0 {
		t.Errorf("TrackLength(nil) = %v, want 0", got)
	}

	// one degree of longitude along the equator
	points := []s2.LatLng{
		s2.LatLngFromDegrees(0, 0),
		s2.LatLngFromDegrees(0, 0.5),
		s2.LatLngFromDegrees(0, 1),
	}
	want := EarthRadiusMeters * math.Pi / 180
	if got := TrackLength(points); math.Abs(got-want) > 1 {
		t.Errorf("TrackLength() = %v, want %v", got, want)
	}
}

func TestValidLatLng(t *testing.T) {
	if !ValidLatLng(48.1, 11.5) {
		t.Error("ValidLatLng(48.1, 11.5) = false")
	}
	if ValidLatLng(91, 0) {
		t.Error("ValidLatLng(91, 0) = true")
	}
}
