package spatial

import (
	"errors"
	"fmt"
	"math"
)

const (
	MinZoom = 0
	MaxZoom = 20
)

// ErrInvalidZoom is returned for zoom levels outside [MinZoom, MaxZoom]
var ErrInvalidZoom = errors.New("invalid zoom level")

// ValidateZoom returns ErrInvalidZoom when zoom is out of range
func ValidateZoom(zoom int) error {
	if zoom < MinZoom || zoom > MaxZoom {
		return fmt.Errorf("%w: %d is not between %d and %d", ErrInvalidZoom, zoom, MinZoom, MaxZoom)
	}
	return nil
}

// Project converts a WGS84 coordinate into the Web-Mercator slippy tile containing it
func Project(lat, lon float64, zoom int) (x, y int, err error) {
	if err := ValidateZoom(zoom); err != nil {
		return 0, 0, err
	}

	latRad := lat * math.Pi / 180
	n := float64(int(1) << zoom)

	x = int(math.Floor((lon + 180.0) / 360.0 * n))
	y = int(math.Floor((1.0 - math.Asinh(math.Tan(latRad))/math.Pi) / 2.0 * n))
	return x, y, nil
}

// ZoomIn returns the four children of tile (x, y) one zoom level deeper
func ZoomIn(x, y int) [4][2]int {
	return [4][2]int{
		{2 * x, 2 * y},
		{2*x + 1, 2 * y},
		{2 * x, 2*y + 1},
		{2*x + 1, 2*y + 1},
	}
}

// ZoomOut returns the parent of tile (x, y) one zoom level up
func ZoomOut(x, y int) (int, int) {
	return x / 2, y / 2
}

// TileCount is the number of tiles along one axis at zoom
func TileCount(zoom int) int {
	return 1 << zoom
}

// ValidTile reports whether (x, y) addresses a tile that exists at zoom
func ValidTile(x, y, zoom int) bool {
	if ValidateZoom(zoom) != nil {
		return false
	}
	n := TileCount(zoom)
	return x >= 0 && y >= 0 && x < n && y < n
}
