package gpx

import (
	"errors"
	"fmt"
	"io"

	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/tkrajina/gpxgo/gpx"
)

// ErrInvalidGPX is returned when the input is not a readable GPX document
var ErrInvalidGPX = errors.New("invalid gpx file")

// ParseBytes extracts the ordered point stream of a GPX document.
// Track points are used when present, route points otherwise, so that
// planned tours exported as routes are accepted too.
func ParseBytes(data []byte) ([]models.TrackPoint, error) {
	gpxFile, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGPX, err)
	}

	var points []models.TrackPoint
	for _, track := range gpxFile.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				points = append(points, convertPoint(p))
			}
		}
	}

	if len(points) == 0 {
		for _, route := range gpxFile.Routes {
			for _, p := range route.Points {
				points = append(points, convertPoint(p))
			}
		}
	}

	return points, nil
}

// Parse reads a whole GPX document from r
func Parse(r io.Reader) ([]models.TrackPoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gpx: %w", err)
	}
	return ParseBytes(data)
}

func convertPoint(p gpx.GPXPoint) models.TrackPoint {
	point := models.NewTrackPoint(p.Latitude, p.Longitude, p.Timestamp)
	if p.Elevation.NotNull() {
		ele := p.Elevation.Value()
		point.Elevation = &ele
	}
	return point
}
