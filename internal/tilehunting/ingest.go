package tilehunting

import (
	"github.com/golang/geo/s2"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/spatial"
	"github.com/paulmach/orb"
)

// IngestStats describes how a track collapsed into tiles
type IngestStats struct {
	Points        int
	Skipped       int
	DistinctTiles int
	LengthMeters  float64
	// Bound covers all projected points, empty when none could be projected
	Bound orb.Bound
}

// PointsPerTile is the dedup ratio of the track, 0 when no tile was produced
func (s IngestStats) PointsPerTile() float64 {
	if s.DistinctTiles == 0 {
		return 0
	}
	return float64(s.Points-s.Skipped) / float64(s.DistinctTiles)
}

// Ingest projects every point of a track at baseZoom and returns the distinct
// tiles sorted by (x, y). Points without a valid position are skipped, as are
// points outside the Web-Mercator grid (beyond ±85.0511° latitude, or lon 180).
func Ingest(points []models.TrackPoint, baseZoom int) ([]models.TilePosition, IngestStats, error) {
	stats := IngestStats{Points: len(points)}
	if err := spatial.ValidateZoom(baseZoom); err != nil {
		return nil, stats, err
	}

	seen := make(map[models.TilePosition]struct{})
	latLngs := make([]s2.LatLng, 0, len(points))
	bound := orb.Bound{}
	first := true

	for _, p := range points {
		if p.Latitude == nil || p.Longitude == nil || !spatial.ValidLatLng(*p.Latitude, *p.Longitude) {
			stats.Skipped++
			continue
		}

		x, y, err := spatial.Project(*p.Latitude, *p.Longitude, baseZoom)
		if err != nil {
			return nil, stats, err
		}
		if !spatial.ValidTile(x, y, baseZoom) {
			stats.Skipped++
			continue
		}
		seen[models.TilePosition{X: x, Y: y}] = struct{}{}

		latLngs = append(latLngs, s2.LatLngFromDegrees(*p.Latitude, *p.Longitude))
		point := orb.Point{*p.Longitude, *p.Latitude}
		if first {
			bound = point.Bound()
			first = false
		} else {
			bound = bound.Extend(point)
		}
	}

	tiles := make([]models.TilePosition, 0, len(seen))
	for t := range seen {
		tiles = append(tiles, t)
	}
	models.SortTilePositions(tiles)

	stats.DistinctTiles = len(tiles)
	stats.LengthMeters = spatial.TrackLength(latLngs)
	stats.Bound = bound

	return tiles, stats, nil
}
