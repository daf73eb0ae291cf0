package models

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// TilePosition is a slippy-map tile coordinate at an implied zoom level
type TilePosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SortTilePositions sorts ascending by (x, y)
func SortTilePositions(tiles []TilePosition) {
	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].X != tiles[j].X {
			return tiles[i].X < tiles[j].X
		}
		return tiles[i].Y < tiles[j].Y
	})
}

// TileBounds is an inclusive tile range [MinX,MaxX] x [MinY,MaxY]
type TileBounds struct {
	MinX int `json:"minX"`
	MaxX int `json:"maxX"`
	MinY int `json:"minY"`
	MaxY int `json:"maxY"`
}

// BoundsOf returns the bounding box of tiles. ok is false for an empty slice.
func BoundsOf(tiles []TilePosition) (b TileBounds, ok bool) {
	if len(tiles) == 0 {
		return TileBounds{}, false
	}

	b = TileBounds{MinX: tiles[0].X, MaxX: tiles[0].X, MinY: tiles[0].Y, MaxY: tiles[0].Y}
	for _, t := range tiles[1:] {
		b.MinX = min(b.MinX, t.X)
		b.MaxX = max(b.MaxX, t.X)
		b.MinY = min(b.MinY, t.Y)
		b.MaxY = max(b.MaxY, t.Y)
	}
	return b, true
}

// TileColorPosition is one (workout type color, tile) pair inside a bounding box
type TileColorPosition struct {
	TileColor string `json:"tileColor"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// TileCountPosition is the number of distinct workouts that touched a tile
type TileCountPosition struct {
	Count int `json:"count"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

// TileFilter selects the workouts that contribute to an aggregation
type TileFilter struct {
	Types []WorkoutType `json:"types"`
	Years []int         `json:"years"`
}

// Normalized returns a copy with sorted, distinct types and years
func (f TileFilter) Normalized() TileFilter {
	seenTypes := make(map[WorkoutType]bool, len(f.Types))
	var types []WorkoutType
	for _, t := range f.Types {
		if !seenTypes[t] {
			seenTypes[t] = true
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	seenYears := make(map[int]bool, len(f.Years))
	var years []int
	for _, y := range f.Years {
		if !seenYears[y] {
			seenYears[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)

	return TileFilter{Types: types, Years: years}
}

// CacheKey encodes user and filter as "{user}_{types}_{years}".
// All keys of one user share the prefix UserCachePrefix(userID).
func (f TileFilter) CacheKey(userID int64) string {
	n := f.Normalized()

	typeNames := make([]string, len(n.Types))
	for i, t := range n.Types {
		typeNames[i] = string(t)
	}
	yearNames := make([]string, len(n.Years))
	for i, y := range n.Years {
		yearNames[i] = strconv.Itoa(y)
	}

	return UserCachePrefix(userID) + strings.Join(typeNames, "_") + "_" + strings.Join(yearNames, "_")
}

// UserCachePrefix is the key prefix shared by every cache entry of a user
func UserCachePrefix(userID int64) string {
	return strconv.FormatInt(userID, 10) + "_"
}

// NewTilesPerWorkout is the number of tiles a workout visited first
type NewTilesPerWorkout struct {
	WorkoutID        int64       `json:"workoutId"`
	Type             WorkoutType `json:"type"`
	Name             string      `json:"name"`
	StartTime        time.Time   `json:"startTime"`
	NumberOfNewTiles int         `json:"numberOfNewTiles"`
}

// MaxSquareResult describes the largest fully visited square of a user
type MaxSquareResult struct {
	Size  int            `json:"size"`
	Tiles []TilePosition `json:"tiles"`
	Zoom  int            `json:"zoom"`
	// Geographic bound of the square, nil when no tile was visited
	Bound *GeoBound `json:"bound,omitempty"`
}

// GeoBound is a WGS84 bounding box
type GeoBound struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// TileStatistics summarizes the tile hunting state of a user
type TileStatistics struct {
	TotalVisitedTiles int `json:"totalVisitedTiles"`
	MaxSquareSize     int `json:"maxSquareSize"`
}

// IngestResult is returned after a track has been converted into visited tiles
type IngestResult struct {
	WorkoutID     int64     `json:"workoutId"`
	Points        int       `json:"points"`
	SkippedPoints int       `json:"skippedPoints"`
	DistinctTiles int       `json:"distinctTiles"`
	LengthMeters  float64   `json:"lengthMeters"`
	Bound         *GeoBound `json:"bound,omitempty"`
}
