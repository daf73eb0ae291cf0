package service

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"slices"

	"github.com/jengzang/sporttracker-backend-go/internal/gpx"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/repository"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/metrics"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

type (
	MaxSquareCache = tilehunting.AggregationCache[[]models.TilePosition]
	NewTilesCache  = tilehunting.AggregationCache[[]models.NewTilesPerWorkout]
)

// TileSettings are the deployment wide rendering defaults
type TileSettings struct {
	BaseZoom       int
	TileSize       int
	BorderColor    color.NRGBA
	MaxSquareColor color.NRGBA
}

// TileHuntingService owns every operation that reads or mutates visited tiles.
// Writes invalidate both aggregation caches of the user before returning.
type TileHuntingService struct {
	workouts       *repository.WorkoutRepository
	tiles          *repository.VisitedTileRepository
	renderer       *tilehunting.Renderer
	maxSquareCache *MaxSquareCache
	newTilesCache  *NewTilesCache
	settings       TileSettings
	logger         logger.Logger
}

// NewTileHuntingService creates a new tile hunting service
func NewTileHuntingService(
	workouts *repository.WorkoutRepository,
	tiles *repository.VisitedTileRepository,
	maxSquareCache *MaxSquareCache,
	newTilesCache *NewTilesCache,
	settings TileSettings,
	l logger.Logger,
) *TileHuntingService {
	return &TileHuntingService{
		workouts:       workouts,
		tiles:          tiles,
		renderer:       tilehunting.NewRenderer(settings.BaseZoom, tiles, l),
		maxSquareCache: maxSquareCache,
		newTilesCache:  newTilesCache,
		settings:       settings,
		logger:         l,
	}
}

// Settings returns the rendering defaults
func (s *TileHuntingService) Settings() TileSettings {
	return s.settings
}

// IngestTrack replaces the visited tiles of a workout with the tiles of a GPX track
func (s *TileHuntingService) IngestTrack(ctx context.Context, userID, workoutID int64, r io.Reader) (*models.IngestResult, error) {
	workout, err := s.workouts.GetByID(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if info, ok := workout.Type.Info(); !ok || !info.HasTrack {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotSupported, workout.Type)
	}

	points, err := gpx.Parse(r)
	if err != nil {
		return nil, err
	}

	positions, stats, err := tilehunting.Ingest(points, s.settings.BaseZoom)
	if err != nil {
		return nil, fmt.Errorf("failed to convert track into tiles: %w", err)
	}

	if err := s.tiles.ReplaceTiles(ctx, workoutID, positions); err != nil {
		return nil, fmt.Errorf("failed to store visited tiles: %w", err)
	}
	if err := s.invalidate(ctx, userID); err != nil {
		return nil, err
	}

	metrics.IngestedTracks.Inc()
	metrics.IngestSkippedPoints.Add(float64(stats.Skipped))
	if stats.DistinctTiles > 0 {
		metrics.IngestTileRatio.Observe(stats.PointsPerTile())
	}
	s.logger.Debug("ingested track",
		"workout_id", workoutID,
		"points", stats.Points,
		"skipped", stats.Skipped,
		"tiles", stats.DistinctTiles,
		"points_per_tile", stats.PointsPerTile())

	result := &models.IngestResult{
		WorkoutID:     workoutID,
		Points:        stats.Points,
		SkippedPoints: stats.Skipped,
		DistinctTiles: stats.DistinctTiles,
		LengthMeters:  stats.LengthMeters,
	}
	if stats.DistinctTiles > 0 {
		result.Bound = geoBound(stats.Bound)
	}
	return result, nil
}

// RemoveTrack drops every visited tile of a workout and keeps its metadata
func (s *TileHuntingService) RemoveTrack(ctx context.Context, userID, workoutID int64) error {
	if _, err := s.workouts.GetByID(ctx, userID, workoutID); err != nil {
		return err
	}

	if err := s.tiles.ReplaceTiles(ctx, workoutID, nil); err != nil {
		return fmt.Errorf("failed to remove visited tiles: %w", err)
	}
	return s.invalidate(ctx, userID)
}

// DeleteWorkout removes a workout together with its visited tiles
func (s *TileHuntingService) DeleteWorkout(ctx context.Context, userID, workoutID int64) error {
	if err := s.workouts.Delete(ctx, userID, workoutID); err != nil {
		return err
	}
	return s.invalidate(ctx, userID)
}

func (s *TileHuntingService) invalidate(ctx context.Context, userID int64) error {
	if err := s.maxSquareCache.InvalidateByUser(ctx, userID); err != nil {
		return err
	}
	return s.newTilesCache.InvalidateByUser(ctx, userID)
}

// MaxSquareTiles returns the tiles of the largest fully visited square.
// The slice is a copy, callers may modify it.
func (s *TileHuntingService) MaxSquareTiles(ctx context.Context, userID int64, filter models.TileFilter) ([]models.TilePosition, error) {
	squareTiles, err := s.maxSquareCache.GetOrCompute(ctx, tilehunting.Key(userID, filter), func(ctx context.Context) ([]models.TilePosition, error) {
		visited, err := s.tiles.QueryAllDistinct(ctx, userID, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to load visited tiles: %w", err)
		}
		return tilehunting.MaxSquare(visited), nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(squareTiles), nil
}

// MaxSquare returns the largest fully visited square with its geographic bound
func (s *TileHuntingService) MaxSquare(ctx context.Context, userID int64, filter models.TileFilter) (*models.MaxSquareResult, error) {
	squareTiles, err := s.MaxSquareTiles(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	result := &models.MaxSquareResult{
		Size:  squareSize(squareTiles),
		Tiles: squareTiles,
		Zoom:  s.settings.BaseZoom,
	}
	if b, ok := tileSetBound(squareTiles, s.settings.BaseZoom); ok {
		result.Bound = geoBound(b)
	}
	return result, nil
}

// NewTilesPerWorkout returns the number of first visited tiles of every
// tracked workout matching filter, ordered by start time. The slice is a copy.
func (s *TileHuntingService) NewTilesPerWorkout(ctx context.Context, userID int64, filter models.TileFilter) ([]models.NewTilesPerWorkout, error) {
	perWorkout, err := s.newTilesCache.GetOrCompute(ctx, tilehunting.Key(userID, filter), func(ctx context.Context) ([]models.NewTilesPerWorkout, error) {
		workouts, err := s.tiles.ListTrackedWorkouts(ctx, userID, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list tracked workouts: %w", err)
		}

		result := make([]models.NewTilesPerWorkout, 0, len(workouts))
		for _, w := range workouts {
			novel, err := s.tiles.QueryNovelTiles(ctx, w.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load new tiles of workout %d: %w", w.ID, err)
			}
			result = append(result, models.NewTilesPerWorkout{
				WorkoutID:        w.ID,
				Type:             w.Type,
				Name:             w.Name,
				StartTime:        w.StartTime,
				NumberOfNewTiles: len(novel),
			})
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(perWorkout), nil
}

// Statistics summarizes the tile hunting progress of a user
func (s *TileHuntingService) Statistics(ctx context.Context, userID int64, filter models.TileFilter) (*models.TileStatistics, error) {
	perWorkout, err := s.NewTilesPerWorkout(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	squareTiles, err := s.MaxSquareTiles(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, w := range perWorkout {
		total += w.NumberOfNewTiles
	}

	return &models.TileStatistics{
		TotalVisitedTiles: total,
		MaxSquareSize:     squareSize(squareTiles),
	}, nil
}

// NewTilesPerTypePerYear sums the new tiles per workout type for every year in [minYear, maxYear]
func (s *TileHuntingService) NewTilesPerTypePerYear(ctx context.Context, userID int64, types []models.WorkoutType, minYear, maxYear int) (map[models.WorkoutType]map[int]int, error) {
	if minYear > maxYear {
		return nil, fmt.Errorf("invalid year range %d-%d", minYear, maxYear)
	}

	years := make([]int, 0, maxYear-minYear+1)
	for y := minYear; y <= maxYear; y++ {
		years = append(years, y)
	}

	perWorkout, err := s.NewTilesPerWorkout(ctx, userID, models.TileFilter{Types: types, Years: years})
	if err != nil {
		return nil, err
	}

	result := make(map[models.WorkoutType]map[int]int, len(types))
	for _, t := range types {
		perYear := make(map[int]int, len(years))
		for _, y := range years {
			perYear[y] = 0
		}
		result[t] = perYear
	}
	for _, w := range perWorkout {
		if perYear, ok := result[w.Type]; ok {
			perYear[w.StartTime.Year()] += w.NumberOfNewTiles
		}
	}
	return result, nil
}

// TileRequest describes one overlay tile a user asks for
type TileRequest struct {
	X, Y, Zoom int
	// TileSize overrides the configured size when positive
	TileSize      int
	Mode          tilehunting.ColorMode
	Filter        models.TileFilter
	ShowBorder    bool
	ShowMaxSquare bool
	ShowPlanned   bool
	WorkoutID     *int64
	OnlyNew       bool
}

// RenderTile renders an overlay tile as PNG
func (s *TileHuntingService) RenderTile(ctx context.Context, userID int64, req TileRequest) ([]byte, error) {
	renderReq := tilehunting.RenderRequest{
		X:           req.X,
		Y:           req.Y,
		Zoom:        req.Zoom,
		TileSize:    s.settings.TileSize,
		Mode:        req.Mode,
		Filter:      req.Filter,
		WorkoutID:   req.WorkoutID,
		OnlyNew:     req.OnlyNew,
		ShowPlanned: req.ShowPlanned && req.WorkoutID == nil,
	}
	if req.TileSize > 0 {
		renderReq.TileSize = req.TileSize
	}
	if req.ShowBorder {
		border := s.settings.BorderColor
		renderReq.BorderColor = &border
	}

	if req.WorkoutID != nil {
		if _, err := s.workouts.GetByID(ctx, userID, *req.WorkoutID); err != nil {
			return nil, err
		}
	}

	if req.ShowMaxSquare {
		squareTiles, err := s.MaxSquareTiles(ctx, userID, req.Filter)
		if err != nil {
			return nil, err
		}
		highlight := s.settings.MaxSquareColor
		renderReq.MaxSquareColor = &highlight
		renderReq.MaxSquare = squareTiles
	}

	img, err := s.renderer.Render(ctx, userID, renderReq)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tilehunting.EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func squareSize(squareTiles []models.TilePosition) int {
	return int(math.Sqrt(float64(len(squareTiles))))
}

// tileSetBound is the lon/lat bound covering every tile. ok is false for an empty set.
func tileSetBound(positions []models.TilePosition, zoom int) (orb.Bound, bool) {
	b, ok := models.BoundsOf(positions)
	if !ok {
		return orb.Bound{}, false
	}
	z := maptile.Zoom(zoom)

	topLeft := maptile.New(uint32(b.MinX), uint32(b.MinY), z).Bound()
	bottomRight := maptile.New(uint32(b.MaxX), uint32(b.MaxY), z).Bound()
	return topLeft.Union(bottomRight), true
}

func geoBound(b orb.Bound) *models.GeoBound {
	return &models.GeoBound{
		MinLat: b.Min.Lat(),
		MinLon: b.Min.Lon(),
		MaxLat: b.Max.Lat(),
		MaxLon: b.Max.Lon(),
	}
}
