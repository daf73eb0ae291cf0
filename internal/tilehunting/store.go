// Package tilehunting turns GPS tracks into visited map tiles and answers
// coverage questions about them: aggregated statistics, the largest fully
// visited square and rendered overlay tiles.
//
// All persisted tiles live at a single base zoom level chosen per deployment.
// Rendering at other zoom levels maps the requested tile onto that grid.
package tilehunting

import (
	"context"

	"github.com/jengzang/sporttracker-backend-go/internal/models"
)

// VisitedTileStore is the persistence contract of the engine.
// Implementations own transactions; errors are returned unchanged to the caller.
type VisitedTileStore interface {
	// ReplaceTiles swaps the full tile set of a workout atomically
	ReplaceTiles(ctx context.Context, workoutID int64, tiles []models.TilePosition) error
	QueryColorPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TileColorPosition, error)
	QueryCountPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TileCountPosition, error)
	// QueryAllDistinct returns every visited tile once, sorted by (x, y)
	QueryAllDistinct(ctx context.Context, userID int64, filter models.TileFilter) ([]models.TilePosition, error)
	// QueryNovelTiles returns the tiles of a workout that no earlier workout of the same user visited
	QueryNovelTiles(ctx context.Context, workoutID int64) ([]models.TilePosition, error)
	// ListTrackedWorkouts returns the workouts with a track matching filter, ordered by start time
	ListTrackedWorkouts(ctx context.Context, userID int64, filter models.TileFilter) ([]models.Workout, error)
}

// RenderSource is the read side the renderer needs
type RenderSource interface {
	QueryColorPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TileColorPosition, error)
	QueryCountPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TileCountPosition, error)
	QueryWorkoutColorPositions(ctx context.Context, userID, workoutID int64, bounds models.TileBounds) ([]models.TileColorPosition, error)
	QueryPlannedPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TilePosition, error)
	QueryNovelTiles(ctx context.Context, workoutID int64) ([]models.TilePosition, error)
}
