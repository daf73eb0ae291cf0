package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/sporttracker-backend-go/internal/database"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
)

// VisitedTileRepository persists the base zoom tiles visited by workout tracks
type VisitedTileRepository struct {
	db *sql.DB
}

// NewVisitedTileRepository creates a new visited tile repository
func NewVisitedTileRepository(db *sql.DB) *VisitedTileRepository {
	return &VisitedTileRepository{db: db}
}

var (
	_ tilehunting.VisitedTileStore = (*VisitedTileRepository)(nil)
	_ tilehunting.RenderSource     = (*VisitedTileRepository)(nil)
)

// ReplaceTiles swaps the tile set of a workout in one transaction.
// The workout is flagged as tracked when tiles is not empty.
func (r *VisitedTileRepository) ReplaceTiles(ctx context.Context, workoutID int64, tiles []models.TilePosition) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE workout SET has_track = ? WHERE id = ?", len(tiles) > 0, workoutID)
		if err != nil {
			return fmt.Errorf("failed to update workout %d: %w", workoutID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("%w: %d", ErrWorkoutNotFound, workoutID)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM visited_tile WHERE workout_id = ?", workoutID); err != nil {
			return fmt.Errorf("failed to delete visited tiles of workout %d: %w", workoutID, err)
		}

		if len(tiles) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO visited_tile (workout_id, x, y) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare tile insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range tiles {
			if _, err := stmt.ExecContext(ctx, workoutID, t.X, t.Y); err != nil {
				return fmt.Errorf("failed to insert visited tile (%d, %d): %w", t.X, t.Y, err)
			}
		}
		return nil
	})
}

// QueryColorPositions returns one row per (tile, workout type) inside bounds
func (r *VisitedTileRepository) QueryColorPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TileColorPosition, error) {
	conditions, args, ok := filterConditions(filter)
	if !ok {
		return []models.TileColorPosition{}, nil
	}
	boundConds, boundArgs := boundsConditions("vt", bounds)

	query := `SELECT w.type, vt.x, vt.y
		FROM visited_tile vt
		JOIN workout w ON w.id = vt.workout_id
		WHERE w.user_id = ? AND ` + strings.Join(append(conditions, boundConds...), " AND ") + `
		GROUP BY vt.x, vt.y, w.type`

	args = append(append([]interface{}{userID}, args...), boundArgs...)
	return r.queryColorPositions(ctx, query, args...)
}

// QueryWorkoutColorPositions returns the tiles of a single workout inside bounds
func (r *VisitedTileRepository) QueryWorkoutColorPositions(ctx context.Context, userID, workoutID int64, bounds models.TileBounds) ([]models.TileColorPosition, error) {
	boundConds, boundArgs := boundsConditions("vt", bounds)

	query := `SELECT w.type, vt.x, vt.y
		FROM visited_tile vt
		JOIN workout w ON w.id = vt.workout_id
		WHERE w.user_id = ? AND w.id = ? AND ` + strings.Join(boundConds, " AND ")

	args := append([]interface{}{userID, workoutID}, boundArgs...)
	return r.queryColorPositions(ctx, query, args...)
}

func (r *VisitedTileRepository) queryColorPositions(ctx context.Context, query string, args ...interface{}) ([]models.TileColorPosition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tile colors: %w", err)
	}
	defer rows.Close()

	positions := []models.TileColorPosition{}
	for rows.Next() {
		var workoutType string
		var p models.TileColorPosition
		if err := rows.Scan(&workoutType, &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("failed to scan tile color: %w", err)
		}

		info, ok := models.WorkoutType(workoutType).Info()
		if !ok {
			return nil, fmt.Errorf("unknown workout type %q on tile (%d, %d)", workoutType, p.X, p.Y)
		}
		p.TileColor = info.TileColor
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// QueryCountPositions returns the number of distinct workouts per tile inside bounds
func (r *VisitedTileRepository) QueryCountPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TileCountPosition, error) {
	conditions, args, ok := filterConditions(filter)
	if !ok {
		return []models.TileCountPosition{}, nil
	}
	boundConds, boundArgs := boundsConditions("vt", bounds)

	query := `SELECT COUNT(DISTINCT vt.workout_id), vt.x, vt.y
		FROM visited_tile vt
		JOIN workout w ON w.id = vt.workout_id
		WHERE w.user_id = ? AND ` + strings.Join(append(conditions, boundConds...), " AND ") + `
		GROUP BY vt.x, vt.y`

	args = append(append([]interface{}{userID}, args...), boundArgs...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit counts: %w", err)
	}
	defer rows.Close()

	positions := []models.TileCountPosition{}
	for rows.Next() {
		var p models.TileCountPosition
		if err := rows.Scan(&p.Count, &p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("failed to scan visit count: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// QueryAllDistinct returns every tile visited by a workout matching filter, sorted by (x, y)
func (r *VisitedTileRepository) QueryAllDistinct(ctx context.Context, userID int64, filter models.TileFilter) ([]models.TilePosition, error) {
	conditions, args, ok := filterConditions(filter)
	if !ok {
		return []models.TilePosition{}, nil
	}

	query := `SELECT DISTINCT vt.x, vt.y
		FROM visited_tile vt
		JOIN workout w ON w.id = vt.workout_id
		WHERE w.user_id = ? AND ` + strings.Join(conditions, " AND ") + `
		ORDER BY vt.x, vt.y`

	return r.queryPositions(ctx, query, append([]interface{}{userID}, args...)...)
}

// QueryNovelTiles returns the tiles of a workout that no workout of the same
// user with an earlier start time visited, regardless of its type
func (r *VisitedTileRepository) QueryNovelTiles(ctx context.Context, workoutID int64) ([]models.TilePosition, error) {
	query := `SELECT vt.x, vt.y
		FROM visited_tile vt
		JOIN workout cur ON cur.id = vt.workout_id
		WHERE vt.workout_id = ?
		  AND NOT EXISTS (
			SELECT 1
			FROM visited_tile prev_tile
			JOIN workout prev ON prev.id = prev_tile.workout_id
			WHERE prev.user_id = cur.user_id
			  AND prev.start_time < cur.start_time
			  AND prev_tile.x = vt.x
			  AND prev_tile.y = vt.y
		  )
		ORDER BY vt.x, vt.y`

	return r.queryPositions(ctx, query, workoutID)
}

// QueryPlannedPositions returns the tiles of planned tours of matching type inside bounds
func (r *VisitedTileRepository) QueryPlannedPositions(ctx context.Context, userID int64, filter models.TileFilter, bounds models.TileBounds) ([]models.TilePosition, error) {
	if len(filter.Types) == 0 {
		return []models.TilePosition{}, nil
	}
	boundConds, boundArgs := boundsConditions("pt", bounds)

	query := `SELECT DISTINCT pt.x, pt.y
		FROM planned_tile pt
		JOIN planned_tour t ON t.id = pt.planned_tour_id
		WHERE t.user_id = ? AND t.type IN (` + placeholders(len(filter.Types)) + `) AND ` + strings.Join(boundConds, " AND ") + `
		ORDER BY pt.x, pt.y`

	args := []interface{}{userID}
	for _, t := range filter.Types {
		args = append(args, string(t))
	}
	args = append(args, boundArgs...)

	return r.queryPositions(ctx, query, args...)
}

// ListTrackedWorkouts returns the workouts with a track matching filter, ordered by start time
func (r *VisitedTileRepository) ListTrackedWorkouts(ctx context.Context, userID int64, filter models.TileFilter) ([]models.Workout, error) {
	conditions, args, ok := filterConditions(filter)
	if !ok {
		return []models.Workout{}, nil
	}

	query := "SELECT " + workoutColumns + ` FROM workout w
		WHERE w.user_id = ? AND w.has_track = 1 AND ` + strings.Join(conditions, " AND ") + `
		ORDER BY w.start_time, w.id`

	rows, err := r.db.QueryContext(ctx, query, append([]interface{}{userID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked workouts: %w", err)
	}
	defer rows.Close()

	workouts := []models.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

func (r *VisitedTileRepository) queryPositions(ctx context.Context, query string, args ...interface{}) ([]models.TilePosition, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tiles: %w", err)
	}
	defer rows.Close()

	positions := []models.TilePosition{}
	for rows.Next() {
		var p models.TilePosition
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("failed to scan tile: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
