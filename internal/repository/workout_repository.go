package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/sporttracker-backend-go/internal/models"
)

// ErrWorkoutNotFound is returned for unknown workouts and workouts of other users
var ErrWorkoutNotFound = errors.New("workout not found")

// WorkoutRepository handles database operations for workout metadata
type WorkoutRepository struct {
	db *sql.DB
}

// NewWorkoutRepository creates a new workout repository
func NewWorkoutRepository(db *sql.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

const workoutColumns = "w.id, w.user_id, w.type, w.name, w.start_time, w.has_track"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkout(row rowScanner) (*models.Workout, error) {
	var w models.Workout
	var workoutType string
	var startTime int64
	if err := row.Scan(&w.ID, &w.UserID, &workoutType, &w.Name, &startTime, &w.HasTrack); err != nil {
		return nil, err
	}
	w.Type = models.WorkoutType(workoutType)
	w.StartTime = time.Unix(startTime, 0).UTC()
	return &w, nil
}

// Create inserts a workout without a track
func (r *WorkoutRepository) Create(ctx context.Context, userID int64, workoutType models.WorkoutType, name string, startTime time.Time) (*models.Workout, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO workout (user_id, type, name, start_time) VALUES (?, ?, ?, ?)",
		userID, string(workoutType), name, startTime.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create workout: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get workout id: %w", err)
	}

	return &models.Workout{
		ID:        id,
		UserID:    userID,
		Type:      workoutType,
		Name:      name,
		StartTime: time.Unix(startTime.Unix(), 0).UTC(),
	}, nil
}

// GetByID returns the workout id of userID
func (r *WorkoutRepository) GetByID(ctx context.Context, userID, id int64) (*models.Workout, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+workoutColumns+" FROM workout w WHERE w.id = ? AND w.user_id = ?", id, userID)

	w, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrWorkoutNotFound, id)
		}
		return nil, fmt.Errorf("failed to get workout %d: %w", id, err)
	}
	return w, nil
}

// ListByUser returns all workouts of userID ordered by start time
func (r *WorkoutRepository) ListByUser(ctx context.Context, userID int64) ([]models.Workout, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+workoutColumns+" FROM workout w WHERE w.user_id = ? ORDER BY w.start_time, w.id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
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

// ListYears returns the distinct start years of the workouts of userID, ascending
func (r *WorkoutRepository) ListYears(ctx context.Context, userID int64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT "+yearOfStartTime+" AS year FROM workout w WHERE w.user_id = ? ORDER BY year", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workout years: %w", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, fmt.Errorf("failed to scan workout year: %w", err)
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

// Delete removes a workout; its visited tiles cascade
func (r *WorkoutRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM workout WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete workout %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete workout %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrWorkoutNotFound, id)
	}
	return nil
}
