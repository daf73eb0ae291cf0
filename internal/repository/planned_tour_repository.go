package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/sporttracker-backend-go/internal/database"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
)

var ErrPlannedTourNotFound = errors.New("planned tour not found")

// PlannedTourRepository handles planned tours and the tiles their routes cross
type PlannedTourRepository struct {
	db *sql.DB
}

func NewPlannedTourRepository(db *sql.DB) *PlannedTourRepository {
	return &PlannedTourRepository{db: db}
}

func (r *PlannedTourRepository) Create(ctx context.Context, userID int64, tourType models.WorkoutType, name string) (*models.PlannedTour, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO planned_tour (user_id, type, name) VALUES (?, ?, ?)", userID, string(tourType), name)
	if err != nil {
		return nil, fmt.Errorf("failed to create planned tour: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get planned tour id: %w", err)
	}

	return &models.PlannedTour{ID: id, UserID: userID, Type: tourType, Name: name}, nil
}

func (r *PlannedTourRepository) GetByID(ctx context.Context, userID, id int64) (*models.PlannedTour, error) {
	var tour models.PlannedTour
	var tourType string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, type, name FROM planned_tour WHERE id = ? AND user_id = ?", id, userID).
		Scan(&tour.ID, &tour.UserID, &tourType, &tour.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrPlannedTourNotFound, id)
		}
		return nil, fmt.Errorf("failed to get planned tour %d: %w", id, err)
	}

	tour.Type = models.WorkoutType(tourType)
	return &tour, nil
}

func (r *PlannedTourRepository) ListByUser(ctx context.Context, userID int64) ([]models.PlannedTour, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, type, name FROM planned_tour WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned tours: %w", err)
	}
	defer rows.Close()

	tours := []models.PlannedTour{}
	for rows.Next() {
		var tour models.PlannedTour
		var tourType string
		if err := rows.Scan(&tour.ID, &tour.UserID, &tourType, &tour.Name); err != nil {
			return nil, fmt.Errorf("failed to scan planned tour: %w", err)
		}
		tour.Type = models.WorkoutType(tourType)
		tours = append(tours, tour)
	}
	return tours, rows.Err()
}

// ReplaceTiles swaps the tile set of a planned tour in one transaction
func (r *PlannedTourRepository) ReplaceTiles(ctx context.Context, tourID int64, tiles []models.TilePosition) error {
	return database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM planned_tile WHERE planned_tour_id = ?", tourID); err != nil {
			return fmt.Errorf("failed to delete planned tiles of tour %d: %w", tourID, err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO planned_tile (planned_tour_id, x, y) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare planned tile insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range tiles {
			if _, err := stmt.ExecContext(ctx, tourID, t.X, t.Y); err != nil {
				return fmt.Errorf("failed to insert planned tile (%d, %d): %w", t.X, t.Y, err)
			}
		}
		return nil
	})
}

func (r *PlannedTourRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM planned_tour WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete planned tour %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete planned tour %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrPlannedTourNotFound, id)
	}
	return nil
}
