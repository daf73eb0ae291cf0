package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/repository"
)

// WorkoutService handles workout metadata. Track and delete operations live in
// TileHuntingService because they change visited tiles.
type WorkoutService struct {
	workoutRepo *repository.WorkoutRepository
}

// NewWorkoutService creates a new workout service
func NewWorkoutService(workoutRepo *repository.WorkoutRepository) *WorkoutService {
	return &WorkoutService{workoutRepo: workoutRepo}
}

// CreateWorkout validates and stores a new workout
func (s *WorkoutService) CreateWorkout(ctx context.Context, userID int64, req models.CreateWorkoutRequest) (*models.Workout, error) {
	workoutType, err := models.ParseWorkoutType(strings.ToUpper(req.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	return s.workoutRepo.Create(ctx, userID, workoutType, name, req.StartTime)
}

// GetWorkout returns a workout of userID
func (s *WorkoutService) GetWorkout(ctx context.Context, userID, id int64) (*models.Workout, error) {
	return s.workoutRepo.GetByID(ctx, userID, id)
}

// ListWorkouts returns all workouts of userID ordered by start time
func (s *WorkoutService) ListWorkouts(ctx context.Context, userID int64) ([]models.Workout, error) {
	return s.workoutRepo.ListByUser(ctx, userID)
}

// DefaultFilter completes a partial filter: missing types become every
// distance workout type, missing years every year the user has workouts in
func (s *WorkoutService) DefaultFilter(ctx context.Context, userID int64, filter models.TileFilter) (models.TileFilter, error) {
	if len(filter.Types) == 0 {
		filter.Types = models.DistanceWorkoutTypes()
	}
	if len(filter.Years) == 0 {
		years, err := s.workoutRepo.ListYears(ctx, userID)
		if err != nil {
			return filter, err
		}
		filter.Years = years
	}
	return filter.Normalized(), nil
}
