package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jengzang/sporttracker-backend-go/internal/gpx"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/repository"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
)

// PlannedTourService manages planned tours. Their tiles only feed rendering,
// so changes never touch the aggregation caches.
type PlannedTourService struct {
	tourRepo *repository.PlannedTourRepository
	baseZoom int
	logger   logger.Logger
}

func NewPlannedTourService(tourRepo *repository.PlannedTourRepository, baseZoom int, l logger.Logger) *PlannedTourService {
	return &PlannedTourService{
		tourRepo: tourRepo,
		baseZoom: baseZoom,
		logger:   l,
	}
}

func (s *PlannedTourService) CreatePlannedTour(ctx context.Context, userID int64, req models.CreatePlannedTourRequest) (*models.PlannedTour, error) {
	tourType, err := models.ParseWorkoutType(strings.ToUpper(req.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info, _ := tourType.Info(); !info.HasTrack {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotSupported, tourType)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	return s.tourRepo.Create(ctx, userID, tourType, name)
}

func (s *PlannedTourService) ListPlannedTours(ctx context.Context, userID int64) ([]models.PlannedTour, error) {
	return s.tourRepo.ListByUser(ctx, userID)
}

// UploadTrack replaces the planned tiles of a tour with the tiles of a GPX route
func (s *PlannedTourService) UploadTrack(ctx context.Context, userID, tourID int64, r io.Reader) (int, error) {
	if _, err := s.tourRepo.GetByID(ctx, userID, tourID); err != nil {
		return 0, err
	}

	points, err := gpx.Parse(r)
	if err != nil {
		return 0, err
	}

	positions, stats, err := tilehunting.Ingest(points, s.baseZoom)
	if err != nil {
		return 0, fmt.Errorf("failed to convert route into tiles: %w", err)
	}

	if err := s.tourRepo.ReplaceTiles(ctx, tourID, positions); err != nil {
		return 0, fmt.Errorf("failed to store planned tiles: %w", err)
	}

	s.logger.Debug("stored planned tour tiles", "tour_id", tourID, "tiles", stats.DistinctTiles, "skipped", stats.Skipped)
	return stats.DistinctTiles, nil
}

func (s *PlannedTourService) DeletePlannedTour(ctx context.Context, userID, tourID int64) error {
	return s.tourRepo.Delete(ctx, userID, tourID)
}
