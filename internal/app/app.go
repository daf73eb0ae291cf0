package app

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jengzang/sporttracker-backend-go/internal/config"
	"github.com/jengzang/sporttracker-backend-go/internal/database"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/repository"
	"github.com/jengzang/sporttracker-backend-go/internal/service"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	maxSquareCacheName = "max_square"
	newTilesCacheName  = "new_tiles"
)

// App holds the services shared by the HTTP server and the CLI
type App struct {
	DB           *sql.DB
	Workouts     *service.WorkoutService
	Tiles        *service.TileHuntingService
	PlannedTours *service.PlannedTourService

	redis *redis.Client
}

// New opens the database, migrates it and builds the services
func New(cfg *config.Config, l logger.Logger) (*App, error) {
	settings, err := tileSettings(cfg.Tile)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(database.Config{Path: cfg.DBPath}, l)
	if err != nil {
		return nil, err
	}

	a := &App{DB: db}

	maxSquareCache, newTilesCache, err := a.caches(cfg.Redis, l)
	if err != nil {
		db.Close()
		return nil, err
	}

	workoutRepo := repository.NewWorkoutRepository(db)
	tileRepo := repository.NewVisitedTileRepository(db)
	tourRepo := repository.NewPlannedTourRepository(db)

	a.Workouts = service.NewWorkoutService(workoutRepo)
	a.Tiles = service.NewTileHuntingService(workoutRepo, tileRepo, maxSquareCache, newTilesCache, settings, l)
	a.PlannedTours = service.NewPlannedTourService(tourRepo, settings.BaseZoom, l)

	return a, nil
}

func (a *App) caches(cfg config.Redis, l logger.Logger) (*service.MaxSquareCache, *service.NewTilesCache, error) {
	if !cfg.Enabled {
		return tilehunting.NewAggregationCache[[]models.TilePosition](maxSquareCacheName, tilehunting.NewMemoryBackend[[]models.TilePosition](), l),
			tilehunting.NewAggregationCache[[]models.NewTilesPerWorkout](newTilesCacheName, tilehunting.NewMemoryBackend[[]models.NewTilesPerWorkout](), l),
			nil
	}

	client, err := tilehunting.NewRedisClient(tilehunting.RedisConfig{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	a.redis = client
	l.Info("aggregation caches backed by redis", "addr", cfg.Addr, "ttl", cfg.TTL)

	return tilehunting.NewAggregationCache[[]models.TilePosition](maxSquareCacheName,
			tilehunting.NewRedisBackend[[]models.TilePosition](client, maxSquareCacheName, cfg.TTL), l),
		tilehunting.NewAggregationCache[[]models.NewTilesPerWorkout](newTilesCacheName,
			tilehunting.NewRedisBackend[[]models.NewTilesPerWorkout](client, newTilesCacheName, cfg.TTL), l),
		nil
}

// Close releases the database and redis connections
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}

func tileSettings(cfg config.Tile) (service.TileSettings, error) {
	border, err := tilehunting.ParseHexColor(cfg.BorderColor)
	if err != nil {
		return service.TileSettings{}, fmt.Errorf("invalid TILE_BORDER_COLOR: %w", err)
	}
	highlight, err := tilehunting.ParseHexColor(cfg.MaxSquareColor)
	if err != nil {
		return service.TileSettings{}, fmt.Errorf("invalid TILE_MAX_SQUARE_COLOR: %w", err)
	}

	return service.TileSettings{
		BaseZoom:       cfg.BaseZoom,
		TileSize:       cfg.Size,
		BorderColor:    border,
		MaxSquareColor: highlight,
	}, nil
}
