package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jengzang/sporttracker-backend-go/internal/database"
	"github.com/jengzang/sporttracker-backend-go/internal/gpx"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/repository"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
)

const testBaseZoom = 14

type testEnv struct {
	ctx      context.Context
	tiles    *TileHuntingService
	workouts *WorkoutService
	tours    *PlannedTourService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "service.db")}, logger.NewNoOp())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	l := logger.NewNoOp()
	workoutRepo := repository.NewWorkoutRepository(db)
	tileRepo := repository.NewVisitedTileRepository(db)

	settings := TileSettings{
		BaseZoom:       testBaseZoom,
		TileSize:       256,
		BorderColor:    color.NRGBA{A: 0x60},
		MaxSquareColor: color.NRGBA{B: 0xFF, A: 0x60},
	}

	return &testEnv{
		ctx: context.Background(),
		tiles: NewTileHuntingService(workoutRepo, tileRepo,
			tilehunting.NewAggregationCache(t.Name()+"_max_square", tilehunting.NewMemoryBackend[[]models.TilePosition](), l),
			tilehunting.NewAggregationCache(t.Name()+"_new_tiles", tilehunting.NewMemoryBackend[[]models.NewTilesPerWorkout](), l),
			settings, l),
		workouts: NewWorkoutService(workoutRepo),
		tours:    NewPlannedTourService(repository.NewPlannedTourRepository(db), testBaseZoom, l),
	}
}

// gpxThrough builds a GPX track visiting the center of every tile at zoom
func gpxThrough(zoom int, positions ...[2]int) string {
	n := math.Exp2(float64(zoom))

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"><trk><trkseg>`)
	for _, p := range positions {
		lon := (float64(p[0])+0.5)/n*360 - 180
		lat := math.Atan(math.Sinh(math.Pi*(1-2*(float64(p[1])+0.5)/n))) * 180 / math.Pi
		fmt.Fprintf(&b, `<trkpt lat="%.10f" lon="%.10f"></trkpt>`, lat, lon)
	}
	b.WriteString(`</trkseg></trk></gpx>`)
	return b.String()
}

func (e *testEnv) workoutWithTrack(t *testing.T, workoutType string, start time.Time, positions ...[2]int) *models.Workout {
	t.Helper()

	w, err := e.workouts.CreateWorkout(e.ctx, 1, models.CreateWorkoutRequest{Type: workoutType, Name: workoutType, StartTime: start})
	if err != nil {
		t.Fatalf("CreateWorkout() error = %v", err)
	}

	result, err := e.tiles.IngestTrack(e.ctx, 1, w.ID, strings.NewReader(gpxThrough(testBaseZoom, positions...)))
	if err != nil {
		t.Fatalf("IngestTrack() error = %v", err)
	}
	if result.DistinctTiles != len(positions) {
		t.Fatalf("IngestTrack() produced %d tiles, want %d", result.DistinctTiles, len(positions))
	}
	return w
}

var filter2024 = models.TileFilter{Types: models.DistanceWorkoutTypes(), Years: []int{2024}}

func TestTileHuntingScenario(t *testing.T) {
	env := newTestEnv(t)

	first := env.workoutWithTrack(t, "BIKING", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		[2]int{10, 10}, [2]int{10, 11}, [2]int{11, 10}, [2]int{11, 11})
	second := env.workoutWithTrack(t, "RUNNING", time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC),
		[2]int{20, 20})

	square, err := env.tiles.MaxSquare(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatalf("MaxSquare() error = %v", err)
	}
	if square.Size != 2 || len(square.Tiles) != 4 || square.Tiles[0] != (models.TilePosition{X: 10, Y: 10}) {
		t.Errorf("MaxSquare() = %+v, want the 2x2 block at (10,10)", square)
	}
	if square.Bound == nil || square.Bound.MinLon >= square.Bound.MaxLon || square.Bound.MinLat >= square.Bound.MaxLat {
		t.Errorf("MaxSquare() bound = %+v, want a non-empty bound", square.Bound)
	}

	perWorkout, err := env.tiles.NewTilesPerWorkout(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatalf("NewTilesPerWorkout() error = %v", err)
	}
	if len(perWorkout) != 2 ||
		perWorkout[0].WorkoutID != first.ID || perWorkout[0].NumberOfNewTiles != 4 ||
		perWorkout[1].WorkoutID != second.ID || perWorkout[1].NumberOfNewTiles != 1 {
		t.Errorf("NewTilesPerWorkout() = %+v, want [4, 1] in start time order", perWorkout)
	}

	stats, err := env.tiles.Statistics(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVisitedTiles != 5 || stats.MaxSquareSize != 2 {
		t.Errorf("Statistics() = %+v, want 5 tiles and size 2", stats)
	}

	// removing the track must invalidate both cached results
	if err := env.tiles.RemoveTrack(env.ctx, 1, first.ID); err != nil {
		t.Fatalf("RemoveTrack() error = %v", err)
	}

	square, err = env.tiles.MaxSquare(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	if square.Size != 1 || len(square.Tiles) != 1 || square.Tiles[0] != (models.TilePosition{X: 20, Y: 20}) {
		t.Errorf("MaxSquare() after RemoveTrack = %+v, want the single tile (20,20)", square)
	}

	stats, err = env.tiles.Statistics(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVisitedTiles != 1 || stats.MaxSquareSize != 1 {
		t.Errorf("Statistics() after RemoveTrack = %+v, want 1 tile and size 1", stats)
	}

	if err := env.tiles.DeleteWorkout(env.ctx, 1, second.ID); err != nil {
		t.Fatalf("DeleteWorkout() error = %v", err)
	}
	square, err = env.tiles.MaxSquare(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	if square.Size != 0 || len(square.Tiles) != 0 || square.Bound != nil {
		t.Errorf("MaxSquare() without tiles = %+v, want empty", square)
	}
}

func TestCachedResultsAreCopies(t *testing.T) {
	env := newTestEnv(t)
	env.workoutWithTrack(t, "BIKING", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		[2]int{10, 10}, [2]int{10, 11}, [2]int{11, 10}, [2]int{11, 11})

	squareTiles, err := env.tiles.MaxSquareTiles(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	squareTiles[0].X = -1

	perWorkout, err := env.tiles.NewTilesPerWorkout(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	perWorkout[0].NumberOfNewTiles = 99

	squareTiles, err = env.tiles.MaxSquareTiles(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	if squareTiles[0] != (models.TilePosition{X: 10, Y: 10}) {
		t.Errorf("MaxSquareTiles()[0] = %v after caller modification, want (10,10)", squareTiles[0])
	}

	perWorkout, err = env.tiles.NewTilesPerWorkout(env.ctx, 1, filter2024)
	if err != nil {
		t.Fatal(err)
	}
	if perWorkout[0].NumberOfNewTiles != 4 {
		t.Errorf("NewTilesPerWorkout()[0] = %+v after caller modification, want 4 new tiles", perWorkout[0])
	}
}

func TestTileSetBound(t *testing.T) {
	if _, ok := tileSetBound(nil, testBaseZoom); ok {
		t.Error("tileSetBound(nil) ok = true, want false")
	}

	b, ok := tileSetBound([]models.TilePosition{{X: 8192, Y: 8192}}, testBaseZoom)
	if !ok {
		t.Fatal("tileSetBound() ok = false for one tile")
	}
	if math.Abs(b.Min.Lon()) > 1e-9 || math.Abs(b.Max.Lat()) > 1e-9 || b.Max.Lon() <= 0 || b.Min.Lat() >= 0 {
		t.Errorf("tileSetBound() = %v, want the tile south-east of (0,0)", b)
	}
}

func TestNewTilesPerTypePerYear(t *testing.T) {
	env := newTestEnv(t)
	env.workoutWithTrack(t, "BIKING", time.Date(2023, 5, 1, 8, 0, 0, 0, time.UTC), [2]int{1, 1}, [2]int{1, 2})
	env.workoutWithTrack(t, "RUNNING", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), [2]int{1, 1}, [2]int{5, 5})

	got, err := env.tiles.NewTilesPerTypePerYear(env.ctx, 1,
		[]models.WorkoutType{models.WorkoutTypeBiking, models.WorkoutTypeRunning}, 2022, 2024)
	if err != nil {
		t.Fatalf("NewTilesPerTypePerYear() error = %v", err)
	}

	want := map[models.WorkoutType]map[int]int{
		models.WorkoutTypeBiking:  {2022: 0, 2023: 2, 2024: 0},
		models.WorkoutTypeRunning: {2022: 0, 2023: 0, 2024: 1},
	}
	for workoutType, years := range want {
		for year, count := range years {
			if got[workoutType][year] != count {
				t.Errorf("%s %d = %d, want %d", workoutType, year, got[workoutType][year], count)
			}
		}
	}

	if _, err := env.tiles.NewTilesPerTypePerYear(env.ctx, 1, models.DistanceWorkoutTypes(), 2025, 2024); err == nil {
		t.Error("NewTilesPerTypePerYear() with inverted range should fail")
	}
}

func TestIngestTrackErrors(t *testing.T) {
	env := newTestEnv(t)

	fitness, err := env.workouts.CreateWorkout(env.ctx, 1, models.CreateWorkoutRequest{Type: "FITNESS", Name: "gym", StartTime: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	ride, err := env.workouts.CreateWorkout(env.ctx, 1, models.CreateWorkoutRequest{Type: "biking", Name: "ride", StartTime: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		userID    int64
		workoutID int64
		body      string
		wantErr   error
	}{
		{"workout type without track", 1, fitness.ID, gpxThrough(testBaseZoom, [2]int{1, 1}), ErrTrackNotSupported},
		{"foreign workout", 2, ride.ID, gpxThrough(testBaseZoom, [2]int{1, 1}), repository.ErrWorkoutNotFound},
		{"malformed gpx", 1, ride.ID, "<gpx><trk>", gpx.ErrInvalidGPX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tiles.IngestTrack(env.ctx, tt.userID, tt.workoutID, strings.NewReader(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("IngestTrack() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderTile(t *testing.T) {
	env := newTestEnv(t)
	w := env.workoutWithTrack(t, "BIKING", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), [2]int{8718, 5685})

	data, err := env.tiles.RenderTile(env.ctx, 1, TileRequest{
		X: 8718, Y: 5685, Zoom: 14, TileSize: 16,
		Mode: tilehunting.ColorModeOverlap, Filter: filter2024,
		ShowBorder: true, ShowMaxSquare: true,
	})
	if err != nil {
		t.Fatalf("RenderTile() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Errorf("image size = %v, want 16x16", img.Bounds())
	}

	inner := color.NRGBAModel.Convert(img.At(5, 5)).(color.NRGBA)
	if want := (color.NRGBA{B: 0xFF, A: 0x60}); inner != want {
		t.Errorf("inner pixel = %v, want max square color %v", inner, want)
	}
	corner := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	if want := (color.NRGBA{A: 0x60}); corner != want {
		t.Errorf("corner pixel = %v, want border color %v", corner, want)
	}

	otherUser := w.ID
	if _, err := env.tiles.RenderTile(env.ctx, 2, TileRequest{X: 0, Y: 0, Zoom: 14, WorkoutID: &otherUser}); !errors.Is(err, repository.ErrWorkoutNotFound) {
		t.Errorf("RenderTile() of a foreign workout error = %v, want ErrWorkoutNotFound", err)
	}
}

func TestPlannedTourService(t *testing.T) {
	env := newTestEnv(t)

	tour, err := env.tours.CreatePlannedTour(env.ctx, 1, models.CreatePlannedTourRequest{Type: "HIKING", Name: "Alps"})
	if err != nil {
		t.Fatalf("CreatePlannedTour() error = %v", err)
	}

	count, err := env.tours.UploadTrack(env.ctx, 1, tour.ID, strings.NewReader(gpxThrough(testBaseZoom, [2]int{3, 3}, [2]int{3, 4})))
	if err != nil {
		t.Fatalf("UploadTrack() error = %v", err)
	}
	if count != 2 {
		t.Errorf("UploadTrack() = %d tiles, want 2", count)
	}

	if _, err := env.tours.CreatePlannedTour(env.ctx, 1, models.CreatePlannedTourRequest{Type: "FITNESS", Name: "gym"}); !errors.Is(err, ErrTrackNotSupported) {
		t.Errorf("CreatePlannedTour(FITNESS) error = %v, want ErrTrackNotSupported", err)
	}
	if _, err := env.tours.CreatePlannedTour(env.ctx, 1, models.CreatePlannedTourRequest{Type: "SWIMMING", Name: "pool"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("CreatePlannedTour(SWIMMING) error = %v, want ErrInvalidInput", err)
	}

	if err := env.tours.DeletePlannedTour(env.ctx, 2, tour.ID); !errors.Is(err, repository.ErrPlannedTourNotFound) {
		t.Errorf("DeletePlannedTour() by another user error = %v, want ErrPlannedTourNotFound", err)
	}
}

func TestDefaultFilter(t *testing.T) {
	env := newTestEnv(t)
	for _, year := range []int{2022, 2024} {
		if _, err := env.workouts.CreateWorkout(env.ctx, 1, models.CreateWorkoutRequest{
			Type: "RUNNING", Name: "run", StartTime: time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := env.workouts.DefaultFilter(env.ctx, 1, models.TileFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Types) != 3 || len(got.Years) != 2 || got.Years[0] != 2022 || got.Years[1] != 2024 {
		t.Errorf("DefaultFilter() = %+v, want all distance types and years [2022 2024]", got)
	}

	explicit, err := env.workouts.DefaultFilter(env.ctx, 1, models.TileFilter{Types: []models.WorkoutType{models.WorkoutTypeHiking}, Years: []int{2030}})
	if err != nil {
		t.Fatal(err)
	}
	if len(explicit.Types) != 1 || explicit.Years[0] != 2030 {
		t.Errorf("DefaultFilter() replaced explicit values: %+v", explicit)
	}
}
