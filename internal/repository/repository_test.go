package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jengzang/sporttracker-backend-go/internal/database"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "repo.db")}, logger.NewNoOp())
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
}

func tiles(coords ...[2]int) []models.TilePosition {
	result := make([]models.TilePosition, len(coords))
	for i, c := range coords {
		result[i] = models.TilePosition{X: c[0], Y: c[1]}
	}
	return result
}

func allTypes(years ...int) models.TileFilter {
	return models.TileFilter{Types: models.DistanceWorkoutTypes(), Years: years}
}

type fixture struct {
	ctx      context.Context
	workouts *WorkoutRepository
	tiles    *VisitedTileRepository
	tours    *PlannedTourRepository
}

func newFixture(t *testing.T) *fixture {
	db := openTestDB(t)
	return &fixture{
		ctx:      context.Background(),
		workouts: NewWorkoutRepository(db),
		tiles:    NewVisitedTileRepository(db),
		tours:    NewPlannedTourRepository(db),
	}
}

func (f *fixture) workoutWithTiles(t *testing.T, userID int64, workoutType models.WorkoutType, start time.Time, positions []models.TilePosition) *models.Workout {
	t.Helper()

	w, err := f.workouts.Create(f.ctx, userID, workoutType, string(workoutType)+" "+start.Format("2006-01-02"), start)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := f.tiles.ReplaceTiles(f.ctx, w.ID, positions); err != nil {
		t.Fatalf("ReplaceTiles() error = %v", err)
	}
	return w
}

func TestWorkoutRepository(t *testing.T) {
	f := newFixture(t)

	created, err := f.workouts.Create(f.ctx, 1, models.WorkoutTypeBiking, "Evening ride", date(2024, 5, 1))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := f.workouts.Create(f.ctx, 1, models.WorkoutTypeRunning, "Morning run", date(2023, 5, 1)); err != nil {
		t.Fatal(err)
	}

	got, err := f.workouts.GetByID(f.ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Evening ride" || got.Type != models.WorkoutTypeBiking || !got.StartTime.Equal(date(2024, 5, 1)) || got.HasTrack {
		t.Errorf("GetByID() = %+v", got)
	}

	if _, err := f.workouts.GetByID(f.ctx, 2, created.ID); !errors.Is(err, ErrWorkoutNotFound) {
		t.Errorf("GetByID() of another user error = %v, want ErrWorkoutNotFound", err)
	}

	list, err := f.workouts.ListByUser(f.ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "Morning run" {
		t.Errorf("ListByUser() = %+v, want 2 workouts ordered by start time", list)
	}

	years, err := f.workouts.ListYears(f.ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 || years[0] != 2023 || years[1] != 2024 {
		t.Errorf("ListYears() = %v, want [2023 2024]", years)
	}

	if err := f.workouts.Delete(f.ctx, 2, created.ID); !errors.Is(err, ErrWorkoutNotFound) {
		t.Errorf("Delete() of another user error = %v, want ErrWorkoutNotFound", err)
	}
	if err := f.workouts.Delete(f.ctx, 1, created.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestReplaceTilesIsWholesale(t *testing.T) {
	f := newFixture(t)
	w := f.workoutWithTiles(t, 1, models.WorkoutTypeBiking, date(2024, 1, 1), tiles([2]int{1, 1}, [2]int{1, 2}))

	if err := f.tiles.ReplaceTiles(f.ctx, w.ID, tiles([2]int{5, 5})); err != nil {
		t.Fatal(err)
	}

	got, err := f.tiles.QueryAllDistinct(f.ctx, 1, allTypes(2024))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != (models.TilePosition{X: 5, Y: 5}) {
		t.Errorf("QueryAllDistinct() = %v, want [{5 5}]", got)
	}

	tracked, _ := f.workouts.GetByID(f.ctx, 1, w.ID)
	if !tracked.HasTrack {
		t.Error("workout with tiles should be flagged as tracked")
	}

	if err := f.tiles.ReplaceTiles(f.ctx, w.ID, nil); err != nil {
		t.Fatal(err)
	}
	cleared, _ := f.workouts.GetByID(f.ctx, 1, w.ID)
	if cleared.HasTrack {
		t.Error("workout without tiles should not be flagged as tracked")
	}

	if err := f.tiles.ReplaceTiles(f.ctx, 999, tiles([2]int{1, 1})); !errors.Is(err, ErrWorkoutNotFound) {
		t.Errorf("ReplaceTiles() of unknown workout error = %v, want ErrWorkoutNotFound", err)
	}
}

func TestQueryAllDistinctFilters(t *testing.T) {
	f := newFixture(t)
	f.workoutWithTiles(t, 1, models.WorkoutTypeBiking, date(2023, 6, 1), tiles([2]int{11, 11}, [2]int{10, 10}))
	f.workoutWithTiles(t, 1, models.WorkoutTypeRunning, date(2024, 6, 1), tiles([2]int{10, 10}, [2]int{20, 20}))
	f.workoutWithTiles(t, 2, models.WorkoutTypeBiking, date(2024, 6, 1), tiles([2]int{30, 30}))

	tests := []struct {
		name   string
		filter models.TileFilter
		want   []models.TilePosition
	}{
		{"all", allTypes(2023, 2024), tiles([2]int{10, 10}, [2]int{11, 11}, [2]int{20, 20})},
		{"biking only", models.TileFilter{Types: []models.WorkoutType{models.WorkoutTypeBiking}, Years: []int{2023, 2024}}, tiles([2]int{10, 10}, [2]int{11, 11})},
		{"2024 only", allTypes(2024), tiles([2]int{10, 10}, [2]int{20, 20})},
		{"no types", models.TileFilter{Years: []int{2024}}, tiles()},
		{"no years", models.TileFilter{Types: models.DistanceWorkoutTypes()}, tiles()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.tiles.QueryAllDistinct(f.ctx, 1, tt.filter)
			if err != nil {
				t.Fatalf("QueryAllDistinct() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("QueryAllDistinct() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("tile %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestQueryColorAndCountPositions(t *testing.T) {
	f := newFixture(t)
	f.workoutWithTiles(t, 1, models.WorkoutTypeBiking, date(2024, 1, 1), tiles([2]int{10, 10}, [2]int{11, 10}))
	f.workoutWithTiles(t, 1, models.WorkoutTypeBiking, date(2024, 2, 1), tiles([2]int{10, 10}))
	f.workoutWithTiles(t, 1, models.WorkoutTypeRunning, date(2024, 3, 1), tiles([2]int{10, 10}, [2]int{50, 50}))

	bounds := models.TileBounds{MinX: 10, MaxX: 11, MinY: 10, MaxY: 11}

	colors, err := f.tiles.QueryColorPositions(f.ctx, 1, allTypes(2024), bounds)
	if err != nil {
		t.Fatal(err)
	}
	byTile := map[models.TilePosition][]string{}
	for _, c := range colors {
		byTile[models.TilePosition{X: c.X, Y: c.Y}] = append(byTile[models.TilePosition{X: c.X, Y: c.Y}], c.TileColor)
	}
	if got := byTile[models.TilePosition{X: 10, Y: 10}]; len(got) != 2 {
		t.Errorf("colors of (10,10) = %v, want one per workout type", got)
	}
	if got := byTile[models.TilePosition{X: 11, Y: 10}]; len(got) != 1 || got[0] != "#FFC10796" {
		t.Errorf("colors of (11,10) = %v, want [#FFC10796]", got)
	}
	if _, ok := byTile[models.TilePosition{X: 50, Y: 50}]; ok {
		t.Error("tile outside bounds returned")
	}

	counts, err := f.tiles.QueryCountPositions(f.ctx, 1, allTypes(2024), bounds)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range counts {
		if c.X == 10 && c.Y == 10 && c.Count != 3 {
			t.Errorf("count of (10,10) = %d, want 3", c.Count)
		}
		if c.X == 11 && c.Y == 10 && c.Count != 1 {
			t.Errorf("count of (11,10) = %d, want 1", c.Count)
		}
	}
	if len(counts) != 2 {
		t.Errorf("QueryCountPositions() returned %d rows, want 2", len(counts))
	}
}

func TestQueryNovelTiles(t *testing.T) {
	f := newFixture(t)
	first := f.workoutWithTiles(t, 1, models.WorkoutTypeBiking, date(2024, 1, 1),
		tiles([2]int{10, 10}, [2]int{10, 11}, [2]int{11, 10}, [2]int{11, 11}))
	second := f.workoutWithTiles(t, 1, models.WorkoutTypeRunning, date(2024, 2, 1),
		tiles([2]int{11, 11}, [2]int{20, 20}))
	f.workoutWithTiles(t, 2, models.WorkoutTypeBiking, date(2023, 1, 1), tiles([2]int{20, 20}))

	novelFirst, err := f.tiles.QueryNovelTiles(f.ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(novelFirst) != 4 {
		t.Errorf("first workout novel tiles = %v, want all 4", novelFirst)
	}

	novelSecond, err := f.tiles.QueryNovelTiles(f.ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(novelSecond) != 1 || novelSecond[0] != (models.TilePosition{X: 20, Y: 20}) {
		t.Errorf("second workout novel tiles = %v, want [{20 20}] (other users do not count)", novelSecond)
	}
}

func TestListTrackedWorkouts(t *testing.T) {
	f := newFixture(t)
	f.workoutWithTiles(t, 1, models.WorkoutTypeRunning, date(2024, 3, 1), tiles([2]int{1, 1}))
	f.workoutWithTiles(t, 1, models.WorkoutTypeBiking, date(2024, 1, 1), tiles([2]int{1, 1}))
	if _, err := f.workouts.Create(f.ctx, 1, models.WorkoutTypeBiking, "no track", date(2024, 2, 1)); err != nil {
		t.Fatal(err)
	}

	got, err := f.tiles.ListTrackedWorkouts(f.ctx, 1, allTypes(2024))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Type != models.WorkoutTypeBiking || got[1].Type != models.WorkoutTypeRunning {
		t.Errorf("ListTrackedWorkouts() = %+v, want biking then running", got)
	}
}

func TestPlannedTours(t *testing.T) {
	f := newFixture(t)

	tour, err := f.tours.Create(f.ctx, 1, models.WorkoutTypeHiking, "Alps")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := f.tours.ReplaceTiles(f.ctx, tour.ID, tiles([2]int{3, 3}, [2]int{3, 4}, [2]int{9, 9})); err != nil {
		t.Fatalf("ReplaceTiles() error = %v", err)
	}

	bounds := models.TileBounds{MinX: 0, MaxX: 5, MinY: 0, MaxY: 5}
	hiking := models.TileFilter{Types: []models.WorkoutType{models.WorkoutTypeHiking}, Years: []int{2024}}

	got, err := f.tiles.QueryPlannedPositions(f.ctx, 1, hiking, bounds)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("QueryPlannedPositions() = %v, want 2 tiles inside bounds", got)
	}

	biking := models.TileFilter{Types: []models.WorkoutType{models.WorkoutTypeBiking}, Years: []int{2024}}
	if got, _ := f.tiles.QueryPlannedPositions(f.ctx, 1, biking, bounds); len(got) != 0 {
		t.Errorf("QueryPlannedPositions() with other type = %v, want none", got)
	}

	list, err := f.tours.ListByUser(f.ctx, 1)
	if err != nil || len(list) != 1 {
		t.Errorf("ListByUser() = %v, %v", list, err)
	}

	if err := f.tours.Delete(f.ctx, 1, tour.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.tours.GetByID(f.ctx, 1, tour.ID); !errors.Is(err, ErrPlannedTourNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrPlannedTourNotFound", err)
	}
	if got, _ := f.tiles.QueryPlannedPositions(f.ctx, 1, hiking, bounds); len(got) != 0 {
		t.Errorf("planned tiles survived tour deletion: %v", got)
	}
}
