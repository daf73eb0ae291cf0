package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jengzang/sporttracker-backend-go/internal/app"
	"github.com/jengzang/sporttracker-backend-go/internal/config"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/service"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
	"github.com/spf13/cobra"
)

// IngestCmd creates a workout from a GPX file and stores its tiles
func IngestCmd() *cobra.Command {
	var (
		userID      int64
		workoutType string
		name        string
		start       string
	)

	cmd := &cobra.Command{
		Use:   "ingest <file.gpx>",
		Short: "Create a workout from a GPX file",
		Long: `Create a workout and convert its GPX track into visited tiles.

Examples:
  tilectl ingest --user 1 --type BIKING ride.gpx
  tilectl ingest --user 1 --type RUNNING --start 2024-05-01T07:30:00Z run.gpx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime := time.Now()
			if start != "" {
				var err error
				if startTime, err = time.Parse(time.RFC3339, start); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}
			if name == "" {
				name = args[0]
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withApp(cmd, func(_ *config.Config, a *app.App) error {
				ctx := cmd.Context()
				workout, err := a.Workouts.CreateWorkout(ctx, userID, models.CreateWorkoutRequest{
					Type:      workoutType,
					Name:      name,
					StartTime: startTime,
				})
				if err != nil {
					return err
				}

				result, err := a.Tiles.IngestTrack(ctx, userID, workout.ID, f)
				if err != nil {
					return err
				}

				fmt.Printf("%s workout %d: %d points, %d tiles, %.1f km\n",
					okLabel("✓"), workout.ID, result.Points, result.DistinctTiles, result.LengthMeters/1000)
				if result.SkippedPoints > 0 {
					fmt.Printf("%s skipped %d points without a valid position\n", warnLabel("!"), result.SkippedPoints)
				}
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Owner of the workout")
	cmd.Flags().StringVar(&workoutType, "type", "BIKING", "Workout type")
	cmd.Flags().StringVar(&name, "name", "", "Workout name (default: file name)")
	cmd.Flags().StringVar(&start, "start", "", "Start time in RFC3339 (default: now)")
	cmd.MarkFlagRequired("user")
	return cmd
}

// StatsCmd prints the tile hunting statistics of a user
func StatsCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tile hunting statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(cfg *config.Config, a *app.App) error {
				ctx := cmd.Context()
				filter, err := filterFlags(cmd, a, userID)
				if err != nil {
					return err
				}

				stats, err := a.Tiles.Statistics(ctx, userID, filter)
				if err != nil {
					return err
				}
				square, err := a.Tiles.MaxSquare(ctx, userID, filter)
				if err != nil {
					return err
				}
				perWorkout, err := a.Tiles.NewTilesPerWorkout(ctx, userID, filter)
				if err != nil {
					return err
				}

				fmt.Printf("Visited tiles: %d (zoom %d)\n", stats.TotalVisitedTiles, cfg.Tile.BaseZoom)
				fmt.Printf("Max square:    %dx%d\n", square.Size, square.Size)
				if square.Bound != nil {
					fmt.Printf("               %.5f,%.5f - %.5f,%.5f\n",
						square.Bound.MinLat, square.Bound.MinLon, square.Bound.MaxLat, square.Bound.MaxLon)
				}
				fmt.Println()

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tSTART\tNAME\tNEW TILES")
				for _, nt := range perWorkout {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", nt.WorkoutID, nt.Type, nt.StartTime.Format("2006-01-02"), nt.Name, nt.NumberOfNewTiles)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User to report on")
	cmd.MarkFlagRequired("user")
	addFilterFlags(cmd)
	return cmd
}

// RenderCmd renders one overlay tile into a PNG file
func RenderCmd() *cobra.Command {
	var (
		userID        int64
		out           string
		mode          string
		size          int
		noBorder      bool
		showMaxSquare bool
		showPlanned   bool
	)

	cmd := &cobra.Command{
		Use:   "render <zoom> <x> <y>",
		Short: "Render an overlay tile to a PNG file",
		Long: `Render the tile hunting overlay of a user for one slippy map tile.

Examples:
  tilectl render --user 1 14 8580 5373 -o tile.png
  tilectl render --user 1 --mode heatmap --max-square 11 1072 671 -o area.png`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var coords [3]int
			for i, arg := range args {
				if _, err := fmt.Sscanf(arg, "%d", &coords[i]); err != nil {
					return fmt.Errorf("invalid tile coordinate %q", arg)
				}
			}
			colorMode, err := tilehunting.ParseColorMode(mode)
			if err != nil {
				return err
			}

			return withApp(cmd, func(_ *config.Config, a *app.App) error {
				ctx := cmd.Context()
				filter, err := filterFlags(cmd, a, userID)
				if err != nil {
					return err
				}

				data, err := a.Tiles.RenderTile(ctx, userID, service.TileRequest{
					Zoom:          coords[0],
					X:             coords[1],
					Y:             coords[2],
					TileSize:      size,
					Mode:          colorMode,
					Filter:        filter,
					ShowBorder:    !noBorder,
					ShowMaxSquare: showMaxSquare,
					ShowPlanned:   showPlanned,
				})
				if err != nil {
					return err
				}

				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("%s wrote %s (%d bytes)\n", okLabel("✓"), out, len(data))
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User whose tiles are drawn")
	cmd.Flags().StringVarP(&out, "output", "o", "tile.png", "Output file")
	cmd.Flags().StringVar(&mode, "mode", string(tilehunting.ColorModeOverlap), "Color mode: overlap or heatmap")
	cmd.Flags().IntVar(&size, "size", 0, "Tile size in pixels (default: configured size)")
	cmd.Flags().BoolVar(&noBorder, "no-border", false, "Do not draw tile borders")
	cmd.Flags().BoolVar(&showMaxSquare, "max-square", false, "Highlight the max square")
	cmd.Flags().BoolVar(&showPlanned, "planned", false, "Draw planned tour tiles")
	cmd.MarkFlagRequired("user")
	addFilterFlags(cmd)
	return cmd
}

// MaxSquareCmd prints the max square of a user
func MaxSquareCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "max-square",
		Short: "Show the largest fully visited square of tiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(_ *config.Config, a *app.App) error {
				filter, err := filterFlags(cmd, a, userID)
				if err != nil {
					return err
				}

				square, err := a.Tiles.MaxSquare(cmd.Context(), userID, filter)
				if err != nil {
					return err
				}
				if square.Size == 0 {
					fmt.Printf("%s no visited tiles\n", warnLabel("!"))
					return nil
				}

				first := square.Tiles[0]
				fmt.Printf("%s %dx%d square at zoom %d, top-left tile %d/%d\n",
					okLabel("✓"), square.Size, square.Size, square.Zoom, first.X, first.Y)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User to report on")
	cmd.MarkFlagRequired("user")
	addFilterFlags(cmd)
	return cmd
}
