package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jengzang/sporttracker-backend-go/internal/app"
	"github.com/jengzang/sporttracker-backend-go/internal/config"
	"github.com/jengzang/sporttracker-backend-go/internal/database"
	"github.com/jengzang/sporttracker-backend-go/internal/middleware"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	okLabel   = color.New(color.FgGreen).SprintFunc()
	warnLabel = color.New(color.FgYellow).SprintFunc()
)

// withApp loads the configuration, opens the application and runs fn
func withApp(cmd *cobra.Command, fn func(cfg *config.Config, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.DBPath = path
	}

	a, err := app.New(cfg, logger.NewNoOp())
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cfg, a)
}

// filterFlags reads --types and --years and fills in the user defaults
func filterFlags(cmd *cobra.Command, a *app.App, userID int64) (models.TileFilter, error) {
	var filter models.TileFilter

	types, _ := cmd.Flags().GetStringSlice("types")
	for _, v := range types {
		t, err := models.ParseWorkoutType(strings.ToUpper(v))
		if err != nil {
			return filter, err
		}
		filter.Types = append(filter.Types, t)
	}

	years, _ := cmd.Flags().GetIntSlice("years")
	filter.Years = years

	return a.Workouts.DefaultFilter(cmd.Context(), userID, filter)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("types", nil, "Workout types (default: all distance types)")
	cmd.Flags().IntSlice("years", nil, "Years (default: every year with workouts)")
}

// MigrateCmd applies the database migrations
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(cfg *config.Config, a *app.App) error {
				version, err := database.NewMigrationManager(a.DB, logger.NewNoOp()).Version()
				if err != nil {
					return err
				}
				fmt.Printf("%s %s at schema version %d\n", okLabel("✓"), cfg.DBPath, version)
				return nil
			})
		},
	}
}

// TokenCmd issues an API token for a user
func TokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || userID <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			token, err := middleware.IssueToken([]byte(cfg.JWTSecret), userID, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
