package main

import (
	"fmt"
	"os"

	"github.com/jengzang/sporttracker-backend-go/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tilectl",
		Short: "Tile hunting administration",
		Long: `tilectl manages the tile hunting database of the sport tracker backend.
It reads the same environment configuration as the server.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: DB_PATH)")

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.StatsCmd())
	rootCmd.AddCommand(cli.MaxSquareCmd())
	rootCmd.AddCommand(cli.RenderCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
