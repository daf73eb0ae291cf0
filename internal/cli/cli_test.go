package cli

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const rideGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"><trk><trkseg>
<trkpt lat="48.137" lon="11.575"></trkpt>
<trkpt lat="48.140" lon="11.590"></trkpt>
<trkpt lat="48.150" lon="11.610"></trkpt>
</trkseg></trk></gpx>`

func run(t *testing.T, args ...string) {
	t.Helper()

	root := &cobra.Command{Use: "tilectl", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("db", "", "")
	root.AddCommand(MigrateCmd(), IngestCmd(), StatsCmd(), MaxSquareCmd(), RenderCmd(), TokenCmd())
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		t.Fatalf("tilectl %v: %v", args, err)
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cli.db")
	track := filepath.Join(dir, "ride.gpx")
	if err := os.WriteFile(track, []byte(rideGPX), 0o644); err != nil {
		t.Fatal(err)
	}

	run(t, "migrate", "--db", db)
	run(t, "ingest", "--db", db, "--user", "1", "--type", "biking", "--start", "2024-06-01T08:00:00Z", track)
	run(t, "stats", "--db", db, "--user", "1")
	run(t, "max-square", "--db", db, "--user", "1", "--types", "BIKING")

	out := filepath.Join(dir, "tile.png")
	run(t, "render", "--db", db, "--user", "1", "--size", "64", "-o", out, "10", "544", "355")

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 64 {
		t.Errorf("image size = %v, want 64x64", b)
	}

	run(t, "token", "1")
}
