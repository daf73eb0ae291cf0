package tilehunting

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"time"

	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/spatial"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/metrics"
	"github.com/jengzang/sporttracker-backend-go/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoPositions means a requested tile mapped onto no base zoom tile
	ErrNoPositions = errors.New("no base zoom positions for tile")
	// ErrTileOutOfRange is returned for x, y outside [0, 2^zoom)
	ErrTileOutOfRange = errors.New("tile coordinates out of range")
	// ErrInvalidTileSize is returned for non-positive pixel sizes
	ErrInvalidTileSize = errors.New("invalid tile size")
)

// ColorMode selects how visited tiles are colored
type ColorMode string

const (
	// ColorModeOverlap colors a tile by the workout types that visited it
	ColorModeOverlap ColorMode = "overlap"
	// ColorModeHeatmap colors a tile by the number of workouts that visited it
	ColorModeHeatmap ColorMode = "heatmap"
)

// ParseColorMode accepts "overlap" and "heatmap"; empty selects overlap
func ParseColorMode(s string) (ColorMode, error) {
	switch ColorMode(s) {
	case "", ColorModeOverlap:
		return ColorModeOverlap, nil
	case ColorModeHeatmap:
		return ColorModeHeatmap, nil
	default:
		return "", fmt.Errorf("unknown color mode %q", s)
	}
}

type RenderRequest struct {
	X, Y, Zoom int
	TileSize   int
	Mode       ColorMode
	Filter     models.TileFilter

	// nil disables the base zoom grid
	BorderColor *color.NRGBA

	// MaxSquareColor paints every base tile listed in MaxSquare
	MaxSquareColor *color.NRGBA
	MaxSquare      []models.TilePosition

	// WorkoutID restricts rendering to a single workout and ignores Mode and Filter
	WorkoutID *int64
	OnlyNew   bool

	ShowPlanned bool
}

func (r RenderRequest) modeLabel() string {
	if r.WorkoutID != nil {
		return "workout"
	}
	return string(r.Mode)
}

// Renderer rasterizes visited tiles of a user into slippy map overlay tiles
type Renderer struct {
	baseZoom int
	source   RenderSource
	logger   logger.Logger
}

func NewRenderer(baseZoom int, source RenderSource, l logger.Logger) *Renderer {
	return &Renderer{
		baseZoom: baseZoom,
		source:   source,
		logger:   l,
	}
}

// ToBaseZoom maps tile (x, y) at zoom onto the base zoom grid: the tile itself,
// its 4^(baseZoom-zoom) descendants or its single ancestor, sorted by (x, y).
func ToBaseZoom(x, y, zoom, baseZoom int) []models.TilePosition {
	switch {
	case zoom == baseZoom:
		return []models.TilePosition{{X: x, Y: y}}
	case zoom > baseZoom:
		for z := zoom; z > baseZoom; z-- {
			x, y = spatial.ZoomOut(x, y)
		}
		return []models.TilePosition{{X: x, Y: y}}
	}

	positions := []models.TilePosition{{X: x, Y: y}}
	for z := zoom; z < baseZoom; z++ {
		next := make([]models.TilePosition, 0, len(positions)*4)
		for _, p := range positions {
			for _, child := range spatial.ZoomIn(p.X, p.Y) {
				next = append(next, models.TilePosition{X: child[0], Y: child[1]})
			}
		}
		positions = next
	}
	models.SortTilePositions(positions)
	return positions
}

// Render draws the tile (req.X, req.Y, req.Zoom) for userID
func (r *Renderer) Render(ctx context.Context, userID int64, req RenderRequest) (*image.NRGBA, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "tilehunting.Render", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int("tile.x", req.X),
		attribute.Int("tile.y", req.Y),
		attribute.Int("tile.zoom", req.Zoom),
		attribute.String("tile.mode", req.modeLabel()),
	))
	defer span.End()

	start := time.Now()
	img, err := r.render(ctx, userID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.TileRenders.WithLabelValues(req.modeLabel()).Inc()
	metrics.TileRenderLatency.WithLabelValues(req.modeLabel()).Observe(time.Since(start).Seconds())
	return img, nil
}

func (r *Renderer) render(ctx context.Context, userID int64, req RenderRequest) (*image.NRGBA, error) {
	if err := spatial.ValidateZoom(req.Zoom); err != nil {
		return nil, err
	}
	if !spatial.ValidTile(req.X, req.Y, req.Zoom) {
		return nil, fmt.Errorf("%w: (%d, %d) at zoom %d", ErrTileOutOfRange, req.X, req.Y, req.Zoom)
	}
	if req.TileSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTileSize, req.TileSize)
	}

	img := image.NewNRGBA(image.Rect(0, 0, req.TileSize, req.TileSize))

	// a base tile would be smaller than one pixel
	if req.Zoom < r.baseZoom && 1<<(r.baseZoom-req.Zoom) > req.TileSize {
		r.logger.Debug("tile too coarse to render base tiles, returning empty tile",
			"zoom", req.Zoom, "base_zoom", r.baseZoom, "tile_size", req.TileSize)
		return img, nil
	}

	positions := ToBaseZoom(req.X, req.Y, req.Zoom, r.baseZoom)
	bounds, ok := models.BoundsOf(positions)
	if !ok {
		return nil, fmt.Errorf("%w: x %d, y %d, zoom %d", ErrNoPositions, req.X, req.Y, req.Zoom)
	}
	colors, err := r.resolveColors(ctx, userID, req, bounds)
	if err != nil {
		return nil, err
	}

	var maxSquare map[models.TilePosition]bool
	if req.MaxSquareColor != nil {
		maxSquare = make(map[models.TilePosition]bool, len(req.MaxSquare))
		for _, p := range req.MaxSquare {
			maxSquare[p] = true
		}
	}

	n := int(math.Sqrt(float64(len(positions))))
	boxSize := req.TileSize / n
	zoomDiff := req.Zoom - r.baseZoom

	// Zoomed past the base level, the request covers part of a single base
	// tile and only shares the edges that are multiples of 2^zoomDiff.
	touchesLeft, touchesTop := true, true
	if zoomDiff > 0 {
		touchesLeft = req.X%(1<<zoomDiff) == 0
		touchesTop = req.Y%(1<<zoomDiff) == 0
	}

	for _, p := range positions {
		fill := colors[p]
		if maxSquare[p] {
			fill = *req.MaxSquareColor
		}

		originX := (p.X - bounds.MinX) * boxSize
		originY := (p.Y - bounds.MinY) * boxSize

		for px := 0; px < boxSize; px++ {
			for py := 0; py < boxSize; py++ {
				c := fill
				if req.BorderColor != nil && ((px == 0 && touchesLeft) || (py == 0 && touchesTop)) {
					c = *req.BorderColor
				}
				img.SetNRGBA(originX+px, originY+py, c)
			}
		}
	}

	return img, nil
}

// resolveColors returns the fill of every base tile in bounds that is not transparent
func (r *Renderer) resolveColors(ctx context.Context, userID int64, req RenderRequest, bounds models.TileBounds) (map[models.TilePosition]color.NRGBA, error) {
	if req.WorkoutID != nil {
		return r.workoutColors(ctx, userID, *req.WorkoutID, req.OnlyNew, bounds)
	}

	colors := make(map[models.TilePosition]color.NRGBA)

	if req.Mode == ColorModeHeatmap {
		rows, err := r.source.QueryCountPositions(ctx, userID, req.Filter, bounds)
		if err != nil {
			return nil, fmt.Errorf("failed to query visit counts: %w", err)
		}
		for _, row := range rows {
			colors[models.TilePosition{X: row.X, Y: row.Y}] = HeatmapColor(row.Count)
		}
		return colors, nil
	}

	rows, err := r.source.QueryColorPositions(ctx, userID, req.Filter, bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to query tile colors: %w", err)
	}

	visited := make(map[models.TilePosition][]string)
	for _, row := range rows {
		p := models.TilePosition{X: row.X, Y: row.Y}
		visited[p] = append(visited[p], row.TileColor)
	}

	if req.ShowPlanned {
		planned, err := r.source.QueryPlannedPositions(ctx, userID, req.Filter, bounds)
		if err != nil {
			return nil, fmt.Errorf("failed to query planned tiles: %w", err)
		}
		for _, p := range planned {
			if _, ok := visited[p]; !ok {
				colors[p] = ColorPlanned
			}
		}
	}

	for p, tileColors := range visited {
		c, err := OverlapColor(tileColors, false)
		if err != nil {
			return nil, err
		}
		colors[p] = c
	}

	return colors, nil
}

func (r *Renderer) workoutColors(ctx context.Context, userID, workoutID int64, onlyNew bool, bounds models.TileBounds) (map[models.TilePosition]color.NRGBA, error) {
	rows, err := r.source.QueryWorkoutColorPositions(ctx, userID, workoutID, bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to query tiles of workout %d: %w", workoutID, err)
	}

	var novel map[models.TilePosition]bool
	if onlyNew && len(rows) > 0 {
		tiles, err := r.source.QueryNovelTiles(ctx, workoutID)
		if err != nil {
			return nil, fmt.Errorf("failed to query new tiles of workout %d: %w", workoutID, err)
		}
		novel = make(map[models.TilePosition]bool, len(tiles))
		for _, t := range tiles {
			novel[t] = true
		}
	}

	colors := make(map[models.TilePosition]color.NRGBA, len(rows))
	for _, row := range rows {
		p := models.TilePosition{X: row.X, Y: row.Y}
		if onlyNew && !novel[p] {
			colors[p] = ColorNotNew
			continue
		}
		c, err := ParseHexColor(row.TileColor)
		if err != nil {
			return nil, err
		}
		colors[p] = c
	}
	return colors, nil
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
