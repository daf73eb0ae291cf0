package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/service"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/response"
)

const (
	minTileSize = 1
	maxTileSize = 1024
)

// TileHandler serves rendered overlay tiles and tile hunting statistics
type TileHandler struct {
	tileService    *service.TileHuntingService
	workoutService *service.WorkoutService
	logger         logger.Logger
}

// NewTileHandler creates a new tile handler
func NewTileHandler(tileService *service.TileHuntingService, workoutService *service.WorkoutService, l logger.Logger) *TileHandler {
	return &TileHandler{
		tileService:    tileService,
		workoutService: workoutService,
		logger:         l,
	}
}

// filter parses the filter query and fills in the user defaults
func (h *TileHandler) filter(c *gin.Context, userID int64) (models.TileFilter, bool) {
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return filter, false
	}

	filter, err = h.workoutService.DefaultFilter(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return filter, false
	}
	return filter, true
}

func queryBool(c *gin.Context, key string, def bool) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean", service.ErrInvalidInput, key)
	}
	return v, nil
}

func queryInt(c *gin.Context, key string) (int, bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, key)
	}
	return v, true, nil
}

func (h *TileHandler) parseTileRequest(c *gin.Context) (service.TileRequest, error) {
	var req service.TileRequest
	var err error

	coords := []struct {
		name  string
		value string
		dst   *int
	}{
		{"zoom", c.Param("zoom"), &req.Zoom},
		{"x", c.Param("x"), &req.X},
		{"y", strings.TrimSuffix(c.Param("y"), ".png"), &req.Y},
	}
	for _, coord := range coords {
		if *coord.dst, err = strconv.Atoi(coord.value); err != nil {
			return req, fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, coord.name)
		}
	}

	if req.Mode, err = tilehunting.ParseColorMode(c.Query("mode")); err != nil {
		return req, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
	}

	size, ok, err := queryInt(c, "size")
	if err != nil {
		return req, err
	}
	if ok {
		if size < minTileSize || size > maxTileSize {
			return req, fmt.Errorf("%w: size must be between %d and %d", service.ErrInvalidInput, minTileSize, maxTileSize)
		}
		req.TileSize = size
	}

	if req.ShowBorder, err = queryBool(c, "border", true); err != nil {
		return req, err
	}
	if req.ShowMaxSquare, err = queryBool(c, "maxSquare", false); err != nil {
		return req, err
	}
	if req.ShowPlanned, err = queryBool(c, "planned", false); err != nil {
		return req, err
	}
	if req.OnlyNew, err = queryBool(c, "onlyNew", false); err != nil {
		return req, err
	}

	workoutID, ok, err := queryInt(c, "workoutId")
	if err != nil {
		return req, err
	}
	if ok {
		id := int64(workoutID)
		req.WorkoutID = &id
	}

	return req, nil
}

// RenderTile handles GET /api/v1/tiles/:zoom/:x/:y
func (h *TileHandler) RenderTile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	req, err := h.parseTileRequest(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if req.Filter, ok = h.filter(c, userID); !ok {
		return
	}

	data, err := h.tileService.RenderTile(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.PNG(c, data)
}

// GetMaxSquare handles GET /api/v1/tile-hunting/max-square
func (h *TileHandler) GetMaxSquare(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	filter, ok := h.filter(c, userID)
	if !ok {
		return
	}

	result, err := h.tileService.MaxSquare(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, result)
}

// GetNewTilesPerWorkout handles GET /api/v1/tile-hunting/new-tiles
func (h *TileHandler) GetNewTilesPerWorkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	filter, ok := h.filter(c, userID)
	if !ok {
		return
	}

	result, err := h.tileService.NewTilesPerWorkout(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, result)
}

// GetStatistics handles GET /api/v1/tile-hunting/statistics
func (h *TileHandler) GetStatistics(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	filter, ok := h.filter(c, userID)
	if !ok {
		return
	}

	result, err := h.tileService.Statistics(c.Request.Context(), userID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, result)
}

// GetNewTilesPerYear handles GET /api/v1/tile-hunting/new-tiles-per-year?minYear=&maxYear=
func (h *TileHandler) GetNewTilesPerYear(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	filter, ok := h.filter(c, userID)
	if !ok {
		return
	}

	minYear, hasMin, err := queryInt(c, "minYear")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	maxYear, hasMax, err := queryInt(c, "maxYear")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if len(filter.Years) > 0 {
		if !hasMin {
			minYear = filter.Years[0]
		}
		if !hasMax {
			maxYear = filter.Years[len(filter.Years)-1]
		}
	}
	if (!hasMin || !hasMax) && len(filter.Years) == 0 {
		response.Success(c, map[models.WorkoutType]map[int]int{})
		return
	}
	if minYear > maxYear {
		response.BadRequest(c, "minYear must not be greater than maxYear")
		return
	}

	result, err := h.tileService.NewTilesPerTypePerYear(c.Request.Context(), userID, filter.Types, minYear, maxYear)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, result)
}
