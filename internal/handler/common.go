package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/sporttracker-backend-go/internal/gpx"
	"github.com/jengzang/sporttracker-backend-go/internal/middleware"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/repository"
	"github.com/jengzang/sporttracker-backend-go/internal/service"
	"github.com/jengzang/sporttracker-backend-go/internal/spatial"
	"github.com/jengzang/sporttracker-backend-go/internal/tilehunting"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/response"
)

// respondError maps domain errors onto HTTP status codes
func respondError(c *gin.Context, l logger.Logger, err error) {
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.Is(err, repository.ErrWorkoutNotFound):
		response.NotFound(c, "Workout not found")
	case errors.Is(err, repository.ErrPlannedTourNotFound):
		response.NotFound(c, "Planned tour not found")
	case errors.Is(err, spatial.ErrInvalidZoom),
		errors.Is(err, tilehunting.ErrTileOutOfRange),
		errors.Is(err, tilehunting.ErrInvalidTileSize),
		errors.Is(err, gpx.ErrInvalidGPX),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrTrackNotSupported):
		response.BadRequest(c, err.Error())
	case errors.As(err, &maxBytesErr):
		response.Error(c, http.StatusRequestEntityTooLarge, "Upload too large")
	default:
		l.Error("request failed", "path", c.FullPath(), "error", err)
		response.InternalError(c, "Internal server error")
	}
}

// currentUser returns the authenticated user id or aborts with 401
func currentUser(c *gin.Context) (int64, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
	}
	return userID, ok
}

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return id, true
}

// queryList accepts both repeated and comma separated query values
func queryList(c *gin.Context, key string) []string {
	var values []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

// parseFilter reads the types and years query parameters. Missing values
// are left empty so the workout service can fill in the defaults.
func parseFilter(c *gin.Context) (models.TileFilter, error) {
	var filter models.TileFilter

	for _, v := range queryList(c, "types") {
		t, err := models.ParseWorkoutType(strings.ToUpper(v))
		if err != nil {
			return filter, fmt.Errorf("%w: %v", service.ErrInvalidInput, err)
		}
		filter.Types = append(filter.Types, t)
	}

	for _, v := range queryList(c, "years") {
		year, err := strconv.Atoi(v)
		if err != nil {
			return filter, fmt.Errorf("%w: invalid year %q", service.ErrInvalidInput, v)
		}
		filter.Years = append(filter.Years, year)
	}

	return filter, nil
}

// uploadReader returns the GPX payload of a request: the multipart field
// "file" when present, the raw body otherwise
func uploadReader(c *gin.Context, maxBytes int64) (io.ReadCloser, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: missing file field: %v", service.ErrInvalidInput, err)
		}
		return header.Open()
	}

	return c.Request.Body, nil
}
