package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/service"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/response"
)

// WorkoutHandler handles HTTP requests for workouts and their tracks
type WorkoutHandler struct {
	workoutService *service.WorkoutService
	tileService    *service.TileHuntingService
	maxUploadBytes int64
	logger         logger.Logger
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workoutService *service.WorkoutService, tileService *service.TileHuntingService, maxUploadBytes int64, l logger.Logger) *WorkoutHandler {
	return &WorkoutHandler{
		workoutService: workoutService,
		tileService:    tileService,
		maxUploadBytes: maxUploadBytes,
		logger:         l,
	}
}

// CreateWorkout handles POST /api/v1/workouts
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Created(c, workout)
}

// ListWorkouts handles GET /api/v1/workouts
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	workouts, err := h.workoutService.ListWorkouts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, workouts)
}

// GetWorkout handles GET /api/v1/workouts/:id
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	workout, err := h.workoutService.GetWorkout(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, workout)
}

// DeleteWorkout handles DELETE /api/v1/workouts/:id
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tileService.DeleteWorkout(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, nil)
}

// UploadTrack handles PUT /api/v1/workouts/:id/track
func (h *WorkoutHandler) UploadTrack(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	body, err := uploadReader(c, h.maxUploadBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer body.Close()

	result, err := h.tileService.IngestTrack(c.Request.Context(), userID, id, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, result)
}

// DeleteTrack handles DELETE /api/v1/workouts/:id/track
func (h *WorkoutHandler) DeleteTrack(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tileService.RemoveTrack(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, nil)
}
