package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/jengzang/sporttracker-backend-go/internal/models"
	"github.com/jengzang/sporttracker-backend-go/internal/service"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/response"
)

// PlannedTourHandler handles HTTP requests for planned tours
type PlannedTourHandler struct {
	tourService    *service.PlannedTourService
	maxUploadBytes int64
	logger         logger.Logger
}

func NewPlannedTourHandler(tourService *service.PlannedTourService, maxUploadBytes int64, l logger.Logger) *PlannedTourHandler {
	return &PlannedTourHandler{
		tourService:    tourService,
		maxUploadBytes: maxUploadBytes,
		logger:         l,
	}
}

// CreatePlannedTour handles POST /api/v1/planned-tours
func (h *PlannedTourHandler) CreatePlannedTour(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.CreatePlannedTourRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	tour, err := h.tourService.CreatePlannedTour(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Created(c, tour)
}

// ListPlannedTours handles GET /api/v1/planned-tours
func (h *PlannedTourHandler) ListPlannedTours(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tours, err := h.tourService.ListPlannedTours(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, tours)
}

// UploadTrack handles PUT /api/v1/planned-tours/:id/track
func (h *PlannedTourHandler) UploadTrack(c *gin.Context) {
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

	count, err := h.tourService.UploadTrack(c.Request.Context(), userID, id, body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, gin.H{"tiles": count})
}

// DeletePlannedTour handles DELETE /api/v1/planned-tours/:id
func (h *PlannedTourHandler) DeletePlannedTour(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.tourService.DeletePlannedTour(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	response.Success(c, nil)
}
