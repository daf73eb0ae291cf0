package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/sporttracker-backend-go/internal/handler"
	"github.com/jengzang/sporttracker-backend-go/internal/middleware"
	"github.com/jengzang/sporttracker-backend-go/pkg/logger"
	"github.com/jengzang/sporttracker-backend-go/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the handlers and middleware state the router mounts
type Dependencies struct {
	Workouts     *handler.WorkoutHandler
	Tiles        *handler.TileHandler
	PlannedTours *handler.PlannedTourHandler
	RateLimiter  *middleware.RateLimiter
	JWTSecret    []byte
	Logger       logger.Logger
}

// SetupRouter 设置路由
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(telemetry.GinMiddleware())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Sport tracker API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(deps.JWTSecret))
	if deps.RateLimiter != nil {
		api.Use(middleware.RateLimit(deps.RateLimiter))
	}
	{
		workouts := api.Group("/workouts")
		{
			workouts.POST("", deps.Workouts.CreateWorkout)
			workouts.GET("", deps.Workouts.ListWorkouts)
			workouts.GET("/:id", deps.Workouts.GetWorkout)
			workouts.DELETE("/:id", deps.Workouts.DeleteWorkout)
			workouts.PUT("/:id/track", deps.Workouts.UploadTrack)
			workouts.DELETE("/:id/track", deps.Workouts.DeleteTrack)
		}

		// 覆盖图瓦片, y may carry a .png suffix
		api.GET("/tiles/:zoom/:x/:y", deps.Tiles.RenderTile)

		hunting := api.Group("/tile-hunting")
		{
			hunting.GET("/max-square", deps.Tiles.GetMaxSquare)
			hunting.GET("/new-tiles", deps.Tiles.GetNewTilesPerWorkout)
			hunting.GET("/statistics", deps.Tiles.GetStatistics)
			hunting.GET("/new-tiles-per-year", deps.Tiles.GetNewTilesPerYear)
		}

		tours := api.Group("/planned-tours")
		{
			tours.POST("", deps.PlannedTours.CreatePlannedTour)
			tours.GET("", deps.PlannedTours.ListPlannedTours)
			tours.PUT("/:id/track", deps.PlannedTours.UploadTrack)
			tours.DELETE("/:id", deps.PlannedTours.DeletePlannedTour)
		}
	}

	return r
}
