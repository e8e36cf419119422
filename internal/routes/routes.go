package routes

import (
	"github.com/gin-gonic/gin"

	"project-tracker/internal/auth"
	"project-tracker/internal/handlers"
	"project-tracker/internal/log"
	"project-tracker/internal/middleware"
)

// SetupRoutes wires the API on a new gin engine.
func SetupRoutes(h *handlers.Handler, logger log.Logger) *gin.Engine {
	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

	ginRouter.GET("/health", h.Health)

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/login", h.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		protectedRoutes.GET("/ws", h.WebSocket)
		protectedRoutes.GET("/status", h.Status)
		protectedRoutes.POST("/reload", h.Reload)

		protectedRoutes.GET("/tasks", h.ListTasks)
		protectedRoutes.POST("/tasks", h.CreateTask)
		protectedRoutes.POST("/tasks/validate", h.ValidateTask)
		protectedRoutes.GET("/tasks/:id", h.GetTask)
		protectedRoutes.PUT("/tasks/:id", h.UpdateTask)
		protectedRoutes.DELETE("/tasks/:id", h.DeleteTask)

		protectedRoutes.GET("/dashboard", h.Dashboard)
		protectedRoutes.GET("/calendar", h.Calendar)
		protectedRoutes.GET("/gantt", h.Gantt)
		protectedRoutes.POST("/import", h.Import)
		protectedRoutes.GET("/export", h.Export)

		protectedRoutes.GET("/preferences", h.GetPreferences)
		protectedRoutes.PUT("/preferences", h.UpdatePreferences)
		protectedRoutes.GET("/master", h.GetMasterData)
	}

	// Settings are only shown to admins
	settings := protectedRoutes.Group("/settings")
	settings.Use(middleware.RequireTier(auth.TierAdmin))
	{
		settings.GET("/master", h.GetSettings)
		settings.POST("/operations/:id/retry", h.RetryOperation)
	}

	return ginRouter
}
