package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidvault/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "vidvault",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	fileHandler := handler.NewFileHandler(deps)

	api := r.Group("/api")
	{
		// POST /api/info - Look up media metadata
		api.POST("/info", jobHandler.Info)

		// POST /api/download - Start a fetch job
		api.POST("/download", jobHandler.Download)

		// GET /api/status/:job_id - Poll job progress
		api.GET("/status/:job_id", jobHandler.Status)

		// GET /api/file/:token - Redeem a one-time download token
		api.GET("/file/:token", fileHandler.Redeem)
	}

	return r
}
