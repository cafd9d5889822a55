package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"vidvault/internal/api/dto"
)

// Info handles POST /api/info
// Looks up media metadata without starting a download.
func (h *JobHandler) Info(c *gin.Context) {
	var req dto.InfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	meta, err := h.orchestrator.Lookup(c.Request.Context(), req.URL)
	if err != nil {
		// A lookup error is a property of the URL, not a server fault.
		c.JSON(http.StatusOK, dto.InfoResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.InfoResponse{
		Success:   true,
		Title:     meta.Title,
		Duration:  meta.Duration,
		Thumbnail: meta.Thumbnail,
		Uploader:  meta.Uploader,
	})
}

// Download handles POST /api/download
// Creates a fetch job and returns its id for status polling.
func (h *JobHandler) Download(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	quality := req.Quality
	if quality == "" {
		quality = h.quality
	}

	jobID, err := h.orchestrator.Submit(req.URL, quality)
	if err != nil {
		h.logger.Warn("Submission rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Server is shutting down",
		})
		return
	}

	c.JSON(http.StatusOK, dto.DownloadResponse{
		Success: true,
		JobID:   jobID,
		Message: "Download started",
	})
}

// Status handles GET /api/status/:job_id
// Reports job progress and, once completed, the download token.
func (h *JobHandler) Status(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.orchestrator.Get(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Job not found",
		})
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		Status:   string(job.Status),
		Progress: job.Progress,
		Token:    job.Token,
		Error:    job.Error,
	})
}
