package handler

import (
	"log/slog"

	"vidvault/internal/orchestrator"
	"vidvault/internal/store"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger       *slog.Logger
	Orchestrator *orchestrator.Orchestrator
	Tokens       *store.TokenStore
	Quality      string // default quality preset
}

// JobHandler handles job submission and status HTTP requests
type JobHandler struct {
	logger       *slog.Logger
	orchestrator *orchestrator.Orchestrator
	quality      string
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:       deps.Logger,
		orchestrator: deps.Orchestrator,
		quality:      deps.Quality,
	}
}

// FileHandler handles token redemption HTTP requests
type FileHandler struct {
	logger *slog.Logger
	tokens *store.TokenStore
}

// NewFileHandler creates a new FileHandler instance
func NewFileHandler(deps *Dependencies) *FileHandler {
	return &FileHandler{
		logger: deps.Logger,
		tokens: deps.Tokens,
	}
}
