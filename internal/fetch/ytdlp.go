package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// fragment download tuning, matching what worked well for large HD sources
const (
	concurrentFragments = 8
	downloadRetries     = "10"
	fragmentRetries     = "10"
)

// YTDLP is the yt-dlp backed implementation of Backend.
type YTDLP struct {
	logger *slog.Logger
}

// NewYTDLP creates a yt-dlp backend. Install must have been called before the
// first Lookup or Retrieve (see cmd/server).
func NewYTDLP(logger *slog.Logger) *YTDLP {
	return &YTDLP{logger: logger}
}

// Install makes sure a usable yt-dlp binary is available, downloading one
// when the host has none.
func Install(ctx context.Context) error {
	_, err := ytdlp.Install(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

// Lookup runs a metadata-only extraction and decodes the single-JSON dump.
func (y *YTDLP) Lookup(ctx context.Context, url string) (*Metadata, error) {
	dl := ytdlp.New().
		SkipDownload().
		DumpSingleJSON()

	result, err := dl.Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("metadata lookup failed: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal([]byte(result.Stdout), &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.Title == "" {
		meta.Title = "Unknown"
	}

	y.logger.Debug("Metadata lookup complete",
		slog.String("url", url),
		slog.String("title", meta.Title),
		slog.Int("duration", meta.Duration),
	)

	return &meta, nil
}

// Retrieve downloads url into destDir as <name>.mp4 and returns the produced
// path. yt-dlp occasionally writes a variant of the requested name, so the
// expected candidates are probed before giving up with ErrArtifactMissing.
func (y *YTDLP) Retrieve(ctx context.Context, url, destDir, quality, name string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	output := filepath.Join(destDir, name+".mp4")

	dl := ytdlp.New().
		Format(FormatFor(quality)).
		Output(output).
		MergeOutputFormat("mp4").
		ForceOverwrites().
		ConcurrentFragments(concurrentFragments).
		Retries(downloadRetries).
		FragmentRetries(fragmentRetries)

	if _, err := dl.Run(ctx, url); err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	produced, ok := findProduced(output)
	if !ok {
		return "", ErrArtifactMissing
	}

	y.logger.Info("Download complete",
		slog.String("url", url),
		slog.String("path", produced),
	)

	return produced, nil
}

// findProduced locates the file yt-dlp actually wrote for the requested
// output path, trying the known naming variants.
func findProduced(output string) (string, bool) {
	candidates := []string{
		output,
		strings.TrimSuffix(output, ".mp4") + ".mp4.mp4",
		strings.TrimSuffix(output, ".mp4") + ".webm",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}
