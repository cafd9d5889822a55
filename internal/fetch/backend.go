// Package fetch wraps the external media retrieval backend. Everything in
// here performs blocking subprocess and network work; callers are expected to
// run these operations from the orchestrator's worker pool.
package fetch

import (
	"context"
	"errors"
)

// ErrArtifactMissing is returned when the backend reports a successful
// retrieval but no output file can be found on disk.
var ErrArtifactMissing = errors.New("artifact not found after processing")

// Metadata describes a media source without downloading it.
type Metadata struct {
	Title     string `json:"title"`
	Duration  int    `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	Uploader  string `json:"uploader"`
}

// Backend is the retrieval collaborator. Both calls block until the backend
// finishes and honor context cancellation.
type Backend interface {
	// Lookup fetches metadata for url without downloading anything.
	Lookup(ctx context.Context, url string) (*Metadata, error)

	// Retrieve downloads url into destDir at the requested quality, naming
	// the output after name to keep concurrent jobs from colliding. It
	// returns the path of the produced file.
	Retrieve(ctx context.Context, url, destDir, quality, name string) (string, error)
}
