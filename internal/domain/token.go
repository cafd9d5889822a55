package domain

import "time"

// Token is a single-use, time-limited credential for one produced artifact.
type Token struct {
	ID           string
	ArtifactPath string
	DisplayName  string
	CreatedAt    time.Time
	Consumed     bool
}
