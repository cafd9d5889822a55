package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job id is unknown or already reclaimed.
	ErrJobNotFound = errors.New("job not found")

	// ErrTokenNotFound is returned for any unredeemable token: unknown,
	// expired, already consumed, or missing its backing artifact. Callers
	// deliberately cannot tell these cases apart.
	ErrTokenNotFound = errors.New("token not found or expired")
)
