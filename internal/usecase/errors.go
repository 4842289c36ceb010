package usecase

import "errors"

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrJobNotAnalyzable    = errors.New("job is not open for analysis")
	ErrCandidateNotFound   = errors.New("candidate not found")
	ErrScoreNotFound       = errors.New("score not found")
	ErrRunNotFound         = errors.New("no analysis run found")
	ErrProviderUnavailable = errors.New("evaluation provider unavailable")
	ErrStore               = errors.New("score store failure")
	ErrShuttingDown        = errors.New("controller is shutting down")
	ErrInvalidInput        = errors.New("invalid input")
)
