package tracking

import "errors"

// Tracking store errors
var (
	// ErrExperimentNotFound indicates the experiment does not exist.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrRunNotFound indicates the run does not exist.
	ErrRunNotFound = errors.New("run not found")
)
