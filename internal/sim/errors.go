package sim

import "errors"

var (
	// ErrInvalidConfig marks a run configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid simulation config")

	// ErrTrialFailed marks a trial aborted by an internal error, as opposed
	// to a trial that ended in a defined outcome.
	ErrTrialFailed = errors.New("trial failed")
)
