package pipeline

import "fmt"

// PrepareFailedError reports that a feature's Prepare hook failed for a
// given view; the driver aborts the remaining Prepare/Write work for that
// frame cleanly (already-running goroutines are allowed to finish, nothing
// is left half-written into a submit packet the caller might still read).
type PrepareFailedError struct {
	Feature string
	View    string
	Err     error
}

func (e *PrepareFailedError) Error() string {
	return fmt.Sprintf("pipeline: feature %q prepare failed for view %q: %v", e.Feature, e.View, e.Err)
}

func (e *PrepareFailedError) Unwrap() error { return e.Err }
