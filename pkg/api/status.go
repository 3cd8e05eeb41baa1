package api

// Status is item (pipeline or stage) status
type Status string

const (
	// StatusNotStarted default status, item is declared but not dispatched yet
	StatusNotStarted Status = "NOT_STARTED"

	// StatusRunning status for items running
	StatusRunning Status = "RUNNING"

	// StatusCompleted status for items completed
	StatusCompleted Status = "COMPLETED"

	// StatusFailed status for items failed
	StatusFailed Status = "FAILED"

	// StatusSkipped status for stages that can never run because a dependency did not complete
	StatusSkipped Status = "SKIPPED"

	// StatusCancelled status for pipelines whose cancellation signal was observed
	StatusCancelled Status = "CANCELLED"
)

// Finished returns true if the status is considered final
func (s Status) Finished() bool {
	for _, fs := range []Status{StatusCompleted, StatusFailed, StatusSkipped, StatusCancelled} {
		if s == fs {
			return true
		}
	}
	return false
}
