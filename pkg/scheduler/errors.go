package scheduler

import (
	"fmt"
	"strings"
)

// blockedMessage is the error attached to stages that can never become ready
const blockedMessage = "blocked by failed or missing dependency"

// ConfigError is the error reported by a stage whose configuration prevents its dispatch:
// missing handler key, unregistered handler, missing input dependency or unresolvable parameter.
type ConfigError struct {
	StageID string
	Err     error
}

func (err ConfigError) Error() string {
	return fmt.Sprintf("configuration error in stage %s: %s", err.StageID, err.Err)
}

// Unwrap returns the underlying error.
func (err ConfigError) Unwrap() error {
	return err.Err
}

// ValidationError is the error reported by a validate stage configured with failOnError
// when its validator returns an invalid outcome.
type ValidationError struct {
	StageID string
	Errors  []string
}

func (err ValidationError) Error() string {
	if len(err.Errors) == 0 {
		return fmt.Sprintf("validation failed in stage %s", err.StageID)
	}
	return fmt.Sprintf("validation failed in stage %s: %s", err.StageID, strings.Join(err.Errors, "; "))
}
