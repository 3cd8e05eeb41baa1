package events

import (
	"fmt"
	"time"

	"conflux/pkg/api"
)

// EventType type of event
type EventType string

const (
	TypePipelineStarted  EventType = "PIPELINE_STARTED"
	TypePipelineFinished EventType = "PIPELINE_FINISHED"
	TypeStageStarted     EventType = "STAGE_STARTED"
	TypeStageCompleted   EventType = "STAGE_COMPLETED"
	TypeStageFailed      EventType = "STAGE_FAILED"
	TypeStageSkipped     EventType = "STAGE_SKIPPED"
)

// Event represents a lifecycle message to publish.
type Event struct {
	Type          EventType   `json:"type"`
	RunID         string      `json:"runID"`
	PipelineID    string      `json:"pipelineID"`
	StageID       string      `json:"stageID,omitempty"`
	CorrelationID string      `json:"correlationID,omitempty"`
	Status        api.Status  `json:"status"`
	Data          interface{} `json:"data,omitempty"`
	Time          time.Time   `json:"time"`
}

func (e Event) String() string {
	if e.StageID == "" {
		return fmt.Sprintf("%s for run %s", e.Type, e.RunID)
	}
	return fmt.Sprintf("%s for stage %s of run %s", e.Type, e.StageID, e.RunID)
}

// StageEventData is the data attached to stage events.
type StageEventData struct {
	RecordsProcessed int64    `json:"recordsProcessed"`
	Errors           []string `json:"errors,omitempty"`
}

// PipelineEventData is the data attached to PIPELINE_FINISHED events.
type PipelineEventData struct {
	RecordsProcessed int64    `json:"recordsProcessed"`
	Errors           []string `json:"errors,omitempty"`
}

// ForStageResult returns the event type matching the terminal status of a stage.
func ForStageResult(status api.Status) EventType {
	switch status {
	case api.StatusCompleted:
		return TypeStageCompleted
	case api.StatusFailed:
		return TypeStageFailed
	case api.StatusSkipped:
		return TypeStageSkipped
	}
	return TypeStageStarted
}
