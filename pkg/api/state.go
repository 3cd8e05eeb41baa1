package api

import (
	"time"
)

// PipelineInfo represents basic pipeline run information
type PipelineInfo struct {
	RunID      string
	PipelineID string
	Name       string
}

// PipelineState is a point-in-time snapshot of a pipeline run.
type PipelineState struct {
	RunID            string            `json:"runID"`
	PipelineID       string            `json:"pipelineID"`
	Name             string            `json:"name"`
	Status           Status            `json:"status"`
	RecordsProcessed int64             `json:"recordsProcessed"`
	Stages           map[string]Status `json:"stages,omitempty"`
	StartTime        *time.Time        `json:"startTime,omitempty"`
	EndTime          *time.Time        `json:"endTime,omitempty"`
}

// StageResult is the outcome of a single stage.
type StageResult struct {
	StageID          string    `json:"stageID"`
	Status           Status    `json:"status"`
	StartTime        time.Time `json:"startTime"`
	EndTime          time.Time `json:"endTime"`
	RecordsProcessed int64     `json:"recordsProcessed"`
	Errors           []string  `json:"errors,omitempty"`
}

// PipelineResult is the outcome of a pipeline run.
type PipelineResult struct {
	RunID            string                 `json:"runID"`
	PipelineID       string                 `json:"pipelineID"`
	Status           Status                 `json:"status"`
	StartTime        time.Time              `json:"startTime"`
	EndTime          time.Time              `json:"endTime"`
	RecordsProcessed int64                  `json:"recordsProcessed"`
	StageResults     []StageResult          `json:"stageResults"`
	Errors           []string               `json:"errors,omitempty"`
	Output           map[string]interface{} `json:"output,omitempty"`
}

// StageResult returns the result of the stage with the given id.
func (r PipelineResult) StageResult(id string) (StageResult, bool) {
	for _, sr := range r.StageResults {
		if sr.StageID == id {
			return sr, true
		}
	}
	return StageResult{}, false
}
