package store

import (
	"context"
	"time"

	"conflux/pkg/api"
)

// TimeOption is used when setting time is necessary
type TimeOption struct {
	StartTime time.Time
	EndTime   time.Time
}

// Store interface defines access to the pipeline status registry
type Store interface {
	SchedulerStore
	ReadOnlyStore
}

// SchedulerStore defines the write access used by the scheduler, the only writer of the registry
type SchedulerStore interface {
	// CreatePipeline registers a new run with every stage NOT_STARTED
	CreatePipeline(ctx context.Context, runID string, spec api.PipelineSpec) error
	SetPipelineStatus(ctx context.Context, runID string, status api.Status, opt TimeOption) error
	SetStageStatus(ctx context.Context, runID, stageID string, status api.Status) error
	SetRecordsProcessed(ctx context.Context, runID string, records int64) error
}

// ReadOnlyStore are functions used to query the registry
type ReadOnlyStore interface {
	// ListPipelines lists the runs as a map with runID as key and pipeline id as value
	ListPipelines(ctx context.Context) (map[string]string, error)
	GetPipelineState(ctx context.Context, runID string) (api.PipelineState, error)
	GetPipelineStatus(ctx context.Context, runID string) (api.Status, error)
}
