package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"conflux/pkg/api"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spec = api.PipelineSpec{
	ID:   "orders",
	Name: "Orders import",
	Stages: []api.StageSpec{
		{ID: "extract"},
		{ID: "load", DependsOn: []string{"extract"}},
	},
}

func TestInMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.CreatePipeline(ctx, "run1", spec))
	require.Error(t, s.CreatePipeline(ctx, "run1", spec))

	state, err := s.GetPipelineState(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, "orders", state.PipelineID)
	assert.Equal(t, api.StatusNotStarted, state.Status)
	assert.Equal(t, map[string]api.Status{"extract": api.StatusNotStarted, "load": api.StatusNotStarted}, state.Stages)
	assert.Nil(t, state.StartTime)

	start := time.Now()
	require.NoError(t, s.SetPipelineStatus(ctx, "run1", api.StatusRunning, TimeOption{StartTime: start}))
	require.NoError(t, s.SetStageStatus(ctx, "run1", "extract", api.StatusCompleted))
	require.NoError(t, s.SetRecordsProcessed(ctx, "run1", 12))
	end := start.Add(time.Second)
	require.NoError(t, s.SetPipelineStatus(ctx, "run1", api.StatusCompleted, TimeOption{EndTime: end}))

	state, err = s.GetPipelineState(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusCompleted, state.Status)
	assert.Equal(t, int64(12), state.RecordsProcessed)
	assert.Equal(t, api.StatusCompleted, state.Stages["extract"])
	require.NotNil(t, state.StartTime)
	require.NotNil(t, state.EndTime)
	assert.True(t, start.Equal(*state.StartTime))
	assert.True(t, end.Equal(*state.EndTime))

	status, err := s.GetPipelineStatus(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusCompleted, status)

	list, err := s.ListPipelines(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"run1": "orders"}, list)
}

func TestInMemorySnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.CreatePipeline(ctx, "run1", spec))

	state, err := s.GetPipelineState(ctx, "run1")
	require.NoError(t, err)
	state.Stages["extract"] = api.StatusFailed

	state, err = s.GetPipelineState(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusNotStarted, state.Stages["extract"])
}

func TestInMemoryNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.CreatePipeline(ctx, "run1", spec))

	errs := []error{
		s.SetPipelineStatus(ctx, "nope", api.StatusRunning, TimeOption{}),
		s.SetStageStatus(ctx, "nope", "extract", api.StatusRunning),
		s.SetStageStatus(ctx, "run1", "nope", api.StatusRunning),
		s.SetRecordsProcessed(ctx, "nope", 1),
	}
	_, err := s.GetPipelineState(ctx, "nope")
	errs = append(errs, err)
	_, err = s.GetPipelineStatus(ctx, "nope")
	errs = append(errs, err)

	for _, err := range errs {
		require.Error(t, err)
		assert.True(t, errors.As(err, &ErrNotFound{}))
	}
}

func TestInMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.CreatePipeline(ctx, "run1", spec))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.SetRecordsProcessed(ctx, "run1", int64(i)))
			assert.NoError(t, s.SetStageStatus(ctx, "run1", "extract", api.StatusRunning))
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.GetPipelineState(ctx, "run1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
