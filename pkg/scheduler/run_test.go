package scheduler

import (
	"testing"

	"conflux/pkg/api"

	"github.com/stretchr/testify/assert"
)

func TestReadyToRun(t *testing.T) {
	s := api.StageSpec{ID: "c", DependsOn: []string{"a", "b"}}

	assert.True(t, ReadyToRun(api.StageSpec{ID: "a"}, map[string]api.Status{"a": api.StatusNotStarted}))
	assert.False(t, ReadyToRun(api.StageSpec{ID: "a"}, map[string]api.Status{"a": api.StatusRunning}))
	assert.False(t, ReadyToRun(api.StageSpec{ID: "a"}, map[string]api.Status{"a": api.StatusCompleted}))

	statuses := map[string]api.Status{"a": api.StatusCompleted, "b": api.StatusRunning, "c": api.StatusNotStarted}
	assert.False(t, ReadyToRun(s, statuses))
	statuses["b"] = api.StatusCompleted
	assert.True(t, ReadyToRun(s, statuses))
	statuses["b"] = api.StatusSkipped
	assert.False(t, ReadyToRun(s, statuses))
	statuses["b"] = api.StatusFailed
	assert.False(t, ReadyToRun(s, statuses))

	// Missing dependency is never completed
	delete(statuses, "b")
	assert.False(t, ReadyToRun(s, statuses))
}

func TestRunWaveAndPending(t *testing.T) {
	spec := api.PipelineSpec{
		Stages: []api.StageSpec{
			{ID: "a"},
			{ID: "b"},
			{ID: "c", DependsOn: []string{"a", "b"}},
		},
	}
	r := newRun(nil, func() {}, spec)
	assert.Equal(t, []api.StageSpec{spec.Stages[0], spec.Stages[1]}, r.wave())

	r.setStatus("a", api.StatusRunning)
	pending, running := r.pending()
	assert.Len(t, pending, 3)
	assert.True(t, running)

	r.finish(api.StageResult{StageID: "a", Status: api.StatusCompleted, RecordsProcessed: 2}, []interface{}{1, 2})
	r.finish(api.StageResult{StageID: "b", Status: api.StatusFailed}, "ignored")
	pending, running = r.pending()
	assert.Equal(t, []api.StageSpec{spec.Stages[2]}, pending)
	assert.False(t, running)
	assert.Empty(t, r.wave())

	results, records := r.snapshot()
	assert.Len(t, results, 2)
	assert.Equal(t, int64(2), records)
	assert.Equal(t, map[string]interface{}{"a": []interface{}{1, 2}, "b": nil}, r.outputsOf([]string{"a", "b"}))
	assert.Empty(t, r.sinkOutputs())
}
