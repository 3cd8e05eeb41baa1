package scheduler

import (
	"sync"

	"conflux/pkg/api"
	"conflux/pkg/util/context"
)

// run holds the local state of one pipeline execution.
// The registry mirrors it for observers, the scheduler itself only reads this one.
type run struct {
	ctx    context.Context
	cancel func()
	spec   api.PipelineSpec

	mutex    sync.Mutex
	statuses map[string]api.Status
	outputs  map[string]interface{}
	results  []api.StageResult
	records  int64
}

func newRun(ctx context.Context, cancel func(), spec api.PipelineSpec) *run {
	statuses := make(map[string]api.Status, len(spec.Stages))
	for _, s := range spec.Stages {
		statuses[s.ID] = api.StatusNotStarted
	}
	return &run{
		ctx:      ctx,
		cancel:   cancel,
		spec:     spec,
		statuses: statuses,
		outputs:  make(map[string]interface{}),
		results:  []api.StageResult{},
	}
}

// ReadyToRun returns true when the stage is NOT_STARTED and every one of its dependencies is COMPLETED.
// A dependency missing from statuses is never completed.
func ReadyToRun(stage api.StageSpec, statuses map[string]api.Status) bool {
	if statuses[stage.ID] != api.StatusNotStarted {
		return false
	}
	for _, dep := range stage.DependsOn {
		if s, exist := statuses[dep]; !exist || s != api.StatusCompleted {
			return false
		}
	}
	return true
}

// wave returns the stages ready to run, in declaration order.
func (r *run) wave() []api.StageSpec {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var ready []api.StageSpec
	for _, s := range r.spec.Stages {
		if ReadyToRun(s, r.statuses) {
			ready = append(ready, s)
		}
	}
	return ready
}

// pending returns the stages that are not finished yet and whether one of them is running.
func (r *run) pending() (stages []api.StageSpec, running bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, s := range r.spec.Stages {
		switch st := r.statuses[s.ID]; {
		case st == api.StatusRunning:
			running = true
			stages = append(stages, s)
		case !st.Finished():
			stages = append(stages, s)
		}
	}
	return stages, running
}

func (r *run) setStatus(stageID string, status api.Status) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.statuses[stageID] = status
}

// finish records the terminal result of a stage, its output when it completed, and returns the new records total.
func (r *run) finish(res api.StageResult, output interface{}) int64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.statuses[res.StageID] = res.Status
	r.results = append(r.results, res)
	if res.Status == api.StatusCompleted {
		r.outputs[res.StageID] = output
		r.records += res.RecordsProcessed
	}
	return r.records
}

func (r *run) output(stageID string) interface{} {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.outputs[stageID]
}

// outputsOf returns the outputs of the given stages keyed by stage id.
func (r *run) outputsOf(stageIDs []string) map[string]interface{} {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	m := make(map[string]interface{}, len(stageIDs))
	for _, id := range stageIDs {
		m[id] = r.outputs[id]
	}
	return m
}

// snapshot returns a copy of the stage results and the records total.
func (r *run) snapshot() ([]api.StageResult, int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	results := make([]api.StageResult, len(r.results))
	copy(results, r.results)
	return results, r.records
}

// sinkOutputs returns the outputs of the completed sink stages.
func (r *run) sinkOutputs() map[string]interface{} {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make(map[string]interface{})
	for _, id := range r.spec.Sinks() {
		if v, ok := r.outputs[id]; ok {
			out[id] = v
		}
	}
	return out
}
