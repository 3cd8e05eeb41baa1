package scheduler

import (
	"sort"
	"sync"
	"time"

	"conflux/pkg/api"
	"conflux/pkg/broker"
	"conflux/pkg/events"
	"conflux/pkg/handler"
	"conflux/pkg/metrics"
	"conflux/pkg/store"
	"conflux/pkg/util/context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// SetupFunc is the function called when a pipeline is submitted, before its first wave.
type SetupFunc func(ctx context.Context, spec api.PipelineSpec) error

// TearDownFunc is the function called when a pipeline is finished, whatever its status.
type TearDownFunc func(ctx context.Context, result api.PipelineResult) error

// Scheduler defines the entries of the pipeline engine.
type Scheduler interface {
	// Submit runs the pipeline defined by the given spec and blocks until it reaches a terminal status.
	// Any failure is reported in the result, never as a panic.
	Submit(ctx context.Context, spec api.PipelineSpec) api.PipelineResult

	// Start runs the pipeline in the background and returns its run id.
	// The result is sent on the returned channel once the run is finished.
	Start(ctx context.Context, spec api.PipelineSpec) (string, <-chan api.PipelineResult)

	// Cancel requests the cancellation of a running pipeline. Stages already dispatched run to completion,
	// no further wave is started. Returns false if the run is unknown or not RUNNING.
	Cancel(ctx context.Context, runID string) bool

	// GetStatus returns a snapshot of the run state.
	GetStatus(ctx context.Context, runID string) (api.PipelineState, error)

	// ListPipelines returns the runs known to the registry, sorted by run id.
	ListPipelines(ctx context.Context) ([]api.PipelineInfo, error)

	// Set function to be called when a pipeline is submitted.
	SetSetupFunc(SetupFunc)

	// Set function to be called when a pipeline is finished. (Either success or failure)
	SetTearDownFunc(TearDownFunc)
}

// Option configures a scheduler.
type Option func(*scheduler)

// WithConfig sets the scheduler configuration.
func WithConfig(c Config) Option {
	return func(sc *scheduler) {
		sc.config = c.withDefaults()
	}
}

// WithStore sets the registry the run states are written to.
func WithStore(s store.Store) Option {
	return func(sc *scheduler) {
		sc.s = s
	}
}

// WithBroker sets the broker lifecycle events are published to.
func WithBroker(b broker.Broker) Option {
	return func(sc *scheduler) {
		sc.broker = b
	}
}

// WithMetrics sets the collectors updated along runs.
func WithMetrics(m *metrics.Metrics) Option {
	return func(sc *scheduler) {
		sc.metrics = m
	}
}

// NewScheduler returns a new instance of Pipeline scheduler dispatching stages to the handlers of the given registry.
func NewScheduler(registry *handler.Registry, opts ...Option) Scheduler {
	sc := &scheduler{
		registry: registry,
		config:   DefaultConfig(),
		runs:     make(map[string]*run),
	}
	for _, opt := range opts {
		opt(sc)
	}
	if sc.s == nil {
		sc.s = store.NewInMemoryStore()
	}
	return sc
}

type scheduler struct {
	registry *handler.Registry
	s        store.Store
	broker   broker.Broker
	metrics  *metrics.Metrics
	config   Config

	mutex        sync.Mutex
	runs         map[string]*run
	setupFunc    SetupFunc
	teardownFunc TearDownFunc
}

func (sc *scheduler) Submit(ctx context.Context, spec api.PipelineSpec) api.PipelineResult {
	_, c := sc.Start(ctx, spec)
	return <-c
}

func (sc *scheduler) Start(ctx context.Context, spec api.PipelineSpec) (string, <-chan api.PipelineResult) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = context.WithPipelineID(context.WithRunID(ctx, runID), spec.ID)
	ctx.Logger().Infof("starting pipeline %s", spec.Name)

	c := make(chan api.PipelineResult, 1)
	rctx, cancel := context.WithCancel(ctx)
	r := newRun(rctx, cancel, spec)

	if err := sc.s.CreatePipeline(ctx, runID, spec); err != nil {
		cancel()
		c <- sc.abort(r, start, errors.Wrapf(err, "cannot create pipeline %s", spec.ID))
		return runID, c
	}
	if err := sc.s.SetPipelineStatus(ctx, runID, api.StatusRunning, store.TimeOption{StartTime: start}); err != nil {
		ctx.Logger().Error(errors.Wrap(err, "cannot set pipeline status"))
	}
	sc.mutex.Lock()
	sc.runs[runID] = r
	sc.mutex.Unlock()
	sc.metrics.PipelineStarted()
	sc.publish(ctx, events.TypePipelineStarted, "", api.StatusRunning, nil)

	go func() {
		defer cancel()
		c <- sc.execute(r, start)
	}()
	return runID, c
}

// execute drives the run through its waves until every stage is finished or the run is cancelled.
// A fault escaping the stage boundary turns into a FAILED result.
func (sc *scheduler) execute(r *run, start time.Time) (res api.PipelineResult) {
	ctx := r.ctx
	defer func() {
		if p := recover(); p != nil {
			err := errors.Errorf("internal scheduler error: %v", p)
			ctx.Logger().Error(err)
			res = sc.abort(r, start, err)
		}
	}()

	if err := r.spec.Validate(); err != nil {
		ctx.Logger().Error(errors.Wrap(err, "invalid pipeline"))
		return sc.abort(r, start, err)
	}
	if setup, _ := sc.hooks(); setup != nil {
		if err := setup(ctx, r.spec); err != nil {
			return sc.abort(r, start, errors.Wrap(err, "error calling setup function"))
		}
	}

	for {
		pending, running := r.pending()
		if len(pending) == 0 {
			break
		}
		if ctx.Err() != nil {
			ctx.Logger().Infof("pipeline cancelled with %d stages left", len(pending))
			return sc.finish(r, start, api.StatusCancelled, nil)
		}
		wave := r.wave()
		if len(wave) == 0 {
			if running {
				sc.idle(ctx)
				continue
			}
			// Nothing is running and nothing can start: the remaining stages wait on a failed dependency.
			for _, s := range pending {
				sc.skip(ctx, r, s)
			}
			break
		}
		sc.runWave(ctx, r, wave)
	}

	results, _ := r.snapshot()
	status := api.StatusCompleted
	var errs []string
	for _, sr := range results {
		if sr.Status == api.StatusFailed {
			status = api.StatusFailed
		}
		for _, e := range sr.Errors {
			errs = append(errs, sr.StageID+": "+e)
		}
	}
	return sc.finish(r, start, status, errs)
}

func (sc *scheduler) idle(ctx context.Context) {
	t := time.NewTimer(sc.config.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// runWave dispatches the stages of a wave, at most Parallelism at a time, and waits for all of them.
func (sc *scheduler) runWave(ctx context.Context, r *run, wave []api.StageSpec) {
	g := new(errgroup.Group)
	g.SetLimit(sc.config.Parallelism)
	for _, s := range wave {
		s := s
		sctx := stageContext(ctx, s.ID)
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					sc.stagePanicked(sctx, r, s, p)
				}
			}()
			sc.runStage(sctx, r, s)
			return nil
		})
	}
	_ = g.Wait()
}

// stageContext returns the context handed to a stage handler. It carries the run identifiers
// but is not cancelled by Cancel: stages of a started wave run to completion.
func stageContext(ctx context.Context, stageID string) context.Context {
	sctx := context.WithRunID(context.Background(), ctx.RunID())
	sctx = context.WithPipelineID(sctx, ctx.PipelineID())
	sctx = context.WithCorrelationID(sctx, ctx.CorrelationID())
	return context.WithStageID(sctx, stageID)
}

func (sc *scheduler) runStage(ctx context.Context, r *run, stage api.StageSpec) {
	start := time.Now()
	r.setStatus(stage.ID, api.StatusRunning)
	sc.setStageStatus(ctx, stage.ID, api.StatusRunning)
	sc.publish(ctx, events.TypeStageStarted, stage.ID, api.StatusRunning, nil)
	ctx.Logger().Debugf("starting %s stage", stage.Type)

	output, err := sc.dispatch(ctx, r, stage)
	res := api.StageResult{
		StageID:   stage.ID,
		StartTime: start,
		EndTime:   time.Now(),
	}
	if err != nil {
		ctx.Logger().Error(errors.Wrapf(err, "stage %s failed", stage.ID))
		res.Status = api.StatusFailed
		res.Errors = []string{err.Error()}
		output = nil
	} else {
		res.Status = api.StatusCompleted
		res.RecordsProcessed = countRecords(output)
		ctx.Logger().Infof("stage completed with %d records", res.RecordsProcessed)
	}
	sc.stageFinished(ctx, r, stage, res, output)
}

// stagePanicked fails a stage whose bookkeeping panicked outside of its handler.
// Nothing is published: the broker may be the culprit.
func (sc *scheduler) stagePanicked(ctx context.Context, r *run, stage api.StageSpec, p interface{}) {
	err := errors.Errorf("stage %s aborted: %v", stage.ID, p)
	ctx.Logger().Error(err)
	r.mutex.Lock()
	finished := r.statuses[stage.ID].Finished()
	r.mutex.Unlock()
	if finished {
		return
	}
	now := time.Now()
	r.finish(api.StageResult{
		StageID:   stage.ID,
		Status:    api.StatusFailed,
		StartTime: now,
		EndTime:   now,
		Errors:    []string{err.Error()},
	}, nil)
	sc.setStageStatus(ctx, stage.ID, api.StatusFailed)
}

func (sc *scheduler) skip(ctx context.Context, r *run, stage api.StageSpec) {
	ctx = context.WithStageID(ctx, stage.ID)
	ctx.Logger().Warnf("skipping stage: %s", blockedMessage)
	now := time.Now()
	res := api.StageResult{
		StageID:   stage.ID,
		Status:    api.StatusSkipped,
		StartTime: now,
		EndTime:   now,
		Errors:    []string{blockedMessage},
	}
	sc.stageFinished(ctx, r, stage, res, nil)
}

func (sc *scheduler) stageFinished(ctx context.Context, r *run, stage api.StageSpec, res api.StageResult, output interface{}) {
	records := r.finish(res, output)
	sc.setStageStatus(ctx, stage.ID, res.Status)
	if err := sc.s.SetRecordsProcessed(ctx, ctx.RunID(), records); err != nil {
		ctx.Logger().Error(errors.Wrap(err, "cannot set records processed"))
	}
	sc.metrics.StageFinished(stage.Type, res)
	sc.publish(ctx, events.ForStageResult(res.Status), stage.ID, res.Status, events.StageEventData{
		RecordsProcessed: res.RecordsProcessed,
		Errors:           res.Errors,
	})
}

// abort ends a run that failed outside of any stage. Its stage results are left empty.
func (sc *scheduler) abort(r *run, start time.Time, err error) api.PipelineResult {
	r.mutex.Lock()
	r.results = []api.StageResult{}
	r.records = 0
	r.outputs = make(map[string]interface{})
	r.mutex.Unlock()
	return sc.finish(r, start, api.StatusFailed, []string{err.Error()})
}

// finish builds the result of the run, writes its terminal status and calls the teardown function.
func (sc *scheduler) finish(r *run, start time.Time, status api.Status, errs []string) api.PipelineResult {
	ctx := r.ctx
	results, records := r.snapshot()
	res := api.PipelineResult{
		RunID:            ctx.RunID(),
		PipelineID:       r.spec.ID,
		Status:           status,
		StartTime:        start,
		EndTime:          time.Now(),
		RecordsProcessed: records,
		StageResults:     results,
		Errors:           errs,
	}
	if status == api.StatusCompleted {
		res.Output = r.sinkOutputs()
	}

	if _, teardown := sc.hooks(); teardown != nil {
		if err := callTearDown(ctx, teardown, res); err != nil {
			err = errors.Wrap(err, "error calling teardown function")
			ctx.Logger().Error(err)
			res.Errors = append(res.Errors, err.Error())
		}
	}

	if err := sc.s.SetRecordsProcessed(ctx, res.RunID, records); err != nil {
		ctx.Logger().Error(errors.Wrap(err, "cannot set records processed"))
	}
	if err := sc.s.SetPipelineStatus(ctx, res.RunID, status, store.TimeOption{EndTime: res.EndTime}); err != nil {
		ctx.Logger().Error(errors.Wrapf(err, "cannot set status %s for pipeline", status))
	}
	sc.mutex.Lock()
	_, tracked := sc.runs[res.RunID]
	delete(sc.runs, res.RunID)
	sc.mutex.Unlock()
	if tracked {
		sc.metrics.PipelineFinished(r.spec.ID, status, res.EndTime.Sub(start))
	}
	sc.publish(ctx, events.TypePipelineFinished, "", status, events.PipelineEventData{
		RecordsProcessed: records,
		Errors:           res.Errors,
	})
	ctx.Logger().Infof("pipeline finished with status %s", status)
	return res
}

// callTearDown calls f, turning a panic into an error.
func callTearDown(ctx context.Context, f TearDownFunc, res api.PipelineResult) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("panic: %v", p)
		}
	}()
	return f(ctx, res)
}

func (sc *scheduler) setStageStatus(ctx context.Context, stageID string, status api.Status) {
	if err := sc.s.SetStageStatus(ctx, ctx.RunID(), stageID, status); err != nil {
		ctx.Logger().Error(errors.Wrapf(err, "cannot set status %s for stage %s", status, stageID))
	}
}

// publish sends a lifecycle event. Publication failures, panics included, never affect the run.
func (sc *scheduler) publish(ctx context.Context, typ events.EventType, stageID string, status api.Status, data interface{}) {
	if sc.broker == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			ctx.Logger().Errorf("broker panicked while publishing %s: %v", typ, p)
		}
	}()
	evt := events.Event{
		Type:          typ,
		RunID:         ctx.RunID(),
		PipelineID:    ctx.PipelineID(),
		StageID:       stageID,
		CorrelationID: ctx.CorrelationID(),
		Status:        status,
		Data:          data,
		Time:          time.Now(),
	}
	if err := sc.broker.Publish(ctx, evt); err != nil {
		ctx.Logger().Warn(errors.Wrapf(err, "cannot publish %s", evt))
	}
}

func (sc *scheduler) Cancel(ctx context.Context, runID string) bool {
	sc.mutex.Lock()
	r, ok := sc.runs[runID]
	sc.mutex.Unlock()
	if !ok {
		return false
	}
	status, err := sc.s.GetPipelineStatus(ctx, runID)
	if err != nil || status != api.StatusRunning {
		return false
	}
	r.ctx.Logger().Infof("cancelling pipeline %s", r.spec.ID)
	r.cancel()
	return true
}

func (sc *scheduler) GetStatus(ctx context.Context, runID string) (api.PipelineState, error) {
	return sc.s.GetPipelineState(ctx, runID)
}

func (sc *scheduler) ListPipelines(ctx context.Context) ([]api.PipelineInfo, error) {
	runs, err := sc.s.ListPipelines(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "cannot list pipelines")
	}
	infos := make([]api.PipelineInfo, 0, len(runs))
	for runID, pipelineID := range runs {
		info := api.PipelineInfo{RunID: runID, PipelineID: pipelineID}
		if state, err := sc.s.GetPipelineState(ctx, runID); err == nil {
			info.Name = state.Name
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].RunID < infos[j].RunID
	})
	return infos, nil
}

func (sc *scheduler) SetSetupFunc(f SetupFunc) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	sc.setupFunc = f
}

func (sc *scheduler) SetTearDownFunc(f TearDownFunc) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	sc.teardownFunc = f
}

func (sc *scheduler) hooks() (SetupFunc, TearDownFunc) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()
	return sc.setupFunc, sc.teardownFunc
}
