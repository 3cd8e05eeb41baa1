package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"conflux/pkg/api"

	"github.com/pkg/errors"
)

type pipeline struct {
	pipelineID string
	name       string
	status     api.Status
	records    int64
	stages     map[string]api.Status
	startTime  *time.Time
	endTime    *time.Time
}

// NewInMemoryStore returns a new InMemory store.
// Entries are never removed, long running processes must bound the number of runs themselves.
func NewInMemoryStore() Store {
	return &inMemory{
		pipelines: make(map[string]*pipeline),
	}
}

type inMemory struct {
	mutex     sync.RWMutex
	pipelines map[string]*pipeline
}

func (s *inMemory) CreatePipeline(ctx context.Context, runID string, spec api.PipelineSpec) error {
	stages := make(map[string]api.Status, len(spec.Stages))
	for _, st := range spec.Stages {
		stages[st.ID] = api.StatusNotStarted
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.pipelines[runID]; exists {
		return errors.Errorf("run %s already exists", runID)
	}
	s.pipelines[runID] = &pipeline{
		pipelineID: spec.ID,
		name:       spec.Name,
		status:     api.StatusNotStarted,
		stages:     stages,
	}
	return nil
}

func (s *inMemory) SetPipelineStatus(ctx context.Context, runID string, status api.Status, opt TimeOption) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, exists := s.pipelines[runID]
	if !exists {
		return NotFoundError(fmt.Sprintf("run %s", runID))
	}
	p.status = status
	if !opt.StartTime.IsZero() {
		t := opt.StartTime
		p.startTime = &t
	}
	if !opt.EndTime.IsZero() {
		t := opt.EndTime
		p.endTime = &t
	}
	return nil
}

func (s *inMemory) SetStageStatus(ctx context.Context, runID, stageID string, status api.Status) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, exists := s.pipelines[runID]
	if !exists {
		return NotFoundError(fmt.Sprintf("run %s", runID))
	}
	if _, exists := p.stages[stageID]; !exists {
		return NotFoundError(fmt.Sprintf("stage %s", stageID))
	}
	p.stages[stageID] = status
	return nil
}

func (s *inMemory) SetRecordsProcessed(ctx context.Context, runID string, records int64) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p, exists := s.pipelines[runID]
	if !exists {
		return NotFoundError(fmt.Sprintf("run %s", runID))
	}
	p.records = records
	return nil
}

func (s *inMemory) ListPipelines(ctx context.Context) (map[string]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	res := make(map[string]string, len(s.pipelines))
	for k, v := range s.pipelines {
		res[k] = v.pipelineID
	}
	return res, nil
}

func (s *inMemory) GetPipelineState(ctx context.Context, runID string) (api.PipelineState, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, exists := s.pipelines[runID]
	if !exists {
		return api.PipelineState{}, NotFoundError(fmt.Sprintf("run %s", runID))
	}
	stages := make(map[string]api.Status, len(p.stages))
	for k, v := range p.stages {
		stages[k] = v
	}
	return api.PipelineState{
		RunID:            runID,
		PipelineID:       p.pipelineID,
		Name:             p.name,
		Status:           p.status,
		RecordsProcessed: p.records,
		Stages:           stages,
		StartTime:        copyTime(p.startTime),
		EndTime:          copyTime(p.endTime),
	}, nil
}

func (s *inMemory) GetPipelineStatus(ctx context.Context, runID string) (api.Status, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	p, exists := s.pipelines[runID]
	if !exists {
		return "", NotFoundError(fmt.Sprintf("run %s", runID))
	}
	return p.status, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
