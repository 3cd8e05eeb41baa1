package api

import (
	"github.com/pkg/errors"
)

// Validate validates the pipeline specification.
// Rules are:
// - Stage ids are non empty and unique
// - A stage cannot depend on itself
// - No circular dependencies
//
// A pipeline without stages is valid and does nothing. Dependencies on unknown stages and stage
// configuration (handler keys, input dependencies) are checked when the stage is scheduled
// so that such errors remain scoped to the offending stage.
func (p PipelineSpec) Validate() error {
	ids := make(map[string]bool, len(p.Stages))
	for i, s := range p.Stages {
		if s.ID == "" {
			return errors.Errorf("stage at index %d has no id", i)
		}
		if ids[s.ID] {
			return errors.Errorf("duplicate stage id %s", s.ID)
		}
		ids[s.ID] = true
	}
	for _, s := range p.Stages {
		for _, d := range s.DependsOn {
			if d == s.ID {
				return errors.Errorf("stage %s depends on itself", s.ID)
			}
		}
	}
	if cycle := p.cycle(); len(cycle) != 0 {
		return errors.Errorf("circular dependency between stages %v", cycle)
	}
	return nil
}

// cycle returns the stages left over after a topological sort, which are those on or behind a cycle.
// Dependencies on unknown stages cannot be part of a cycle and are ignored.
func (p PipelineSpec) cycle() []string {
	known := make(map[string]bool, len(p.Stages))
	for _, s := range p.Stages {
		known[s.ID] = true
	}
	indegree := make(map[string]int, len(p.Stages))
	dependents := make(map[string][]string)
	for _, s := range p.Stages {
		indegree[s.ID] += 0
		for _, d := range s.DependsOn {
			if !known[d] {
				continue
			}
			indegree[s.ID]++
			dependents[d] = append(dependents[d], s.ID)
		}
	}
	var queue []string
	for _, s := range p.Stages {
		if indegree[s.ID] == 0 {
			queue = append(queue, s.ID)
		}
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if visited == len(p.Stages) {
		return nil
	}
	var remaining []string
	for _, s := range p.Stages {
		if indegree[s.ID] > 0 {
			remaining = append(remaining, s.ID)
		}
	}
	return remaining
}
