package handler

import (
	"sort"
	"sync"

	"conflux/pkg/api"
)

// Registry maps the handler identifiers found in stage configuration to handler implementations,
// one namespace per stage type. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[api.StageType]map[string]interface{}
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[api.StageType]map[string]interface{})}
}

func (r *Registry) register(t api.StageType, name string, h interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers[t] == nil {
		r.handlers[t] = make(map[string]interface{})
	}
	r.handlers[t][name] = h
}

func (r *Registry) get(t api.StageType, name string) (interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t][name]
	if !ok {
		return nil, ErrNotRegistered{Kind: kind(t), Name: name}
	}
	return h, nil
}

// RegisterExtractor adds an extractor under the given name. Overwrites any existing registration.
func (r *Registry) RegisterExtractor(name string, h Extractor) { r.register(api.StageExtract, name, h) }

// RegisterTransformer adds a transformer under the given name. Overwrites any existing registration.
func (r *Registry) RegisterTransformer(name string, h Transformer) {
	r.register(api.StageTransform, name, h)
}

// RegisterLoader adds a loader under the given name. Overwrites any existing registration.
func (r *Registry) RegisterLoader(name string, h Loader) { r.register(api.StageLoad, name, h) }

// RegisterValidator adds a validator under the given name. Overwrites any existing registration.
func (r *Registry) RegisterValidator(name string, h Validator) {
	r.register(api.StageValidate, name, h)
}

// RegisterEnricher adds an enricher under the given name. Overwrites any existing registration.
func (r *Registry) RegisterEnricher(name string, h Enricher) { r.register(api.StageEnrich, name, h) }

// RegisterProcessor adds a custom processor under the given name. Overwrites any existing registration.
func (r *Registry) RegisterProcessor(name string, h Processor) { r.register(api.StageCustom, name, h) }

// Extractor returns the extractor registered under name.
func (r *Registry) Extractor(name string) (Extractor, error) {
	h, err := r.get(api.StageExtract, name)
	if err != nil {
		return nil, err
	}
	return h.(Extractor), nil
}

// Transformer returns the transformer registered under name.
func (r *Registry) Transformer(name string) (Transformer, error) {
	h, err := r.get(api.StageTransform, name)
	if err != nil {
		return nil, err
	}
	return h.(Transformer), nil
}

// Loader returns the loader registered under name.
func (r *Registry) Loader(name string) (Loader, error) {
	h, err := r.get(api.StageLoad, name)
	if err != nil {
		return nil, err
	}
	return h.(Loader), nil
}

// Validator returns the validator registered under name.
func (r *Registry) Validator(name string) (Validator, error) {
	h, err := r.get(api.StageValidate, name)
	if err != nil {
		return nil, err
	}
	return h.(Validator), nil
}

// Enricher returns the enricher registered under name.
func (r *Registry) Enricher(name string) (Enricher, error) {
	h, err := r.get(api.StageEnrich, name)
	if err != nil {
		return nil, err
	}
	return h.(Enricher), nil
}

// Processor returns the custom processor registered under name.
func (r *Registry) Processor(name string) (Processor, error) {
	h, err := r.get(api.StageCustom, name)
	if err != nil {
		return nil, err
	}
	return h.(Processor), nil
}

// Names returns the sorted handler names registered for the given stage type.
func (r *Registry) Names(t api.StageType) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers[t]))
	for n := range r.handlers[t] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func kind(t api.StageType) string {
	switch t {
	case api.StageExtract:
		return "extractor"
	case api.StageTransform:
		return "transformer"
	case api.StageLoad:
		return "loader"
	case api.StageValidate:
		return "validator"
	case api.StageEnrich:
		return "enricher"
	case api.StageCustom:
		return "processor"
	}
	return "handler"
}
