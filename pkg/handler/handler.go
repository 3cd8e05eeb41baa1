package handler

import (
	"conflux/pkg/util/context"
)

// Record is a single data record flowing between stages.
type Record map[string]interface{}

// LoadOutcome is the output of a Loader.
type LoadOutcome struct {
	Destination    string `json:"destination"`
	ProcessedCount int64  `json:"processedCount"`
}

// ValidationOutcome is the output of a Validator.
type ValidationOutcome struct {
	Valid          bool     `json:"valid"`
	ProcessedCount int64    `json:"processedCount"`
	Errors         []string `json:"errors,omitempty"`
}

// Extractor produces data from the pipeline source.
type Extractor interface {
	Extract(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error)
}

// Transformer maps an input to an output.
type Transformer interface {
	Transform(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error)
}

// Loader writes an input to a destination.
type Loader interface {
	Load(ctx context.Context, config map[string]interface{}, input interface{}) (LoadOutcome, error)
}

// Validator checks an input.
type Validator interface {
	Validate(ctx context.Context, config map[string]interface{}, input interface{}) (ValidationOutcome, error)
}

// Enricher augments an input with additional fields.
type Enricher interface {
	Enrich(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error)
}

// Processor is an arbitrary handler receiving the outputs of all its dependencies keyed by stage id.
type Processor interface {
	Process(ctx context.Context, config map[string]interface{}, inputs map[string]interface{}) (interface{}, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error)

// Extract calls f.
func (f ExtractorFunc) Extract(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error) {
	return f(ctx, config, source)
}

// TransformerFunc adapts a function to the Transformer interface.
type TransformerFunc func(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error)

// Transform calls f.
func (f TransformerFunc) Transform(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	return f(ctx, config, input)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, config map[string]interface{}, input interface{}) (LoadOutcome, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, config map[string]interface{}, input interface{}) (LoadOutcome, error) {
	return f(ctx, config, input)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, config map[string]interface{}, input interface{}) (ValidationOutcome, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, config map[string]interface{}, input interface{}) (ValidationOutcome, error) {
	return f(ctx, config, input)
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error)

// Enrich calls f.
func (f EnricherFunc) Enrich(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	return f(ctx, config, input)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, config map[string]interface{}, inputs map[string]interface{}) (interface{}, error)

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, config map[string]interface{}, inputs map[string]interface{}) (interface{}, error) {
	return f(ctx, config, inputs)
}
