package dummy

import (
	"conflux/pkg/handler"
)

// Handler names registered by Register.
const (
	ExtractorRecords  = "records"
	ExtractorSource   = "source"
	TransformerPass   = "passthrough"
	TransformerSelect = "select"
	LoaderCounting    = "counting"
	ValidatorRequired = "required"
	EnricherStatic    = "static"
	ProcessorMerge    = "merge"
)

// Register registers every dummy handler into the given registry.
func Register(r *handler.Registry) {
	r.RegisterExtractor(ExtractorRecords, handler.ExtractorFunc(extractRecords))
	r.RegisterExtractor(ExtractorSource, handler.ExtractorFunc(extractSource))
	r.RegisterTransformer(TransformerPass, handler.TransformerFunc(passthrough))
	r.RegisterTransformer(TransformerSelect, handler.TransformerFunc(selectFields))
	r.RegisterLoader(LoaderCounting, handler.LoaderFunc(countingLoad))
	r.RegisterValidator(ValidatorRequired, handler.ValidatorFunc(requiredFields))
	r.RegisterEnricher(EnricherStatic, handler.EnricherFunc(staticFields))
	r.RegisterProcessor(ProcessorMerge, handler.ProcessorFunc(merge))
}

// NewRegistry returns a registry holding the dummy handlers.
func NewRegistry() *handler.Registry {
	r := handler.NewRegistry()
	Register(r)
	return r
}
