package scheduler

import (
	"sync/atomic"

	"conflux/pkg/api"
	"conflux/pkg/handler"
	"conflux/pkg/util/context"

	"github.com/pkg/errors"
)

func stage(id string, typ api.StageType, name string, deps ...string) api.StageSpec {
	return api.StageSpec{
		ID:        id,
		Type:      typ,
		Config:    map[string]interface{}{typ.HandlerKey(): name},
		DependsOn: deps,
	}
}

func constant(v interface{}) handler.ExtractorFunc {
	return func(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error) {
		return v, nil
	}
}

func identity(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	return input, nil
}

func failing(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	return nil, errors.New("boom")
}

// counter counts the calls of a transformer
type counter struct {
	calls int32
}

func (c *counter) Transform(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
	atomic.AddInt32(&c.calls, 1)
	return input, nil
}

func (c *counter) count() int {
	return int(atomic.LoadInt32(&c.calls))
}

func testRegistry() *handler.Registry {
	r := handler.NewRegistry()
	r.RegisterExtractor("ten", constant(10))
	r.RegisterExtractor("rows", constant([]map[string]interface{}{{"id": 1}, {"id": 2}, {"id": 3}}))
	r.RegisterExtractor("panic", handler.ExtractorFunc(func(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error) {
		panic("extractor exploded")
	}))
	r.RegisterExtractor("failing", handler.ExtractorFunc(func(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error) {
		return nil, errors.New("source unreachable")
	}))
	r.RegisterTransformer("identity", handler.TransformerFunc(identity))
	r.RegisterTransformer("failing", handler.TransformerFunc(failing))
	r.RegisterTransformer("ten", handler.TransformerFunc(func(ctx context.Context, config map[string]interface{}, input interface{}) (interface{}, error) {
		return 10, nil
	}))
	r.RegisterLoader("ten", handler.LoaderFunc(func(ctx context.Context, config map[string]interface{}, input interface{}) (handler.LoadOutcome, error) {
		return handler.LoadOutcome{Destination: "memory", ProcessedCount: 10}, nil
	}))
	r.RegisterValidator("invalid", handler.ValidatorFunc(func(ctx context.Context, config map[string]interface{}, input interface{}) (handler.ValidationOutcome, error) {
		return handler.ValidationOutcome{Valid: false, ProcessedCount: 4, Errors: []string{"bad record"}}, nil
	}))
	r.RegisterEnricher("identity", handler.EnricherFunc(identity))
	return r
}

func linear(extractor, transformer, loader string) api.PipelineSpec {
	return api.PipelineSpec{
		ID:   "orders",
		Name: "Orders",
		Stages: []api.StageSpec{
			stage("extract", api.StageExtract, extractor),
			stage("transform", api.StageTransform, transformer, "extract"),
			stage("load", api.StageLoad, loader, "transform"),
		},
	}
}
