package handler

import (
	"testing"

	"conflux/pkg/api"
	"conflux/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.RegisterExtractor("static", ExtractorFunc(func(ctx context.Context, config map[string]interface{}, source interface{}) (interface{}, error) {
		return source, nil
	}))
	r.RegisterLoader("null", LoaderFunc(func(ctx context.Context, config map[string]interface{}, input interface{}) (LoadOutcome, error) {
		return LoadOutcome{ProcessedCount: 7}, nil
	}))
	r.RegisterLoader("another", LoaderFunc(func(ctx context.Context, config map[string]interface{}, input interface{}) (LoadOutcome, error) {
		return LoadOutcome{}, nil
	}))

	t.Run("found", func(t *testing.T) {
		e, err := r.Extractor("static")
		require.NoError(t, err)
		out, err := e.Extract(context.Background(), nil, "src")
		require.NoError(t, err)
		assert.Equal(t, "src", out)

		l, err := r.Loader("null")
		require.NoError(t, err)
		o, err := l.Load(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(7), o.ProcessedCount)
	})

	t.Run("namespaced_by_type", func(t *testing.T) {
		// A name registered as extractor is not a transformer
		_, err := r.Transformer("static")
		require.Error(t, err)
		var notRegistered ErrNotRegistered
		require.True(t, errors.As(err, &notRegistered))
		assert.Equal(t, "transformer static is not registered", err.Error())
	})

	t.Run("names", func(t *testing.T) {
		assert.Equal(t, []string{"another", "null"}, r.Names(api.StageLoad))
		assert.Empty(t, r.Names(api.StageCustom))
	})

	t.Run("all_kinds", func(t *testing.T) {
		r.RegisterTransformer("t", TransformerFunc(nil))
		r.RegisterValidator("v", ValidatorFunc(nil))
		r.RegisterEnricher("e", EnricherFunc(nil))
		r.RegisterProcessor("p", ProcessorFunc(nil))
		_, err := r.Transformer("t")
		assert.NoError(t, err)
		_, err = r.Validator("v")
		assert.NoError(t, err)
		_, err = r.Enricher("e")
		assert.NoError(t, err)
		_, err = r.Processor("p")
		assert.NoError(t, err)
		_, err = r.Processor("missing")
		assert.EqualError(t, err, "processor missing is not registered")
	})
}
