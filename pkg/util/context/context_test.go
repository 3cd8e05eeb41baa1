package context

import (
	gocontext "context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithIdentifiers(t *testing.T) {
	ctx := Background()
	ctx = WithRunID(ctx, "run")
	ctx = WithPipelineID(ctx, "pipeline")
	ctx = WithStageID(ctx, "stage")
	ctx = WithCorrelationID(ctx, "corr")

	assert.Equal(t, "run", ctx.RunID())
	assert.Equal(t, "pipeline", ctx.PipelineID())
	assert.Equal(t, "stage", ctx.StageID())
	assert.Equal(t, "corr", ctx.CorrelationID())

	e := ctx.Logger()
	assert.Equal(t, "run", e.Data["run_id"])
	assert.Equal(t, "pipeline", e.Data["pipeline_id"])
	assert.Equal(t, "stage", e.Data["stage_id"])
}

func TestFromContext(t *testing.T) {
	ctx := WithRunID(Background(), "run")
	assert.Equal(t, "run", FromContext(ctx).RunID())

	plain := FromContext(gocontext.Background())
	assert.Equal(t, "", plain.RunID())
	assert.Empty(t, plain.Logger().Data)
}

func TestWithCancel(t *testing.T) {
	ctx := WithStageID(WithRunID(Background(), "run"), "stage")
	cctx, cancel := WithCancel(ctx)
	assert.Equal(t, "run", cctx.RunID())
	assert.Equal(t, "stage", cctx.StageID())
	require.NoError(t, cctx.Err())

	cancel()
	<-cctx.Done()
	assert.Equal(t, gocontext.Canceled, cctx.Err())
	// Derived contexts see the cancellation too
	assert.Error(t, WithStageID(cctx, "other").Err())
}
