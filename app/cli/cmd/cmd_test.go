package cmd

import (
	"bytes"
	"testing"

	"conflux/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCommand(args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestReadPipeline(t *testing.T) {
	spec, err := readPipeline("testdata/orders.yaml")
	require.NoError(t, err)
	assert.Equal(t, "orders", spec.ID)
	require.Len(t, spec.Stages, 5)
	assert.Equal(t, api.StageValidate, spec.Stages[2].Type)
	assert.Equal(t, []string{"enrich", "check"}, spec.Stages[4].DependsOn)
	assert.Equal(t, 5, spec.Parameters["count"])

	spec, err = readPipeline("testdata/broken.json")
	require.NoError(t, err)
	assert.Equal(t, "broken", spec.ID)

	_, err = readPipeline("testdata/missing.json")
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"count=3", "name=orders", "dry=true", "query=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"count": 3, "name": "orders", "dry": true, "query": "a=b"}, params)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)

	spec := withParams(api.PipelineSpec{Parameters: map[string]interface{}{"count": 1, "keep": "x"}}, params)
	assert.Equal(t, 3, spec.Parameters["count"])
	assert.Equal(t, "x", spec.Parameters["keep"])
}

func TestRunCommand(t *testing.T) {
	out, err := execCommand("run", "testdata/orders.yaml", "--param", "count=4", "--metrics")
	require.NoError(t, err, out)
	assert.Contains(t, out, "COMPLETED")
	// 4 extracted + 4 selected + 4 validated + 4 enriched + 4 loaded
	assert.Contains(t, out, "20")
	assert.Contains(t, out, "conflux_pipeline_runs_total")

	out, err = execCommand("run", "testdata/broken.json")
	require.Error(t, err)
	assert.Contains(t, out, "dummy error")
	assert.Contains(t, out, "SKIPPED")
}

func TestValidateCommand(t *testing.T) {
	out, err := execCommand("validate", "testdata/orders.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "pipeline orders is valid (5 stages)")

	_, err = execCommand("validate", "testdata/cyclic.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestHandlersCommand(t *testing.T) {
	out, err := execCommand("handlers")
	require.NoError(t, err)
	assert.Contains(t, out, "extractorType")
	assert.Contains(t, out, "records, source")
}
