package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"conflux/pkg/api"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// readPipeline decodes the pipeline file, as YAML for .yaml and .yml extensions and as JSON otherwise.
func readPipeline(path string) (api.PipelineSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return api.PipelineSpec{}, errors.Errorf("cannot open file %s", path)
	}
	defer f.Close()

	var spec api.PipelineSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&spec)
	default:
		err = json.NewDecoder(f).Decode(&spec)
	}
	if err != nil {
		return api.PipelineSpec{}, errors.Wrapf(err, "cannot decode file %s as Pipeline Specification", path)
	}
	return spec, nil
}

// parseParams parses key=value flags into pipeline parameters.
// Values are decoded as YAML scalars so that numbers and booleans keep their type.
func parseParams(params []string) (map[string]interface{}, error) {
	m := make(map[string]interface{}, len(params))
	for _, p := range params {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, errors.Errorf("invalid parameter %q, expected key=value", p)
		}
		var v interface{}
		if err := yaml.Unmarshal([]byte(kv[1]), &v); err != nil || v == nil {
			v = kv[1]
		}
		m[kv[0]] = v
	}
	return m, nil
}

// withParams returns the pipeline parameters overridden by the given ones.
func withParams(spec api.PipelineSpec, params map[string]interface{}) api.PipelineSpec {
	if len(params) == 0 {
		return spec
	}
	merged := make(map[string]interface{}, len(spec.Parameters)+len(params))
	for k, v := range spec.Parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	spec.Parameters = merged
	return spec
}
