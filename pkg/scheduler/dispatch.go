package scheduler

import (
	"strings"

	"conflux/pkg/api"
	"conflux/pkg/util/context"
	"conflux/pkg/util/maps"
	"conflux/pkg/util/template"

	"github.com/pkg/errors"
)

// dispatch invokes the handler registered for the stage and returns its output.
// A panicking handler fails the stage only.
func (sc *scheduler) dispatch(ctx context.Context, r *run, stage api.StageSpec) (output interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			output = nil
			err = errors.Errorf("handler panicked: %v", p)
		}
	}()

	if stage.Type.RequiresInput() && len(stage.DependsOn) == 0 {
		return nil, ConfigError{StageID: stage.ID, Err: errors.Errorf("%s stage requires at least one dependency", strings.ToLower(string(stage.Type)))}
	}
	config, err := stageConfig(r, stage)
	if err != nil {
		return nil, ConfigError{StageID: stage.ID, Err: err}
	}
	name, err := handlerName(stage.Type, config)
	if err != nil {
		return nil, ConfigError{StageID: stage.ID, Err: err}
	}

	switch stage.Type {
	case api.StageExtract:
		h, err := sc.registry.Extractor(name)
		if err != nil {
			return nil, ConfigError{StageID: stage.ID, Err: err}
		}
		return h.Extract(ctx, config, r.spec.Source)
	case api.StageTransform:
		h, err := sc.registry.Transformer(name)
		if err != nil {
			return nil, ConfigError{StageID: stage.ID, Err: err}
		}
		return h.Transform(ctx, config, r.output(stage.DependsOn[0]))
	case api.StageLoad:
		h, err := sc.registry.Loader(name)
		if err != nil {
			return nil, ConfigError{StageID: stage.ID, Err: err}
		}
		outcome, err := h.Load(ctx, config, r.output(stage.DependsOn[0]))
		if err != nil {
			return nil, err
		}
		return outcome, nil
	case api.StageValidate:
		h, err := sc.registry.Validator(name)
		if err != nil {
			return nil, ConfigError{StageID: stage.ID, Err: err}
		}
		failOnError, err := maps.Bool(config, api.ConfigFailOnError)
		if err != nil {
			return nil, ConfigError{StageID: stage.ID, Err: errors.Wrapf(err, "invalid %s", api.ConfigFailOnError)}
		}
		outcome, err := h.Validate(ctx, config, r.output(stage.DependsOn[0]))
		if err != nil {
			return nil, err
		}
		if failOnError && !outcome.Valid {
			return nil, ValidationError{StageID: stage.ID, Errors: outcome.Errors}
		}
		return outcome, nil
	case api.StageEnrich:
		h, err := sc.registry.Enricher(name)
		if err != nil {
			return nil, ConfigError{StageID: stage.ID, Err: err}
		}
		return h.Enrich(ctx, config, r.output(stage.DependsOn[0]))
	case api.StageCustom:
		h, err := sc.registry.Processor(name)
		if err != nil {
			return nil, ConfigError{StageID: stage.ID, Err: err}
		}
		return h.Process(ctx, config, r.outputsOf(stage.DependsOn))
	}
	return nil, ConfigError{StageID: stage.ID, Err: errors.Errorf("unknown stage type %q", stage.Type)}
}

// handlerName returns the handler name configured under the key matching the stage type.
func handlerName(typ api.StageType, config map[string]interface{}) (string, error) {
	key := typ.HandlerKey()
	if key == "" {
		return "", errors.Errorf("unknown stage type %q", typ)
	}
	v, ok := config[key]
	if !ok || v == nil {
		return "", errors.Errorf("missing %s", key)
	}
	name, ok := v.(string)
	if !ok {
		return "", errors.Errorf("%s must be a string", key)
	}
	if name == "" {
		return "", errors.Errorf("empty %s", key)
	}
	return name, nil
}

// stageConfig resolves the expressions of the stage config.
// Expressions may refer to the pipeline parameters (@{params.x}) or to the output of a dependency (@{stageID.x}).
func stageConfig(r *run, stage api.StageSpec) (map[string]interface{}, error) {
	if stage.Config == nil {
		return map[string]interface{}{}, nil
	}
	tpl := template.New(stage.Config)
	expressions := tpl.FindAll()
	if len(expressions) == 0 {
		return stage.Config, nil
	}

	values := make(map[string]interface{})
	values[api.InputPipelineParams] = r.spec.Parameters
	for _, expr := range expressions {
		stageID := strings.Split(expr.Text, ".")[0]
		if stageID == api.InputPipelineParams {
			continue
		}
		if !dependsOn(stage, stageID) {
			return nil, errors.Errorf("expression %s refers to %s which is not a dependency", expr, stageID)
		}
		values[stageID] = r.output(stageID)
	}
	resolved, err := tpl.Resolve(template.ResolveWithMap(values))
	if err != nil {
		return nil, errors.Wrap(err, "cannot resolve stage config")
	}
	config, ok := resolved.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("stage config resolved to %T", resolved)
	}
	return config, nil
}

func dependsOn(stage api.StageSpec, stageID string) bool {
	for _, d := range stage.DependsOn {
		if d == stageID {
			return true
		}
	}
	return false
}
