package api

const (
	// InputPipelineParams is keyword used for refering to pipeline parameters in stage configuration templates
	InputPipelineParams = "params"

	// ConfigFailOnError is the validator config key turning an invalid outcome into a stage failure
	ConfigFailOnError = "failOnError"
)

// StageType is the kind of work a stage performs.
type StageType string

const (
	// StageExtract produces data from the pipeline source
	StageExtract StageType = "EXTRACT"
	// StageTransform maps its input to an output
	StageTransform StageType = "TRANSFORM"
	// StageLoad writes its input to a destination
	StageLoad StageType = "LOAD"
	// StageValidate checks its input
	StageValidate StageType = "VALIDATE"
	// StageEnrich augments its input with additional fields
	StageEnrich StageType = "ENRICH"
	// StageCustom runs a registered processor over all dependency outputs
	StageCustom StageType = "CUSTOM"
)

// HandlerKey returns the configuration key naming the handler for the stage type.
// It returns an empty string for unknown types.
func (t StageType) HandlerKey() string {
	switch t {
	case StageExtract:
		return "extractorType"
	case StageTransform:
		return "transformerType"
	case StageLoad:
		return "loaderType"
	case StageValidate:
		return "validatorType"
	case StageEnrich:
		return "enricherType"
	case StageCustom:
		return "processorType"
	}
	return ""
}

// RequiresInput returns true when a stage of this type consumes the output of its first dependency,
// meaning it must declare at least one.
func (t StageType) RequiresInput() bool {
	switch t {
	case StageTransform, StageLoad, StageValidate, StageEnrich:
		return true
	}
	return false
}

// PipelineSpec is the specification of a pipeline run.
type PipelineSpec struct {
	// ID is the caller-supplied label of the pipeline. It is not required to be unique across runs.
	ID         string                 `json:"id" yaml:"id"`
	Name       string                 `json:"name" yaml:"name"`
	Stages     []StageSpec            `json:"stages" yaml:"stages"`
	Parameters map[string]interface{} `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// Source is an opaque reference to the data source, handed to extractors as is.
	Source interface{} `json:"source,omitempty" yaml:"source,omitempty"`
}

// StageSpec is the specification of a stage.
type StageSpec struct {
	ID        string                 `json:"id" yaml:"id"`
	Name      string                 `json:"name" yaml:"name"`
	Type      StageType              `json:"type" yaml:"type"`
	Config    map[string]interface{} `json:"config,omitempty" yaml:"config,omitempty"`
	DependsOn []string               `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Stage returns the spec of the stage with the given id.
func (p PipelineSpec) Stage(id string) (StageSpec, bool) {
	for _, s := range p.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return StageSpec{}, false
}

// Sinks returns the ids of the stages no other stage depends on, in declaration order.
func (p PipelineSpec) Sinks() []string {
	depended := make(map[string]bool)
	for _, s := range p.Stages {
		for _, d := range s.DependsOn {
			depended[d] = true
		}
	}
	var sinks []string
	for _, s := range p.Stages {
		if !depended[s.ID] {
			sinks = append(sinks, s.ID)
		}
	}
	return sinks
}
