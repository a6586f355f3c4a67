package engine

import (
	"sort"

	"github.com/upliftlab/affirmd/internal/prompt"
)

// OutputShape selects how a model response is parsed and returned.
type OutputShape string

const (
	// ShapeList returns a flat affirmation list.
	ShapeList OutputShape = "list"
	// ShapeTagged returns an affirmation list plus theme tags.
	ShapeTagged OutputShape = "tagged"
	// ShapeText returns a single text block.
	ShapeText OutputShape = "text"
)

// Experiment is the configuration record for one generation flow. One
// generic orchestrator consumes these records instead of one hand-written
// function per variant.
type Experiment struct {
	// Version is the config-store namespace for this experiment.
	Version string
	// DefaultTemperature applies when the store holds no _temperature entry.
	// There is no global default; every experiment names its own.
	DefaultTemperature float64
	// Shape selects the parse strategy and response shape.
	Shape OutputShape
	// Fallback trades correctness for availability: when set, an upstream
	// model failure is replaced with deterministic affirmations built from
	// the request's preference fields instead of propagating.
	Fallback bool
}

// DefaultVersion is the experiment used when a request names none.
const DefaultVersion = "af-01"

// experiments registers the known generation flows.
var experiments = map[string]Experiment{
	"af-01": {Version: "af-01", DefaultTemperature: 0.9, Shape: ShapeList, Fallback: true},
	"af-02": {Version: "af-02", DefaultTemperature: 0.9, Shape: ShapeList},
	"gt-02": {Version: "gt-02", DefaultTemperature: 0.8, Shape: ShapeTagged},
	"fo-12": {Version: "fo-12", DefaultTemperature: 0.95, Shape: ShapeText, Fallback: true},
}

// LookupExperiment returns the experiment registered for a version.
func LookupExperiment(version string) (Experiment, bool) {
	if version == "" {
		version = DefaultVersion
	}
	exp, ok := experiments[version]
	return exp, ok
}

// Versions lists the registered experiment versions, sorted.
func Versions() []string {
	out := make([]string, 0, len(experiments))
	for v := range experiments {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// DefaultTemplate returns the hardcoded user-prompt template whose requested
// output matches the shape. Using a mismatched template would make the parser
// hand back a JSON array as a text block, or vice versa.
func DefaultTemplate(shape OutputShape) string {
	switch shape {
	case ShapeTagged:
		return prompt.DefaultTaggedTemplate
	case ShapeText:
		return prompt.DefaultTextTemplate
	default:
		return prompt.DefaultListTemplate
	}
}
