// Package recipe loads sparsification recipes from YAML documents into
// ready-to-manage modifiers.
//
// A recipe is a plain document deserialized into config structs, followed by
// explicit constructor calls; the mapping from a modifier type name to its
// builder lives in a Registry value passed by the caller, never in global
// parser state. Document shape:
//
//	version: 1
//	modifiers:
//	  - type: gradual_magnitude
//	    param: weight
//	    layers: __ALL__            # or [layer0_dense, layer1_dense]
//	    init_sparsity: 0.05
//	    final_sparsity: 0.8
//	    start_epoch: 0.0
//	    end_epoch: 10.0
//	    update_frequency: 1.0
//	    inter_func: cubic
package recipe

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openfluke/shear/sparse"
)

// ErrUnknownModifierType marks a recipe entry whose type has no registered
// builder.
var ErrUnknownModifierType = errors.New("unknown modifier type")

// Builder constructs one modifier from its recipe entry node.
type Builder func(node *yaml.Node) (sparse.Modifier, error)

// Registry maps modifier type names to builders. Zero value is empty; use
// NewRegistry or DefaultRegistry.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

// DefaultRegistry returns a registry with the built-in modifier kinds:
// gradual_magnitude.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("gradual_magnitude", buildGradualMagnitude)
	return reg
}

// Register binds a type name to a builder, replacing any previous binding.
func (r *Registry) Register(kind string, build Builder) {
	if r.builders == nil {
		r.builders = make(map[string]Builder)
	}
	r.builders[kind] = build
}

// Build constructs a modifier of the given kind from its entry node.
func (r *Registry) Build(kind string, node *yaml.Node) (sparse.Modifier, error) {
	build, ok := r.builders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModifierType, kind)
	}
	return build(node)
}

type document struct {
	Version   int         `yaml:"version"`
	Modifiers []yaml.Node `yaml:"modifiers"`
}

// Load reads a recipe file and builds its modifiers with reg.
func Load(path string, reg *Registry) ([]sparse.Modifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return Parse(data, reg)
}

// Parse builds the modifiers of a recipe document with reg. Entries are
// returned in document order; sorting by schedule is the Manager's job.
func Parse(data []byte, reg *Registry) ([]sparse.Modifier, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}

	modifiers := make([]sparse.Modifier, 0, len(doc.Modifiers))
	for i := range doc.Modifiers {
		node := &doc.Modifiers[i]

		var head struct {
			Type string `yaml:"type"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("failed to parse recipe modifier %d: %w", i, err)
		}

		mod, err := reg.Build(head.Type, node)
		if err != nil {
			return nil, fmt.Errorf("recipe modifier %d: %w", i, err)
		}
		modifiers = append(modifiers, mod)
	}
	return modifiers, nil
}

// selection decodes either the __ALL__ scalar, a single name, or a name
// sequence into a sparse.Selection.
type selection struct {
	sparse.Selection
}

func (s *selection) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		if name == sparse.AllToken {
			s.Selection = sparse.SelectAll()
		} else {
			s.Selection = sparse.Select(name)
		}
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return err
		}
		s.Selection = sparse.Select(names...)
		return nil
	default:
		return fmt.Errorf("selection must be %s or a name list (line %d)", sparse.AllToken, node.Line)
	}
}

type gradualDoc struct {
	Param           string    `yaml:"param"`
	Layers          selection `yaml:"layers"`
	InitSparsity    float64   `yaml:"init_sparsity"`
	FinalSparsity   float64   `yaml:"final_sparsity"`
	StartEpoch      float64   `yaml:"start_epoch"`
	EndEpoch        float64   `yaml:"end_epoch"`
	UpdateFrequency float64   `yaml:"update_frequency"`
	LeaveEnabled    *bool     `yaml:"leave_enabled"`
	InterFunc       string    `yaml:"inter_func"`
	ParamStrict     *bool     `yaml:"param_strict"`
	PruneGlobal     bool      `yaml:"prune_global"`
	AllowedLoggers  selection `yaml:"allowed_loggers"`
}

func buildGradualMagnitude(node *yaml.Node) (sparse.Modifier, error) {
	var doc gradualDoc
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse gradual_magnitude entry: %w", err)
	}

	cfg := sparse.DefaultGradualConfig()
	if doc.Param != "" {
		cfg.Param = doc.Param
	}
	if !doc.Layers.IsZero() {
		cfg.Layers = doc.Layers.Selection
	}
	cfg.InitSparsity = doc.InitSparsity
	cfg.FinalSparsity = doc.FinalSparsity
	cfg.StartEpoch = doc.StartEpoch
	cfg.EndEpoch = doc.EndEpoch
	cfg.UpdateFrequency = doc.UpdateFrequency
	if doc.LeaveEnabled != nil {
		cfg.LeaveEnabled = *doc.LeaveEnabled
	}
	if doc.InterFunc != "" {
		cfg.InterFunc = sparse.InterFunc(doc.InterFunc)
	}
	if doc.ParamStrict != nil {
		cfg.ParamStrict = *doc.ParamStrict
	}
	cfg.PruneGlobal = doc.PruneGlobal
	cfg.AllowedLoggers = doc.AllowedLoggers.Selection

	return sparse.NewGradualMagnitudeModifier(cfg)
}
