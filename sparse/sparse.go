// Package sparse implements gradual kernel sparsity (magnitude pruning) as
// pluggable modifiers that attach to a neural-network training loop.
//
// A modifier walks the parameters of selected layers from an initial to a
// final sparsity fraction over an epoch window, following an interpolation
// curve. It owns one boolean mask per tracked parameter and keeps masked
// weight elements at exactly zero through forward passes, backward passes
// and optimizer steps — including optimizers with momentum, which can move
// a masked weight away from zero even though its gradient was suppressed.
//
// The training loop drives the lifecycle in a fixed per-step sequence:
//
//	mod.Initialize(model, loggers...)
//	for each step {
//		mod.Update(epoch, stepsPerEpoch)        // refresh masks
//		... forward / backward / optimizer ...
//		mod.OptimizerPostStep()                 // re-zero masked weights
//		mod.LogUpdate(epoch, stepsPerEpoch)
//	}
//	mod.Finalize()
//
// Multiple modifiers are grouped under a Manager, which delegates the same
// calls in ascending start-epoch order.
//
// The framework side (layer graph, parameter buffers, log sinks) is consumed
// through the narrow Model, Layer and Logger interfaces below; package
// loomnet adapts loom grid networks to them.
package sparse

import (
	"sort"
	"strings"
)

// AllToken is the wildcard selecting every terminal layer of a model, or
// every attached logger, in place of an explicit name list.
const AllToken = "__ALL__"

// Param is one named parameter tensor of a layer. Data aliases the live
// framework buffer: writes through it are visible to the framework, and the
// framework is expected to mutate the buffer in place rather than swap it.
type Param struct {
	Name string
	Data []float32
}

// Layer exposes the parameters of one model layer in a stable order.
type Layer interface {
	Params() []Param
}

// Model is the layer-graph query surface a modifier resolves targets against.
type Model interface {
	// TerminalLayers returns every leaf layer keyed by its stable name.
	TerminalLayers() map[string]Layer

	// Layer returns the named layer, or an error wrapping ErrLayerNotFound.
	Layer(name string) (Layer, error)
}

// Logger is a scalar metric sink. Implementations must not block the
// training loop; see ConsoleLogger, ChannelLogger and HTTPLogger.
type Logger interface {
	// Name identifies the sink for allowed-logger filtering.
	Name() string

	// LogScalar records one scalar value under a stable tag at a step index.
	LogScalar(tag string, value float64, step int)
}

// Selection names a set of layers or loggers: either the __ALL__ wildcard
// or an explicit name list.
type Selection struct {
	all   bool
	names []string
}

// SelectAll returns the wildcard selection.
func SelectAll() Selection {
	return Selection{all: true}
}

// Select returns an explicit selection of the given names.
func Select(names ...string) Selection {
	return Selection{names: append([]string(nil), names...)}
}

// All reports whether the selection is the wildcard.
func (s Selection) All() bool { return s.all }

// Names returns the explicit names, nil for the wildcard.
func (s Selection) Names() []string { return s.names }

// IsZero reports whether the selection was never set. Callers that default
// an unset selection (e.g. allowed loggers) treat zero as the wildcard.
func (s Selection) IsZero() bool { return !s.all && s.names == nil }

// Contains reports whether name is selected.
func (s Selection) Contains(name string) bool {
	if s.all {
		return true
	}
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

func (s Selection) String() string {
	if s.all {
		return AllToken
	}
	return strings.Join(s.names, ",")
}

// sortedLayerNames returns the terminal layer names of model in ascending
// order. Map iteration order is not deterministic; target resolution must be.
func sortedLayerNames(layers map[string]Layer) []string {
	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
