package sparse

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Manager groups modifiers and delegates lifecycle calls to them in
// ascending start-epoch order, so a later-starting modifier's mask lands
// after an earlier one's effect on any shared parameter.
type Manager struct {
	runID     string
	createdAt time.Time
	modifiers []Modifier
}

// ManagerSummary is a JSON-taggable snapshot of one run's modifier set.
type ManagerSummary struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	Modifiers []ModifierSummary `json:"modifiers"`
}

// ModifierSummary describes one managed modifier's schedule window.
type ModifierSummary struct {
	Name            string  `json:"name"`
	StartEpoch      float64 `json:"start_epoch"`
	EndEpoch        float64 `json:"end_epoch"`
	AppliedSparsity float64 `json:"applied_sparsity,omitempty"`
}

// NewManager builds a manager over the given modifiers, sorted ascending by
// start epoch (stable for equal starts). A nil modifier fails with
// ErrInvalidModifier.
func NewManager(modifiers ...Modifier) (*Manager, error) {
	for i, mod := range modifiers {
		if mod == nil {
			return nil, fmt.Errorf("%w: modifier %d is nil", ErrInvalidModifier, i)
		}
	}

	sorted := append([]Modifier(nil), modifiers...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].StartEpoch() < sorted[b].StartEpoch()
	})

	return &Manager{
		runID:     uuid.New().String(),
		createdAt: time.Now(),
		modifiers: sorted,
	}, nil
}

// RunID returns the unique identifier of this manager's run.
func (m *Manager) RunID() string { return m.runID }

// Modifiers returns the managed modifiers in delegation order.
func (m *Manager) Modifiers() []Modifier { return m.modifiers }

// Initialize delegates to every modifier in order, stopping at the first
// failure. Resolution errors are fatal; a partially initialized manager
// should not be driven further.
func (m *Manager) Initialize(model Model, loggers ...Logger) error {
	for _, mod := range m.modifiers {
		if err := mod.Initialize(model, loggers...); err != nil {
			return err
		}
	}
	return nil
}

// Update delegates to every modifier whose schedule reports ready at this
// position. Start and end edges are always ready, so gating by cadence never
// skips a state transition.
func (m *Manager) Update(epoch float64, stepsPerEpoch int) error {
	for _, mod := range m.modifiers {
		if !mod.UpdateReady(epoch, stepsPerEpoch) {
			continue
		}
		if err := mod.Update(epoch, stepsPerEpoch); err != nil {
			return err
		}
	}
	return nil
}

// LogUpdate delegates to every modifier in order.
func (m *Manager) LogUpdate(epoch float64, stepsPerEpoch int) {
	for _, mod := range m.modifiers {
		mod.LogUpdate(epoch, stepsPerEpoch)
	}
}

// OptimizerPostStep delegates to every modifier in order. Invoked by the
// training loop after each optimizer step.
func (m *Manager) OptimizerPostStep() {
	for _, mod := range m.modifiers {
		mod.OptimizerPostStep()
	}
}

// Finalize delegates to every modifier in order, releasing their buffers.
func (m *Manager) Finalize() {
	for _, mod := range m.modifiers {
		mod.Finalize()
	}
}

// Summary snapshots the run for telemetry or persistence by the caller.
func (m *Manager) Summary() ManagerSummary {
	summary := ManagerSummary{
		RunID:     m.runID,
		CreatedAt: m.createdAt,
		Modifiers: make([]ModifierSummary, 0, len(m.modifiers)),
	}
	for _, mod := range m.modifiers {
		ms := ModifierSummary{
			Name:       mod.Name(),
			StartEpoch: mod.StartEpoch(),
			EndEpoch:   mod.EndEpoch(),
		}
		if g, ok := mod.(*GradualMagnitudeModifier); ok {
			if applied, set := g.AppliedSparsity(); set {
				ms.AppliedSparsity = applied
			}
		}
		summary.Modifiers = append(summary.Modifiers, ms)
	}
	return summary
}
