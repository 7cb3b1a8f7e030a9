package sparse

import "math"

// ModifierState tracks where a modifier is in its lifecycle.
type ModifierState int

const (
	// StateUninitialized covers construction up to a successful Initialize.
	StateUninitialized ModifierState = 0
	// StateActive covers the masking phase. Modifiers with LeaveEnabled
	// stay here forever once initialized.
	StateActive ModifierState = 1
	// StateDisabled is entered at the end edge when LeaveEnabled is false:
	// masks stay computed but are no longer enforced.
	StateDisabled ModifierState = 2
)

func (s ModifierState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Modifier is the capability set every training-loop modifier implements.
// The training loop (or a Manager) drives the lifecycle calls in a fixed
// per-step sequence; the accessors expose the schedule for ordering and
// cadence decisions. New modifier kinds implement this interface — there is
// no subclassing and no dynamic dispatch beyond it.
type Modifier interface {
	// Initialize resolves the modifier's targets against the model and
	// attaches the allowed loggers. Resolution errors are fatal.
	Initialize(model Model, loggers ...Logger) error

	// Update refreshes the modifier's effect for the current position in
	// the schedule. Invoked at least once per update-frequency interval.
	Update(epoch float64, stepsPerEpoch int) error

	// LogUpdate emits pending log events for the current position.
	LogUpdate(epoch float64, stepsPerEpoch int)

	// OptimizerPostStep restores the modifier's invariants after an
	// optimizer mutated the parameters.
	OptimizerPostStep()

	// Finalize releases owned buffers. The modifier is unusable afterwards.
	Finalize()

	// UpdateReady reports whether the schedule wants an Update call at the
	// given position. Start and end edges are always ready.
	UpdateReady(epoch float64, stepsPerEpoch int) bool

	StartEpoch() float64
	EndEpoch() float64
	Name() string
}

// ScheduleWindow bounds a modifier's active phase in fractional epochs.
// Immutable once the owning modifier is constructed.
type ScheduleWindow struct {
	StartEpoch float64
	EndEpoch   float64

	// UpdateFrequency is the minimum refresh cadence in epochs between
	// start and end. Zero or negative means ready on every call.
	UpdateFrequency float64
}

// Validate checks the window invariants.
func (w ScheduleWindow) Validate() error {
	if w.StartEpoch < 0 {
		return configErrorf("start_epoch must be >= 0, given %v", w.StartEpoch)
	}
	if w.EndEpoch < w.StartEpoch {
		return configErrorf("end_epoch must be >= start_epoch, given %v < %v", w.EndEpoch, w.StartEpoch)
	}
	return nil
}

// EpochStep quantizes a fractional epoch to a discrete step index:
// round(epoch * stepsPerEpoch), or round(epoch) when the step rate is
// unknown. Schedule edges and log steps go through the same quantization so
// fractional epochs always align to actual training steps.
func EpochStep(epoch float64, stepsPerEpoch int) int {
	if stepsPerEpoch <= 0 {
		return int(math.Round(epoch))
	}
	return int(math.Round(epoch * float64(stepsPerEpoch)))
}

// schedule tracks a window's runtime edges. Each edge fires exactly once.
type schedule struct {
	window     ScheduleWindow
	started    bool
	ended      bool
	lastUpdate float64
}

// startEdge reports the transition into the window, once.
func (s *schedule) startEdge(epoch float64, stepsPerEpoch int) bool {
	if s.started {
		return false
	}
	if EpochStep(epoch, stepsPerEpoch) < EpochStep(s.window.StartEpoch, stepsPerEpoch) {
		return false
	}
	s.started = true
	return true
}

// endEdge reports the transition out of the window, once.
func (s *schedule) endEdge(epoch float64, stepsPerEpoch int) bool {
	if s.ended {
		return false
	}
	if EpochStep(epoch, stepsPerEpoch) < EpochStep(s.window.EndEpoch, stepsPerEpoch) {
		return false
	}
	s.ended = true
	return true
}

// markUpdated records that an update ran at the given epoch.
func (s *schedule) markUpdated(epoch float64) {
	s.lastUpdate = epoch
}

// updateReady reports whether the window wants an update at this position:
// on either edge, and between them whenever at least UpdateFrequency epochs
// elapsed since the last update (in quantized steps).
func (s *schedule) updateReady(epoch float64, stepsPerEpoch int) bool {
	step := EpochStep(epoch, stepsPerEpoch)
	if !s.started {
		return step >= EpochStep(s.window.StartEpoch, stepsPerEpoch)
	}
	if !s.ended && step >= EpochStep(s.window.EndEpoch, stepsPerEpoch) {
		return true
	}
	if s.ended {
		return false
	}
	if s.window.UpdateFrequency <= 0 {
		return true
	}
	need := EpochStep(s.window.UpdateFrequency, stepsPerEpoch)
	if need < 1 {
		need = 1
	}
	return step-EpochStep(s.lastUpdate, stepsPerEpoch) >= need
}
