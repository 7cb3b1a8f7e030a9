package sparse

import "fmt"

// GradualConfig configures a GradualMagnitudeModifier. The struct is a plain
// value validated once at construction; there are no post-construction
// setters.
type GradualConfig struct {
	// Param names the parameter to prune in every selected layer
	// ("weight", "bias", "weight_ih", ...).
	Param string

	// Layers selects the target layers: the __ALL__ wildcard or an
	// explicit name list.
	Layers Selection

	// InitSparsity and FinalSparsity bound the walked sparsity, both in
	// [0,1].
	InitSparsity  float64
	FinalSparsity float64

	// StartEpoch, EndEpoch and UpdateFrequency form the schedule window.
	StartEpoch      float64
	EndEpoch        float64
	UpdateFrequency float64

	// LeaveEnabled keeps masks enforced after EndEpoch. When false the
	// modifier disables its masks at the end edge.
	LeaveEnabled bool

	// InterFunc selects the interpolation curve. Empty defaults to linear.
	InterFunc InterFunc

	// ParamStrict makes a missing Param on an explicitly listed layer a
	// fatal error. Wildcard selections always skip silently.
	ParamStrict bool

	// PruneGlobal ranks magnitudes jointly across every target instead of
	// per layer.
	PruneGlobal bool

	// AllowedLoggers filters the loggers handed to Initialize by name.
	// Zero or __ALL__ keeps them all.
	AllowedLoggers Selection
}

// DefaultGradualConfig returns the config defaults: prune "weight" on every
// terminal layer, linear curve, strict params, masks left enabled.
func DefaultGradualConfig() GradualConfig {
	return GradualConfig{
		Param:        "weight",
		Layers:       SelectAll(),
		LeaveEnabled: true,
		InterFunc:    InterLinear,
		ParamStrict:  true,
	}
}

// Window returns the config's schedule window.
func (c GradualConfig) Window() ScheduleWindow {
	return ScheduleWindow{
		StartEpoch:      c.StartEpoch,
		EndEpoch:        c.EndEpoch,
		UpdateFrequency: c.UpdateFrequency,
	}
}

// GradualMagnitudeModifier prunes the selected parameters from InitSparsity
// to FinalSparsity across [StartEpoch, EndEpoch], masking the weights of
// smallest absolute magnitude. Masks are refreshed on Update and re-applied
// on OptimizerPostStep so momentum updates cannot resurrect pruned weights.
type GradualMagnitudeModifier struct {
	cfg   GradualConfig
	sched schedule
	state ModifierState

	masks     []*ParamMask
	analyzers []*Analyzer
	loggers   []Logger

	applied    float64
	appliedSet bool
	lastLogged float64
	loggedSet  bool
}

// NewGradualMagnitudeModifier validates cfg and constructs the modifier.
// Layer resolution is deferred to Initialize. Returns an error wrapping
// ErrInvalidConfig on bad schedule bounds, sparsities outside [0,1] or an
// unrecognized curve.
func NewGradualMagnitudeModifier(cfg GradualConfig) (*GradualMagnitudeModifier, error) {
	if cfg.InterFunc == "" {
		cfg.InterFunc = InterLinear
	}
	if cfg.Param == "" {
		return nil, configErrorf("GradualMagnitudeModifier: param must be set")
	}
	if err := cfg.Window().Validate(); err != nil {
		return nil, err
	}
	if cfg.InitSparsity < 0 || cfg.InitSparsity > 1 {
		return nil, configErrorf("GradualMagnitudeModifier: init_sparsity must be in [0,1], given %v", cfg.InitSparsity)
	}
	if cfg.FinalSparsity < 0 || cfg.FinalSparsity > 1 {
		return nil, configErrorf("GradualMagnitudeModifier: final_sparsity must be in [0,1], given %v", cfg.FinalSparsity)
	}
	if !cfg.InterFunc.Valid() {
		return nil, configErrorf("GradualMagnitudeModifier: inter_func %q not one of %v", cfg.InterFunc, InterFuncs)
	}
	return &GradualMagnitudeModifier{
		cfg:   cfg,
		sched: schedule{window: cfg.Window()},
	}, nil
}

func (m *GradualMagnitudeModifier) Name() string { return "GradualMagnitudeModifier" }

// Config returns the immutable configuration.
func (m *GradualMagnitudeModifier) Config() GradualConfig { return m.cfg }

// State reports the lifecycle state.
func (m *GradualMagnitudeModifier) State() ModifierState { return m.state }

func (m *GradualMagnitudeModifier) StartEpoch() float64 { return m.cfg.StartEpoch }
func (m *GradualMagnitudeModifier) EndEpoch() float64   { return m.cfg.EndEpoch }

// AppliedSparsity returns the sparsity pushed to the masks by the last
// Update, false before the first Update.
func (m *GradualMagnitudeModifier) AppliedSparsity() (float64, bool) {
	return m.applied, m.appliedSet
}

// Masks returns the resolved targets in resolution order.
func (m *GradualMagnitudeModifier) Masks() []*ParamMask { return m.masks }

// Analyzers returns the per-target analyzers, index-paired with Masks.
func (m *GradualMagnitudeModifier) Analyzers() []*Analyzer { return m.analyzers }

// Initialize resolves the configured layer selection against the model and
// builds one ParamMask and one Analyzer per (layer, param) target. Explicit
// layer names that do not exist fail with ErrLayerNotFound; a missing param
// fails with ErrMissingParam only under ParamStrict with an explicit list,
// otherwise the layer is skipped. Loggers are filtered by AllowedLoggers.
func (m *GradualMagnitudeModifier) Initialize(model Model, loggers ...Logger) error {
	if m.state != StateUninitialized {
		return fmt.Errorf("%s: already initialized", m.Name())
	}

	var names []string
	explicit := !m.cfg.Layers.All()
	if explicit {
		names = m.cfg.Layers.Names()
	} else {
		names = sortedLayerNames(model.TerminalLayers())
	}

	for _, name := range names {
		layer, err := model.Layer(name)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Name(), err)
		}

		found := false
		for _, p := range layer.Params() {
			if p.Name != m.cfg.Param {
				continue
			}
			m.masks = append(m.masks, NewParamMask(name, p.Name, p.Data))
			m.analyzers = append(m.analyzers, NewAnalyzer(name, p.Name, p.Data))
			found = true
			break
		}
		if !found && m.cfg.ParamStrict && explicit {
			return fmt.Errorf("%w: %q in layer %q (%s)", ErrMissingParam, m.cfg.Param, name, m.Name())
		}
	}

	m.loggers = filterLoggers(loggers, m.cfg.AllowedLoggers)
	m.state = StateActive
	return nil
}

// Update moves the schedule forward: enables masks on the start edge,
// disables them on the end edge when LeaveEnabled is false, and always
// recomputes the target sparsity and pushes it to every mask. Outside the
// window the clamped interpolation gives the idle mask (init sparsity before
// the start, final sparsity held after the end).
func (m *GradualMagnitudeModifier) Update(epoch float64, stepsPerEpoch int) error {
	if m.state == StateUninitialized {
		return fmt.Errorf("%s: update before initialize", m.Name())
	}

	if m.sched.startEdge(epoch, stepsPerEpoch) {
		for _, mask := range m.masks {
			mask.SetEnabled(true)
		}
	}
	if m.sched.endEdge(epoch, stepsPerEpoch) && !m.cfg.LeaveEnabled {
		for _, mask := range m.masks {
			mask.SetEnabled(false)
		}
		m.state = StateDisabled
	}

	applied, err := Interpolate(epoch, m.cfg.StartEpoch, m.cfg.EndEpoch,
		m.cfg.InitSparsity, m.cfg.FinalSparsity, m.cfg.InterFunc)
	if err != nil {
		// Unreachable after construction validation.
		return fmt.Errorf("%s: %w", m.Name(), err)
	}
	m.applied = applied
	m.appliedSet = true

	if m.cfg.PruneGlobal {
		SetGlobalSparsity(m.masks, applied)
	} else {
		for _, mask := range m.masks {
			mask.SetSparsity(applied)
		}
	}

	m.sched.markUpdated(epoch)
	return nil
}

// LogUpdate emits one scalar per (logger, analyzer) pair when the applied
// sparsity changed since the last emission. Values are the measured zero
// fractions, so they reflect the tensors as the optimizer last left them.
func (m *GradualMagnitudeModifier) LogUpdate(epoch float64, stepsPerEpoch int) {
	if !m.appliedSet || (m.loggedSet && m.applied == m.lastLogged) {
		return
	}

	step := EpochStep(epoch, stepsPerEpoch)
	for _, logger := range m.loggers {
		for _, a := range m.analyzers {
			logger.LogScalar("Sparsity/"+a.Tag(), a.ParamSparsity(), step)
		}
	}
	m.lastLogged = m.applied
	m.loggedSet = true
}

// OptimizerPostStep re-applies every mask. Momentum-carrying optimizers can
// move a masked weight away from zero even though its gradient was masked;
// re-zeroing after each optimizer step keeps the sparsity invariant.
func (m *GradualMagnitudeModifier) OptimizerPostStep() {
	for _, mask := range m.masks {
		mask.Apply()
	}
}

// Finalize releases every mask buffer. The modifier is unusable afterwards.
func (m *GradualMagnitudeModifier) Finalize() {
	for _, mask := range m.masks {
		mask.Release()
	}
	m.masks = nil
	m.analyzers = nil
	m.loggers = nil
}

// UpdateReady reports whether the schedule wants an Update at this position.
func (m *GradualMagnitudeModifier) UpdateReady(epoch float64, stepsPerEpoch int) bool {
	if m.state == StateUninitialized {
		return false
	}
	return m.sched.updateReady(epoch, stepsPerEpoch)
}

var _ Modifier = (*GradualMagnitudeModifier)(nil)
