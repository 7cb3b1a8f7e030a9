package sparse

import (
	"errors"
	"testing"
)

func newTestModifier(t *testing.T, start, end float64) *GradualMagnitudeModifier {
	t.Helper()
	cfg := DefaultGradualConfig()
	cfg.FinalSparsity = 0.5
	cfg.StartEpoch = start
	cfg.EndEpoch = end
	mod, err := NewGradualMagnitudeModifier(cfg)
	if err != nil {
		t.Fatalf("Construction failed: %v", err)
	}
	return mod
}

func TestNewManagerSortsByStartEpoch(t *testing.T) {
	late := newTestModifier(t, 5, 20)
	early := newTestModifier(t, 0, 10)
	mid := newTestModifier(t, 2, 12)

	mgr, err := NewManager(late, early, mid)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	starts := []float64{0, 2, 5}
	for i, mod := range mgr.Modifiers() {
		if mod.StartEpoch() != starts[i] {
			t.Errorf("Position %d: expected start epoch %v, got %v", i, starts[i], mod.StartEpoch())
		}
	}
}

func TestNewManagerRejectsNilModifier(t *testing.T) {
	_, err := NewManager(newTestModifier(t, 0, 10), nil)
	if !errors.Is(err, ErrInvalidModifier) {
		t.Errorf("Expected ErrInvalidModifier, got %v", err)
	}
}

func TestManagerRunIDsUnique(t *testing.T) {
	a, _ := NewManager()
	b, _ := NewManager()
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("Expected distinct non-empty run IDs, got %q and %q", a.RunID(), b.RunID())
	}
}

func TestManagerLifecycleDelegation(t *testing.T) {
	model, weights := denseModel(100)
	mod := newTestModifier(t, 0, 10)
	mgr, _ := NewManager(mod)

	logger := &recordLogger{name: "console"}
	if err := mgr.Initialize(model, logger); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := mgr.Update(5, 0); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got := mod.Masks()[0].MaskedCount(); got != 25 {
		t.Errorf("Expected 25 masked at epoch 5, got %d", got)
	}

	for i := range weights {
		weights[i] += 1
	}
	mgr.OptimizerPostStep()
	zeros := 0
	for _, w := range weights {
		if w == 0 {
			zeros++
		}
	}
	if zeros != 25 {
		t.Errorf("Expected 25 zeros restored after optimizer step, got %d", zeros)
	}

	mgr.LogUpdate(5, 0)
	if len(logger.events) != 1 {
		t.Errorf("Expected 1 log event, got %d", len(logger.events))
	}

	mgr.Finalize()
	if len(mod.Masks()) != 0 {
		t.Error("Expected Finalize to release targets")
	}
}

func TestManagerUpdateHonorsCadence(t *testing.T) {
	model, _ := denseModel(100)
	cfg := DefaultGradualConfig()
	cfg.FinalSparsity = 0.8
	cfg.EndEpoch = 10
	cfg.UpdateFrequency = 1.0
	mod, err := NewGradualMagnitudeModifier(cfg)
	if err != nil {
		t.Fatalf("Construction failed: %v", err)
	}
	mgr, _ := NewManager(mod)
	if err := mgr.Initialize(model); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	mgr.Update(0, 100) // start edge
	applied0, _ := mod.AppliedSparsity()

	mgr.Update(0.5, 100) // inside the cadence window: skipped
	applied1, _ := mod.AppliedSparsity()
	if applied1 != applied0 {
		t.Errorf("Expected skipped update to leave applied sparsity at %v, got %v", applied0, applied1)
	}

	mgr.Update(1.0, 100) // one full epoch elapsed
	applied2, _ := mod.AppliedSparsity()
	if applied2 == applied0 {
		t.Error("Expected due update to advance applied sparsity")
	}
}

func TestManagerSummary(t *testing.T) {
	model, _ := denseModel(100)
	a := newTestModifier(t, 0, 10)
	b := newTestModifier(t, 3, 12)
	mgr, _ := NewManager(b, a)
	if err := mgr.Initialize(model); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	mgr.Update(5, 0)

	summary := mgr.Summary()
	if summary.RunID != mgr.RunID() {
		t.Errorf("Expected summary run ID %q, got %q", mgr.RunID(), summary.RunID)
	}
	if len(summary.Modifiers) != 2 {
		t.Fatalf("Expected 2 modifier summaries, got %d", len(summary.Modifiers))
	}
	if summary.Modifiers[0].StartEpoch != 0 || summary.Modifiers[1].StartEpoch != 3 {
		t.Errorf("Expected summaries in delegation order, got %+v", summary.Modifiers)
	}
	if summary.Modifiers[0].Name != "GradualMagnitudeModifier" {
		t.Errorf("Unexpected modifier name %q", summary.Modifiers[0].Name)
	}
	if summary.Modifiers[0].AppliedSparsity != 0.25 {
		t.Errorf("Expected applied sparsity 0.25 in summary, got %v", summary.Modifiers[0].AppliedSparsity)
	}
}
