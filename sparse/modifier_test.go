package sparse

import (
	"errors"
	"testing"
)

func TestEpochStep(t *testing.T) {
	tests := []struct {
		epoch         float64
		stepsPerEpoch int
		expected      int
	}{
		{0, 0, 0},
		{2.4, 0, 2},
		{2.5, 0, 3},
		{10.01, 0, 10},
		{0.5, 100, 50},
		{2.505, 100, 251},
		{3, 25, 75},
		{7.2, -1, 7},
	}
	for _, tt := range tests {
		if got := EpochStep(tt.epoch, tt.stepsPerEpoch); got != tt.expected {
			t.Errorf("EpochStep(%v, %d): expected %d, got %d",
				tt.epoch, tt.stepsPerEpoch, tt.expected, got)
		}
	}
}

func TestScheduleWindowValidate(t *testing.T) {
	if err := (ScheduleWindow{StartEpoch: 0, EndEpoch: 10}).Validate(); err != nil {
		t.Errorf("Expected valid window, got %v", err)
	}
	if err := (ScheduleWindow{StartEpoch: 3, EndEpoch: 3}).Validate(); err != nil {
		t.Errorf("Expected zero-width window to be valid, got %v", err)
	}

	err := (ScheduleWindow{StartEpoch: -1, EndEpoch: 10}).Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for negative start, got %v", err)
	}
	err = (ScheduleWindow{StartEpoch: 5, EndEpoch: 4}).Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for end < start, got %v", err)
	}
}

func TestScheduleEdgesFireOnce(t *testing.T) {
	s := schedule{window: ScheduleWindow{StartEpoch: 2, EndEpoch: 5}}

	if s.startEdge(1.0, 0) {
		t.Error("Expected no start edge before start epoch")
	}
	if !s.startEdge(2.0, 0) {
		t.Error("Expected start edge at start epoch")
	}
	if s.startEdge(3.0, 0) {
		t.Error("Expected start edge to fire only once")
	}

	if s.endEdge(4.0, 0) {
		t.Error("Expected no end edge before end epoch")
	}
	if !s.endEdge(5.0, 0) {
		t.Error("Expected end edge at end epoch")
	}
	if s.endEdge(6.0, 0) {
		t.Error("Expected end edge to fire only once")
	}
}

func TestScheduleEdgeQuantization(t *testing.T) {
	// start_epoch 2.5 with 10 steps per epoch quantizes to step 25; epoch
	// 2.46 is step 25 too (rounded) and must trip the edge.
	s := schedule{window: ScheduleWindow{StartEpoch: 2.5, EndEpoch: 8}}
	if s.startEdge(2.44, 10) {
		t.Error("Expected no start edge at step 24")
	}
	if !s.startEdge(2.46, 10) {
		t.Error("Expected start edge at quantized step 25")
	}
}

func TestScheduleUpdateReadyFrequency(t *testing.T) {
	s := schedule{window: ScheduleWindow{StartEpoch: 0, EndEpoch: 10, UpdateFrequency: 1.0}}

	if !s.updateReady(0, 100) {
		t.Fatal("Expected ready at the start edge")
	}
	s.startEdge(0, 100)
	s.markUpdated(0)

	if s.updateReady(0.5, 100) {
		t.Error("Expected not ready half an epoch after an update")
	}
	if !s.updateReady(1.0, 100) {
		t.Error("Expected ready one full epoch after an update")
	}
	s.markUpdated(1.0)
	if s.updateReady(1.9, 100) {
		t.Error("Expected not ready 0.9 epochs after an update")
	}

	// The end edge overrides the cadence.
	if !s.updateReady(10, 100) {
		t.Error("Expected ready at the end edge regardless of cadence")
	}
	s.endEdge(10, 100)
	if s.updateReady(11, 100) {
		t.Error("Expected not ready after the schedule ended")
	}
}

func TestScheduleUpdateReadyEveryCall(t *testing.T) {
	s := schedule{window: ScheduleWindow{StartEpoch: 0, EndEpoch: 10, UpdateFrequency: 0}}
	s.startEdge(0, 100)
	s.markUpdated(0)
	if !s.updateReady(0.01, 100) {
		t.Error("Expected zero update frequency to be ready on every call")
	}
}

func TestModifierStateString(t *testing.T) {
	if StateUninitialized.String() != "uninitialized" ||
		StateActive.String() != "active" ||
		StateDisabled.String() != "disabled" {
		t.Error("Unexpected state names")
	}
	if ModifierState(99).String() != "unknown" {
		t.Error("Expected unknown for out-of-range state")
	}
}
