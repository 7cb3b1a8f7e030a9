package sparse

import (
	"math"
	"testing"
)

func TestAnalyzerTag(t *testing.T) {
	a := NewAnalyzer("layer0_dense", "weight", nil)
	if a.Tag() != "layer0_dense.weight" {
		t.Errorf("Expected tag layer0_dense.weight, got %s", a.Tag())
	}
}

func TestParamSparsityCountsExactZeros(t *testing.T) {
	data := []float32{0, 1, 0, 2, 0, 3, 4, 0}
	a := NewAnalyzer("layer0", "weight", data)
	if got := a.ParamSparsity(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected sparsity 0.5, got %v", got)
	}

	// Near-zero is not zero.
	data[0] = 1e-30
	if got := a.ParamSparsity(); math.Abs(got-0.375) > 1e-9 {
		t.Errorf("Expected sparsity 0.375 after near-zero write, got %v", got)
	}
}

func TestParamSparsityNeverCached(t *testing.T) {
	data := []float32{1, 2, 3, 4}
	a := NewAnalyzer("layer0", "weight", data)
	if got := a.ParamSparsity(); got != 0 {
		t.Fatalf("Expected sparsity 0, got %v", got)
	}

	// External mutation (the optimizer) must show up on the next read.
	data[0] = 0
	data[1] = 0
	if got := a.ParamSparsity(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected sparsity 0.5 after mutation, got %v", got)
	}
}

func TestParamSparsityEmptyBuffer(t *testing.T) {
	a := NewAnalyzer("layer0", "weight", nil)
	if got := a.ParamSparsity(); got != 0 {
		t.Errorf("Expected sparsity 0 for empty buffer, got %v", got)
	}
}
