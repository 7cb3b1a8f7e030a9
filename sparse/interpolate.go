package sparse

import "fmt"

// InterFunc selects the interpolation curve used to walk sparsity from its
// initial to its final value across a schedule window.
type InterFunc string

const (
	// InterLinear moves at a constant rate.
	InterLinear InterFunc = "linear"
	// InterCubic starts slow and accelerates: aggressive late pruning.
	InterCubic InterFunc = "cubic"
	// InterInverseCubic starts fast and decelerates: aggressive early pruning.
	InterInverseCubic InterFunc = "inverse_cubic"
)

// InterFuncs lists the recognized curves.
var InterFuncs = []InterFunc{InterLinear, InterCubic, InterInverseCubic}

// Valid reports whether f is one of the recognized curves.
func (f InterFunc) Valid() bool {
	switch f {
	case InterLinear, InterCubic, InterInverseCubic:
		return true
	default:
		return false
	}
}

// Interpolate maps x in [x0, x1] onto [y0, y1] along the given curve.
// Values outside the window clamp to the endpoints, never extrapolate.
// Deterministic for identical inputs.
func Interpolate(x, x0, x1, y0, y1 float64, curve InterFunc) (float64, error) {
	if !curve.Valid() {
		return 0, fmt.Errorf("%w: %q (available: %v)", ErrUnsupportedCurve, curve, InterFuncs)
	}

	// Clamp before any curve math so a negative or >1 progress value can
	// never reach the cubic terms.
	if x <= x0 {
		return y0, nil
	}
	if x >= x1 {
		return y1, nil
	}

	t := 1.0
	if x1 > x0 {
		t = (x - x0) / (x1 - x0)
	}

	switch curve {
	case InterCubic:
		t = t * t * t
	case InterInverseCubic:
		u := 1.0 - t
		t = 1.0 - u*u*u
	}

	return y0 + t*(y1-y0), nil
}
