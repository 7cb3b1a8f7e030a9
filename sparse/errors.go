package sparse

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks modifier construction failures (bad schedule
	// bounds, sparsity outside [0,1], unknown curve). Never recovered.
	ErrInvalidConfig = errors.New("invalid modifier config")

	// ErrLayerNotFound marks an explicitly named layer that does not exist
	// in the model. Raised during Initialize.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrMissingParam marks a named parameter absent from a layer while
	// strict mode is on and the layer list was explicit.
	ErrMissingParam = errors.New("param not found in layer")

	// ErrUnsupportedCurve marks an interpolation curve outside the
	// recognized set. Construction validation makes this unreachable at
	// runtime; Interpolate still checks.
	ErrUnsupportedCurve = errors.New("unsupported interpolation curve")

	// ErrInvalidModifier marks a misbehaving modifier handed to a Manager.
	ErrInvalidModifier = errors.New("invalid modifier")
)

// configErrorf wraps ErrInvalidConfig with a message naming the offending
// modifier and value.
func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
