package ops

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape reports a structural mismatch: channel counts, buffer
	// sizing, a malformed explicit output shape.
	ErrInvalidShape = errors.New("invalid shape")
	// ErrUnsupportedConfiguration reports a geometrically valid request that
	// lies outside what the selected kernel path computes exactly.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
)

// Status is the outcome of a kernel call.
type Status int

const (
	StatusOK Status = iota
	StatusInvalidShape
	StatusUnsupportedConfiguration
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusInvalidShape:
		return "InvalidShape"
	case StatusUnsupportedConfiguration:
		return "UnsupportedConfiguration"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// StatusOf maps a Compute error to its Status. Errors that are neither
// sentinel are reported as InvalidShape.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrUnsupportedConfiguration):
		return StatusUnsupportedConfiguration
	default:
		return StatusInvalidShape
	}
}

func invalidShapef(format string, args ...any) error {
	return fmt.Errorf("ops: %s: %w", fmt.Sprintf(format, args...), ErrInvalidShape)
}

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("ops: %s: %w", fmt.Sprintf(format, args...), ErrUnsupportedConfiguration)
}
