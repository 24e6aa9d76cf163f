package ops

import (
	"fmt"
	"strings"
)

// Padding selects how implicit padding is derived.
type Padding int

const (
	PaddingValid Padding = iota
	PaddingSame
	PaddingFull
)

func (p Padding) String() string {
	switch p {
	case PaddingValid:
		return "VALID"
	case PaddingSame:
		return "SAME"
	case PaddingFull:
		return "FULL"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// ParsePadding accepts VALID, SAME or FULL in any case.
func ParsePadding(s string) (Padding, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VALID":
		return PaddingValid, nil
	case "SAME":
		return PaddingSame, nil
	case "FULL":
		return PaddingFull, nil
	default:
		return PaddingValid, fmt.Errorf("ops: unknown padding %q (want VALID|SAME|FULL)", s)
	}
}

// ExplicitPadding is (top, bottom, left, right).
type ExplicitPadding [4]int

// Param is the immutable geometry captured by a kernel at construction.
type Param struct {
	Strides   [2]int
	Dilations [2]int
	Padding   Padding
	// Explicit overrides the padding derived from Padding when set.
	Explicit *ExplicitPadding
	Groups   int
}

// DefaultParam is stride 1, dilation 1, VALID, one group.
func DefaultParam() Param {
	return Param{
		Strides:   [2]int{1, 1},
		Dilations: [2]int{1, 1},
		Padding:   PaddingValid,
		Groups:    1,
	}
}

func (p Param) Validate() error {
	for i, s := range p.Strides {
		if s <= 0 {
			return invalidShapef("stride[%d] must be > 0, got %d", i, s)
		}
	}

	for i, d := range p.Dilations {
		if d <= 0 {
			return invalidShapef("dilation[%d] must be > 0, got %d", i, d)
		}
	}

	if p.Padding < PaddingValid || p.Padding > PaddingFull {
		return invalidShapef("unknown padding mode %d", int(p.Padding))
	}

	if p.Explicit != nil {
		for i, v := range p.Explicit {
			if v < 0 {
				return invalidShapef("explicit padding[%d] must be >= 0, got %d", i, v)
			}
		}
	}

	if p.Groups <= 0 {
		return invalidShapef("group count must be > 0, got %d", p.Groups)
	}

	return nil
}

func (p Param) clone() Param {
	if p.Explicit != nil {
		e := *p.Explicit
		p.Explicit = &e
	}

	return p
}
