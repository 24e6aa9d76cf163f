package ops

import "fmt"

// Tolerance defines acceptable numeric drift versus a float reference.
type Tolerance struct {
	Abs float64
	Rel float64
}

// KernelTolerances holds the agreement targets per kernel and numeric path.
// Float entries compare against a float64 reference; the int8 entries
// allow roughly one output quantization step.
var KernelTolerances = map[string]Tolerance{
	"depthwise_conv2d/float32":   {Abs: 1e-5, Rel: 1e-5},
	"depthwise_deconv2d/float32": {Abs: 1e-5, Rel: 1e-5},
	"group_deconv2d/float32":     {Abs: 1e-5, Rel: 1e-5},
	"depthwise_conv2d/int8":      {Abs: 0.1},
	"depthwise_deconv2d/int8":    {Abs: 0.1},
	"group_deconv2d/int8":        {Abs: 0.1},
}

// KernelTolerance looks up the tolerance for kind on the float (narrow=false)
// or int8 path.
func KernelTolerance(kind Kind, narrow bool) (Tolerance, error) {
	path := "float32"
	if narrow {
		path = "int8"
	}

	name := kind.String() + "/" + path

	t, ok := KernelTolerances[name]
	if !ok {
		return Tolerance{}, fmt.Errorf("ops: no tolerance configured for kernel %q", name)
	}

	return t, nil
}
