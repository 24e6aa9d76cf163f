// Package doctor provides environment preflight checks for deconvcheck.
package doctor

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/go-deconv/internal/harness"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// minGoMinor is the oldest Go 1.x release the module supports.
const minGoMinor = 25

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// GoVersion returns the runtime version (e.g. "go1.25.1").
	GoVersion VersionFunc
	// CPUFeatures lists the SIMD features the host reports.
	CPUFeatures func() []string
	// ConfigErr is the result of validating the loaded configuration.
	ConfigErr error
	// Sweep is the case list validate would run.
	Sweep []harness.Case
	// SelfTest runs a known-answer kernel check. Nil skips it.
	SelfTest func() error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- Go runtime ------------------------------------------------------
	if cfg.GoVersion != nil {
		ver, err := cfg.GoVersion()
		if err != nil {
			res.fail(fmt.Sprintf("go version: %v", err))
			fmt.Fprintf(w, "%s go version: unavailable (%v)\n", FailMark, err)
		} else if goErr := checkGoVersion(ver); goErr != nil {
			res.fail(fmt.Sprintf("go version: %v", goErr))
			fmt.Fprintf(w, "%s go version %s: %v\n", FailMark, ver, goErr)
		} else {
			fmt.Fprintf(w, "%s go version: %s\n", PassMark, ver)
		}
	}

	// ---- CPU features (informational) ------------------------------------
	if cfg.CPUFeatures != nil {
		features := cfg.CPUFeatures()
		if len(features) == 0 {
			fmt.Fprintf(w, "%s cpu features: none detected (scalar kernels)\n", PassMark)
		} else {
			fmt.Fprintf(w, "%s cpu features: %s\n", PassMark, strings.Join(features, " "))
		}
	}

	// ---- configuration ---------------------------------------------------
	if cfg.ConfigErr != nil {
		res.fail(fmt.Sprintf("config: %v", cfg.ConfigErr))
		fmt.Fprintf(w, "%s config: %v\n", FailMark, cfg.ConfigErr)
	} else {
		fmt.Fprintf(w, "%s config: valid\n", PassMark)
	}

	// ---- sweep -----------------------------------------------------------
	var rejected, bad int
	for _, c := range cfg.Sweep {
		c = c.Normalize()
		if err := c.Validate(); err != nil {
			bad++
			res.fail(fmt.Sprintf("sweep case %s: %v", c.Name, err))
			fmt.Fprintf(w, "%s sweep case %s: %v\n", FailMark, c.Name, err)
		}
		if c.ExpectUnsupported {
			rejected++
		}
	}
	if bad == 0 {
		fmt.Fprintf(w, "%s sweep: %d cases (%d expected rejections)\n", PassMark, len(cfg.Sweep), rejected)
	}

	// ---- kernel self-test ------------------------------------------------
	if cfg.SelfTest != nil {
		if err := cfg.SelfTest(); err != nil {
			res.fail(fmt.Sprintf("kernel self-test: %v", err))
			fmt.Fprintf(w, "%s kernel self-test: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s kernel self-test: ok\n", PassMark)
		}
	}

	return res
}

// checkGoVersion returns an error if ver is older than go1.minGoMinor.
// ver is expected to be a string like "go1.25.1". Development toolchains
// report "devel ..." and always pass.
func checkGoVersion(ver string) error {
	if strings.HasPrefix(ver, "devel") {
		return nil
	}

	major, minor, err := parseMajorMinor(strings.TrimPrefix(ver, "go"))
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major != 1 {
		return fmt.Errorf("requires Go 1, got %d", major)
	}
	if minor < minGoMinor {
		return fmt.Errorf("requires Go >=1.%d, got 1.%d", minGoMinor, minor)
	}
	return nil
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	// Development builds report e.g. "1.26rc1"; keep the leading digits.
	minorStr := parts[1]
	if i := strings.IndexFunc(minorStr, func(r rune) bool { return r < '0' || r > '9' }); i > 0 {
		minorStr = minorStr[:i]
	}
	minor, err = strconv.Atoi(minorStr)
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
