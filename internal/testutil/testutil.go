// Package testutil provides shared skip helpers and tensor assertions for
// kernel and harness tests.
//
// Typical usage:
//
//	func TestLargeSweep(t *testing.T) {
//	    testutil.RequireFullSweep(t)
//	    ...
//	}
package testutil

import (
	"os"
	"testing"
)

// FullSweepEnv forces long-running sweeps even under -short.
const FullSweepEnv = "DECONVCHECK_FULL_SWEEP"

// RequireFullSweep skips the test under -short unless FullSweepEnv is set to
// a non-empty value.
func RequireFullSweep(tb testing.TB) {
	tb.Helper()

	if !testing.Short() || os.Getenv(FullSweepEnv) != "" {
		return
	}

	tb.Skipf("long sweep skipped in -short mode; set %s=1 to run it", FullSweepEnv)
}
