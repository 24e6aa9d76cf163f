package main

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/example/go-deconv/internal/config"
	"github.com/example/go-deconv/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var skipSelfTest bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the runtime, host CPU and configured sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfgLoaded {
				return errors.New("configuration not loaded")
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "platform: %s/%s, GOMAXPROCS=%d\n", runtime.GOOS, runtime.GOARCH, runtime.GOMAXPROCS(0))

			dcfg := doctorConfig(activeCfg)
			if skipSelfTest {
				dcfg.SelfTest = nil
			}

			result := doctor.Run(dcfg, out)
			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipSelfTest, "skip-self-test", false, "Skip the known-answer kernel check")

	return cmd
}

func doctorConfig(cfg config.Config) doctor.Config {
	return doctor.Config{
		GoVersion:   func() (string, error) { return runtime.Version(), nil },
		CPUFeatures: doctor.CPUFeatures,
		ConfigErr:   cfg.Validate(),
		Sweep:       cfg.Harness.Cases(),
		SelfTest:    doctor.KernelSelfTest,
	}
}
