package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-deconv/internal/harness"
)

func newValidateCmd() *cobra.Command {
	var (
		format string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the float and int8 validation sweep",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if err := checkFormat(format); err != nil {
				return err
			}

			cases := filterCases(cfg.Harness.Cases(), filter)
			if len(cases) == 0 {
				return fmt.Errorf("no sweep case matches %q", filter)
			}

			runner := harness.NewRunner(cfg.Harness.Options(), slog.Default())

			report, err := runner.Run(cmd.Context(), cases)
			if err != nil {
				return err
			}

			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().StringVar(&filter, "filter", "", "Only run cases whose name contains this substring")

	return cmd
}

func filterCases(cases []harness.Case, substr string) []harness.Case {
	if substr == "" {
		return cases
	}

	out := make([]harness.Case, 0, len(cases))
	for _, c := range cases {
		if strings.Contains(c.Name, substr) {
			out = append(out, c)
		}
	}

	return out
}

func writeReport(w io.Writer, report harness.Report, format string) error {
	switch format {
	case "json":
		if err := report.FormatJSON(w); err != nil {
			return err
		}
	default:
		report.FormatTable(w)
	}

	if !report.OK() {
		return fmt.Errorf("%d of %d cases failed", report.Failed(), len(report.Results))
	}

	return nil
}
