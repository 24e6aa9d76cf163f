package harness

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Report collects the results of a sweep in case order.
type Report struct {
	Results []Result
}

func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}

	return n
}

func (r Report) Failed() int { return len(r.Results) - r.Passed() }

// OK reports whether every case passed.
func (r Report) OK() bool { return r.Failed() == 0 }

// FormatTable writes one line per case to w.
func (r Report) FormatTable(w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-4s  %-6s  %-26s  %10s  %10s  %8s  %8s  %s\n",
		"#", "Result", "Status", "FloatDiff", "Int8Diff", "Cosine", "MS", "Case")
	fmt.Fprintln(sb, strings.Repeat("-", 100))

	for _, res := range r.Results {
		verdict := "PASS"
		if !res.Passed() {
			verdict = "FAIL"
		}

		fmt.Fprintf(sb, "%-4d  %-6s  %-26s  %10.3g  %10.3g  %8.5f  %8d  %s\n",
			res.Index+1,
			verdict,
			res.Status,
			res.FloatMaxDiff,
			res.QuantMaxDiff,
			res.Cosine,
			res.Duration.Milliseconds(),
			res.Case.Name,
		)

		if res.Err != nil {
			fmt.Fprintf(sb, "      %s\n", res.Err)
		}
	}

	fmt.Fprintln(sb, strings.Repeat("-", 100))
	fmt.Fprintf(sb, "%d passed, %d failed\n", r.Passed(), r.Failed())

	fmt.Fprint(w, sb.String())
}

type jsonReport struct {
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Results []jsonResult `json:"results"`
}

type jsonResult struct {
	Index        int     `json:"index"`
	Case         string  `json:"case"`
	Passed       bool    `json:"passed"`
	Status       string  `json:"status"`
	FloatMaxDiff float64 `json:"float_max_abs_diff"`
	QuantMaxDiff float64 `json:"max_abs_diff"`
	Cosine       float64 `json:"cosine"`
	DurationMS   int64   `json:"duration_ms"`
	Error        string  `json:"error,omitempty"`
}

// FormatJSON writes the report as indented JSON to w.
func (r Report) FormatJSON(w io.Writer) error {
	jr := jsonReport{
		Passed:  r.Passed(),
		Failed:  r.Failed(),
		Results: make([]jsonResult, len(r.Results)),
	}

	for i, res := range r.Results {
		jr.Results[i] = jsonResult{
			Index:        res.Index,
			Case:         res.Case.Name,
			Passed:       res.Passed(),
			Status:       res.Status.String(),
			FloatMaxDiff: res.FloatMaxDiff,
			QuantMaxDiff: res.QuantMaxDiff,
			Cosine:       res.Cosine,
			DurationMS:   res.Duration.Milliseconds(),
		}

		if res.Err != nil {
			jr.Results[i].Error = res.Err.Error()
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(jr)
}
