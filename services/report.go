package services

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"airbnb-pipeline/models"
)

// PrintReport writes a human-readable validation report: one line per check
// and the observed vs expected values of every failure.
func PrintReport(w io.Writer, r *models.ValidationReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🔎 DATA CHECK %s\033[0m\n", r.RunID)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "  current   : %s\n", r.Current)
	fmt.Fprintf(w, "  reference : %s\n", r.Reference)
	fmt.Fprintf(w, "  %s\n", thin)

	for _, c := range r.Results {
		if c.Passed {
			fmt.Fprintf(w, "  \033[1;32mPASS\033[0m  %-24s %s\n", c.Name, c.Observed)
			continue
		}
		fmt.Fprintf(w, "  \033[1;31mFAIL\033[0m  %-24s %s\n", c.Name, c.Reason)
		if c.Observed != "" || c.Expected != "" {
			fmt.Fprintf(w, "        observed: %s\n", truncate(c.Observed, 120))
			fmt.Fprintf(w, "        expected: %s\n", truncate(c.Expected, 120))
		}
	}

	fmt.Fprintf(w, "  %s\n", thin)
	failed := len(r.Failed())
	if r.Passed {
		fmt.Fprintf(w, "  Verdict: \033[1;32mPASSED\033[0m (%d checks, %v)\n", len(r.Results), r.Duration)
	} else {
		fmt.Fprintf(w, "  Verdict: \033[1;31mFAILED\033[0m (%d of %d checks failed, %v)\n", failed, len(r.Results), r.Duration)
	}
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

// WriteReportJSON writes the report as indented JSON.
func WriteReportJSON(w io.Writer, r *models.ValidationReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}
