package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/launchdarkly/sandbox-contract-tests/framework"

	"github.com/olekukonko/tablewriter"
)

// PrintResults writes a summary of the run: a table of failed tests, if any, then the
// pass/fail/skip counts.
func PrintResults(out io.Writer, results framework.Results) {
	passed, failed, skipped := results.Counts()

	if len(results.Failures) > 0 {
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Failed test", "Errors"})
		table.SetAutoWrapText(false)
		table.SetRowLine(true)
		for _, f := range results.Failures {
			var messages []string
			for _, err := range f.Errors {
				messages = append(messages, firstLine(err.Error()))
			}
			table.Append([]string{f.TestID.String(), strings.Join(messages, "\n")})
		}
		table.Render()
		fmt.Fprintln(out)
	}

	summary := fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
	if results.OK() {
		passedColor.Fprintf(out, "All tests passed: %s\n", summary)
	} else {
		failedColor.Fprintf(out, "Some tests failed: %s\n", summary)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
