package processor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shakil/hookpipe/internal/verify"
)

// StatusLabel is the label applied to the work item for a verification
// outcome, e.g. "verification-passed".
func StatusLabel(status verify.Status) string {
	return "verification-" + string(status)
}

func statusHeading(status verify.Status) string {
	switch status {
	case verify.StatusPassed:
		return "✅ Verification passed"
	case verify.StatusFailed:
		return "❌ Verification failed"
	default:
		return "⚠️ Verification partially passed"
	}
}

// FormatResult renders the markdown comment body posted back to the work
// item.
func FormatResult(projectName string, workItemNumber int, result *verify.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s\n\n", statusHeading(result.Status))
	fmt.Fprintf(&b, "**Project:** %s\n", projectName)
	fmt.Fprintf(&b, "**Work item:** #%d\n", workItemNumber)

	if result.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", result.Summary)
	}

	if len(result.Details) > 0 {
		keys := make([]string, 0, len(result.Details))
		for k := range result.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n| Check | Result |\n|---|---|\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %s |\n", k, result.Details[k])
		}
	}

	return b.String()
}
