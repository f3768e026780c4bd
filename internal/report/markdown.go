// internal/report/markdown.go
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/karavela/qasweep/api/schemas"
)

// MarkdownWriter renders the human-readable run summary.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Ext() string { return "md" }

func (m *MarkdownWriter) Write(w io.Writer, run *schemas.SweepResult) error {
	var b strings.Builder
	summary := run.Summary()

	fmt.Fprintf(&b, "# QA Sweep Report\n\n")
	fmt.Fprintf(&b, "- **Website:** %s\n", run.Website)
	fmt.Fprintf(&b, "- **Run ID:** `%s`\n", run.RunID)
	fmt.Fprintf(&b, "- **Started:** %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Duration:** %s\n", formatDuration(run.Duration))
	fmt.Fprintf(&b, "- **Pages swept:** %d\n\n", len(run.Pages))

	b.WriteString("## Interaction Summary\n\n")
	b.WriteString("| Metric | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total tested | %d |\n", summary.TotalTested)
	fmt.Fprintf(&b, "| Successful | %d |\n", summary.Successful)
	fmt.Fprintf(&b, "| Content changed | %d |\n", summary.ContentChanged)
	fmt.Fprintf(&b, "| URL changed | %d |\n", summary.URLChanged)
	fmt.Fprintf(&b, "| Failed | %d |\n", summary.Failed)
	fmt.Fprintf(&b, "| Skipped | %d |\n\n", summary.Skipped)

	if len(summary.Issues) > 0 {
		b.WriteString("## Issues\n\n")
		b.WriteString("| Element | Type | Issue | Load Time |\n|---|---|---|---|\n")
		for _, issue := range summary.Issues {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				mdEscape(issue.Element), issue.Type, mdEscape(issue.Issue), issue.LoadTime)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Pages\n\n")
	for i := range run.Pages {
		page := &run.Pages[i]
		fmt.Fprintf(&b, "### %s\n\n", page.URL)
		fmt.Fprintf(&b, "- Tested: %d, changed: %d, failed: %d\n",
			page.Tested(), page.Changed(), page.Failed())
		if page.NavLoadMs > 0 {
			slow := ""
			if page.SlowLoad {
				slow = " ⚠️ slow"
			}
			fmt.Fprintf(&b, "- Page load: %dms%s\n", page.NavLoadMs, slow)
		}
		b.WriteString("\n")
		if len(page.Results) > 0 {
			b.WriteString("| Element | Type | Outcome | Change | Load Time |\n|---|---|---|---|---|\n")
			for _, r := range page.Results {
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
					mdEscape(r.Descriptor.Label), r.Descriptor.Role, r.Outcome,
					changeCell(r), loadTimeCell(r))
			}
			b.WriteString("\n")
		}
	}

	if len(run.BrokenLinks) > 0 {
		b.WriteString("## Broken Links\n\n")
		for _, link := range run.BrokenLinks {
			fmt.Fprintf(&b, "- %s\n", mdEscape(link))
		}
		b.WriteString("\n")
	}

	if len(run.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, warning := range run.Warnings {
			fmt.Fprintf(&b, "- %s\n", mdEscape(warning))
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func changeCell(r schemas.ElementTestResult) string {
	if !r.Change.Changed {
		return "none"
	}
	switch r.Change.Kind {
	case schemas.ChangeItemCount:
		return fmt.Sprintf("item count %+d (%s)", r.Change.DeltaCount, r.Change.Container)
	case schemas.ChangeURL:
		return "navigation"
	default:
		return string(r.Change.Kind)
	}
}

func loadTimeCell(r schemas.ElementTestResult) string {
	if r.LoadTimeMs == nil {
		return "N/A"
	}
	cell := fmt.Sprintf("%dms", *r.LoadTimeMs)
	if r.NoSettle {
		cell += " (no settle)"
	}
	return cell
}

func mdEscape(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}
