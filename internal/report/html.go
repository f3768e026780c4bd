// internal/report/html.go
package report

import (
	"html/template"
	"io"

	"github.com/karavela/qasweep/api/schemas"
)

// HTMLWriter renders a standalone HTML page for the run.
type HTMLWriter struct{}

func (h *HTMLWriter) Ext() string { return "html" }

type htmlData struct {
	Run     *schemas.SweepResult
	Summary schemas.InteractionSummary
}

func (h *HTMLWriter) Write(w io.Writer, run *schemas.SweepResult) error {
	return htmlTemplate.Execute(w, htmlData{Run: run, Summary: run.Summary()})
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"loadTime": loadTimeCell,
	"change":   changeCell,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>QA Sweep Report — {{.Run.Website}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 70rem; color: #1f2430; }
h1, h2, h3 { color: #102a43; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d9e2ec; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f0f4f8; }
.failed { color: #ab091e; font-weight: 600; }
.success { color: #0f7b41; }
.skipped { color: #627d98; }
.warn { background: #fff3cd; padding: 0.5rem 0.8rem; border-radius: 4px; margin: 0.3rem 0; }
code { background: #f0f4f8; padding: 0.1rem 0.3rem; border-radius: 3px; }
</style>
</head>
<body>
<h1>QA Sweep Report</h1>
<p>
<strong>Website:</strong> {{.Run.Website}}<br>
<strong>Run ID:</strong> <code>{{.Run.RunID}}</code><br>
<strong>Started:</strong> {{.Run.StartedAt.Format "2006-01-02 15:04:05 MST"}}<br>
<strong>Pages swept:</strong> {{len .Run.Pages}}
</p>

<h2>Interaction Summary</h2>
<table>
<tr><th>Total tested</th><th>Successful</th><th>Content changed</th><th>URL changed</th><th>Failed</th><th>Skipped</th></tr>
<tr>
<td>{{.Summary.TotalTested}}</td>
<td class="success">{{.Summary.Successful}}</td>
<td>{{.Summary.ContentChanged}}</td>
<td>{{.Summary.URLChanged}}</td>
<td class="failed">{{.Summary.Failed}}</td>
<td class="skipped">{{.Summary.Skipped}}</td>
</tr>
</table>

{{if .Summary.Issues}}
<h2>Issues</h2>
<table>
<tr><th>Element</th><th>Type</th><th>Issue</th><th>Load Time</th></tr>
{{range .Summary.Issues}}
<tr><td>{{.Element}}</td><td>{{.Type}}</td><td>{{.Issue}}</td><td>{{.LoadTime}}</td></tr>
{{end}}
</table>
{{end}}

<h2>Pages</h2>
{{range .Run.Pages}}
<h3>{{.URL}}</h3>
<p>Tested: {{.Tested}}, changed: {{.Changed}}, failed: {{.Failed}}{{if .SlowLoad}} — <strong class="failed">slow load ({{.NavLoadMs}}ms)</strong>{{end}}</p>
{{if .Results}}
<table>
<tr><th>Element</th><th>Type</th><th>Outcome</th><th>Change</th><th>Load Time</th></tr>
{{range .Results}}
<tr>
<td>{{.Descriptor.Label}}</td>
<td>{{.Descriptor.Role}}</td>
<td class="{{.Outcome}}">{{.Outcome}}</td>
<td>{{change .}}</td>
<td>{{loadTime .}}</td>
</tr>
{{end}}
</table>
{{end}}
{{end}}

{{if .Run.BrokenLinks}}
<h2>Broken Links</h2>
<ul>
{{range .Run.BrokenLinks}}<li>{{.}}</li>{{end}}
</ul>
{{end}}

{{if .Run.Warnings}}
<h2>Warnings</h2>
{{range .Run.Warnings}}<div class="warn">{{.}}</div>{{end}}
{{end}}
</body>
</html>
`))
