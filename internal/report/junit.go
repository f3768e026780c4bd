// internal/report/junit.go
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"

	"github.com/karavela/qasweep/api/schemas"
)

// JUnitWriter renders the run as JUnit XML so CI systems can ingest sweep
// outcomes as test results: one suite per page, one case per element.
type JUnitWriter struct{}

func (j *JUnitWriter) Ext() string { return "xml" }

func (j *JUnitWriter) Write(w io.Writer, run *schemas.SweepResult) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", "qasweep: "+run.Website)
	suites.CreateAttr("time", fmt.Sprintf("%.3f", run.Duration.Seconds()))

	for i := range run.Pages {
		page := &run.Pages[i]
		suite := suites.CreateElement("testsuite")
		suite.CreateAttr("name", page.URL)
		suite.CreateAttr("tests", fmt.Sprintf("%d", len(page.Results)))
		suite.CreateAttr("failures", fmt.Sprintf("%d", page.Failed()))
		suite.CreateAttr("skipped", fmt.Sprintf("%d", skippedCount(page)))
		suite.CreateAttr("time", fmt.Sprintf("%.3f", page.Duration.Seconds()))
		suite.CreateAttr("timestamp", page.StartedAt.Format(time.RFC3339))

		for _, r := range page.Results {
			tc := suite.CreateElement("testcase")
			tc.CreateAttr("name", fmt.Sprintf("%s [%s]", r.Descriptor.Label, r.Descriptor.Role))
			tc.CreateAttr("classname", page.URL)
			if r.LoadTimeMs != nil {
				tc.CreateAttr("time", fmt.Sprintf("%.3f", float64(*r.LoadTimeMs)/1000))
			}

			switch r.Outcome {
			case schemas.OutcomeFailed:
				failure := tc.CreateElement("failure")
				failure.CreateAttr("message", r.Error)
				failure.CreateAttr("type", "InteractionError")
			case schemas.OutcomeSkipped:
				skipped := tc.CreateElement("skipped")
				if r.Error != "" {
					skipped.CreateAttr("message", r.Error)
				}
			default:
				if !r.Change.Changed {
					// Surfaced but non-fatal: the interaction succeeded with
					// no observable effect.
					out := tc.CreateElement("system-out")
					out.SetText("no visible change after interaction")
				}
			}
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func skippedCount(p *schemas.PageResult) int {
	n := 0
	for _, r := range p.Results {
		if r.Outcome == schemas.OutcomeSkipped {
			n++
		}
	}
	return n
}
