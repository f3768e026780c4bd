// internal/report/report_test.go
package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karavela/qasweep/api/schemas"
)

func sampleRun() *schemas.SweepResult {
	ms := func(v int64) *int64 { return &v }
	return &schemas.SweepResult{
		RunID:     "run-123",
		Website:   "https://app.test",
		StartedAt: time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
		Duration:  90 * time.Second,
		Pages: []schemas.PageResult{
			{
				URL:       "https://app.test/orders",
				StartedAt: time.Date(2026, 8, 25, 10, 30, 1, 0, time.UTC),
				Duration:  40 * time.Second,
				NavLoadMs: 11200,
				SlowLoad:  true,
				Results: []schemas.ElementTestResult{
					{
						Descriptor: schemas.ElementDescriptor{Tag: "button", Role: schemas.RoleButton, Label: "Filter Orders"},
						Outcome:    schemas.OutcomeSuccess,
						Change: schemas.ChangeResult{
							Changed: true, Kind: schemas.ChangeItemCount,
							Container: "table#orders", DeltaCount: -2,
						},
						LoadTimeMs: ms(340),
					},
					{
						Descriptor: schemas.ElementDescriptor{Tag: "a", Role: schemas.RoleLink, Label: "Broken Thing"},
						Outcome:    schemas.OutcomeFailed,
						Change:     schemas.ChangeResult{Kind: schemas.ChangeNone},
						Error:      "click failed: node detached",
					},
					{
						Descriptor: schemas.ElementDescriptor{Tag: "button", Role: schemas.RoleIconButton, Label: "Save Button"},
						Outcome:    schemas.OutcomeSuccess,
						Change:     schemas.ChangeResult{Kind: schemas.ChangeNone},
						LoadTimeMs: ms(120),
					},
					{
						Descriptor: schemas.ElementDescriptor{Tag: "a", Role: schemas.RoleLink, Label: "Never Reached"},
						Outcome:    schemas.OutcomeSkipped,
						Change:     schemas.ChangeResult{Kind: schemas.ChangeNone},
						Error:      "page budget exhausted",
					},
				},
			},
		},
		BrokenLinks: []string{"https://app.test/orders -> https://app.test/gone: HTTP 404"},
		Warnings:    []string{"https://app.test/orders: slow page load (11.2s)"},
	}
}

func TestMarkdownReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownWriter{}).Write(&buf, sampleRun()))
	out := buf.String()

	assert.Contains(t, out, "# QA Sweep Report")
	assert.Contains(t, out, "| Total tested | 3 |")
	assert.Contains(t, out, "| Failed | 1 |")
	assert.Contains(t, out, "| Skipped | 1 |")
	assert.Contains(t, out, "Filter Orders")
	assert.Contains(t, out, "item count -2 (table#orders)")
	assert.Contains(t, out, "no visible change after interaction")
	assert.Contains(t, out, "HTTP 404")
	assert.Contains(t, out, "slow page load")
}

func TestHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&HTMLWriter{}).Write(&buf, sampleRun()))
	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "https://app.test")
	assert.Contains(t, out, "Filter Orders")
	assert.Contains(t, out, "click failed: node detached")
}

func TestJSONReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, sampleRun()))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	summary, ok := decoded["summary"].(map[string]interface{})
	require.True(t, ok, "summary should be attached")
	assert.EqualValues(t, 3, summary["total_tested"])
	assert.EqualValues(t, 1, summary["failed"])
}

func TestJUnitReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JUnitWriter{}).Write(&buf, sampleRun()))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	suites := doc.FindElements("//testsuite")
	require.Len(t, suites, 1)
	assert.Equal(t, "4", suites[0].SelectAttrValue("tests", ""))
	assert.Equal(t, "1", suites[0].SelectAttrValue("failures", ""))
	assert.Equal(t, "1", suites[0].SelectAttrValue("skipped", ""))

	failures := doc.FindElements("//testcase/failure")
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].SelectAttrValue("message", ""), "node detached")
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteFiles(dir, sampleRun(), []string{"markdown", "json"})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.True(t, strings.HasSuffix(paths[0], ".md"))
	assert.True(t, strings.HasSuffix(paths[1], ".json"))
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
		assert.Equal(t, dir, filepath.Dir(p))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New("pdf")
	assert.Error(t, err)
}
