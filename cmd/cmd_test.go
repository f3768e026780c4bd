package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karavela/qasweep/api/schemas"
	"github.com/karavela/qasweep/internal/config"
)

func TestSweepOptionsTranslation(t *testing.T) {
	cfg := config.SweepConfig{
		ElementTimeout: 7 * time.Second,
		PageBudget:     2 * time.Minute,
		MaxElements:    50,
		Include:        []string{"button"},
		Exclude:        []string{".danger"},
		PacePerSecond:  2.5,
	}

	opts := sweepOptions(cfg)
	assert.Equal(t, 7*time.Second, opts.ElementTimeout)
	assert.Equal(t, 2*time.Minute, opts.PageBudget)
	assert.Equal(t, 50, opts.MaxElements)
	assert.Equal(t, []string{"button"}, opts.Filter.Include)
	assert.Equal(t, []string{".danger"}, opts.Filter.Exclude)
	require.NotNil(t, opts.Pace)
	assert.InDelta(t, 2.5, float64(opts.Pace.Limit()), 0.001)
}

func TestSweepOptionsNoPaceByDefault(t *testing.T) {
	opts := sweepOptions(config.SweepConfig{ElementTimeout: time.Second, PageBudget: time.Minute})
	assert.Nil(t, opts.Pace)
}

func TestPrintRunSummary(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	run := &schemas.SweepResult{
		RunID:   "run-42",
		Website: "https://app.test",
		Pages: []schemas.PageResult{
			{
				URL: "https://app.test",
				Results: []schemas.ElementTestResult{
					{Outcome: schemas.OutcomeSuccess, Change: schemas.ChangeResult{Changed: true, Kind: schemas.ChangeText}},
					{Outcome: schemas.OutcomeFailed, Error: "boom"},
				},
			},
		},
		BrokenLinks: []string{"https://app.test -> https://app.test/gone: HTTP 404"},
	}

	printRunSummary(cmd, run, []string{"qa-reports/qasweep-20260825-103000.md"})
	out := buf.String()

	assert.Contains(t, out, "Run ID: run-42")
	assert.Contains(t, out, "Tested: 2")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Broken links: 1")
	assert.Contains(t, out, "qasweep-20260825-103000.md")
}

func TestCommandTree(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["sweep"])
	assert.True(t, names["flow"])
	assert.True(t, names["history"])
	assert.True(t, names["report"])

	var flowCmd *cobra.Command
	for _, c := range rootCmd.Commands() {
		if c.Name() == "flow" {
			flowCmd = c
		}
	}
	require.NotNil(t, flowCmd)

	sub := make(map[string]bool)
	for _, c := range flowCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["run"])
	assert.True(t, sub["list"])
	assert.True(t, sub["create"])
	assert.True(t, sub["copy"])
}
