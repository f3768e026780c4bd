// api/schemas/results_test.go
package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int64) *int64 { return &v }

func TestSummaryCountsAcrossPages(t *testing.T) {
	run := &SweepResult{
		Pages: []PageResult{
			{
				URL: "https://app.test/a",
				Results: []ElementTestResult{
					{Outcome: OutcomeSuccess, Change: ChangeResult{Changed: true, Kind: ChangeText}, LoadTimeMs: intPtr(100)},
					{Outcome: OutcomeSuccess, Change: ChangeResult{Changed: true, Kind: ChangeURL}, LoadTimeMs: intPtr(250)},
					{Outcome: OutcomeFailed, Change: ChangeResult{Kind: ChangeNone}, Error: "click failed"},
				},
			},
			{
				URL: "https://app.test/b",
				Results: []ElementTestResult{
					{Outcome: OutcomeSuccess, Change: ChangeResult{Changed: true, Kind: ChangeItemCount, Container: "ul.results", DeltaCount: 3}, LoadTimeMs: intPtr(90)},
					{Outcome: OutcomeSkipped, Error: "page budget exhausted"},
				},
			},
		},
	}

	sum := run.Summary()
	assert.Equal(t, 4, sum.TotalTested, "skipped entries are not tested")
	assert.Equal(t, 3, sum.Successful)
	assert.Equal(t, 2, sum.ContentChanged)
	assert.Equal(t, 1, sum.URLChanged)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)
}

func TestSummaryFlagsUnchangedSuccessAsIssue(t *testing.T) {
	run := &SweepResult{
		Pages: []PageResult{{
			URL: "https://app.test",
			Results: []ElementTestResult{
				{
					Descriptor: ElementDescriptor{Label: "Ghost Button", Role: RoleButton},
					Outcome:    OutcomeSuccess,
					Change:     ChangeResult{Kind: ChangeNone},
					LoadTimeMs: intPtr(1500),
				},
			},
		}},
	}

	sum := run.Summary()
	require.Len(t, sum.Issues, 1)
	issue := sum.Issues[0]
	assert.Equal(t, "Ghost Button", issue.Element)
	assert.Equal(t, RoleButton, issue.Type)
	assert.Equal(t, "no visible change after interaction", issue.Issue)
	assert.Equal(t, "1.5s", issue.LoadTime)
}

func TestSummaryFailureIssueCarriesError(t *testing.T) {
	run := &SweepResult{
		Pages: []PageResult{{
			Results: []ElementTestResult{
				{
					Descriptor: ElementDescriptor{Label: "Broken Link", Role: RoleLink},
					Outcome:    OutcomeFailed,
					Error:      "node detached during dispatch",
				},
			},
		}},
	}

	sum := run.Summary()
	require.Len(t, sum.Issues, 1)
	assert.Equal(t, "node detached during dispatch", sum.Issues[0].Issue)
	assert.Equal(t, "N/A", sum.Issues[0].LoadTime)
}

func TestPageResultCounters(t *testing.T) {
	page := PageResult{
		Results: []ElementTestResult{
			{Outcome: OutcomeSuccess, Change: ChangeResult{Changed: true, Kind: ChangeText}},
			{Outcome: OutcomeSuccess, Change: ChangeResult{Kind: ChangeNone}},
			{Outcome: OutcomeFailed},
			{Outcome: OutcomeSkipped},
		},
	}
	assert.Equal(t, 3, page.Tested())
	assert.Equal(t, 1, page.Changed())
	assert.Equal(t, 1, page.Failed())
}
