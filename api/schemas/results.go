// api/schemas/results.go
package schemas

import "time"

// ChangeKind names the dominant observable effect of an interaction.
type ChangeKind string

const (
	// ChangeText marks a semantic difference in visible page text.
	ChangeText ChangeKind = "text"
	// ChangeItemCount marks a delta in a tracked repeating container.
	ChangeItemCount ChangeKind = "item-count"
	// ChangeURL marks a navigation; it dominates all other kinds because the
	// page context itself changed.
	ChangeURL ChangeKind = "url"
	// ChangeNone means no observable difference.
	ChangeNone ChangeKind = "none"
)

// ContentSnapshot captures the comparable page state: a whitespace-normalized
// digest of visible text, item counts per tracked repeating container, and
// the navigation URL. Captured before and after an interaction, diffed, then
// discarded.
type ContentSnapshot struct {
	TextDigest string         `json:"text_digest"`
	ItemCounts map[string]int `json:"item_counts"`
	URL        string         `json:"url"`
}

// ChangeResult is the outcome of diffing two ContentSnapshots.
type ChangeResult struct {
	Changed bool       `json:"changed"`
	Kind    ChangeKind `json:"kind"`
	// Container identifies which repeating container moved when
	// Kind == ChangeItemCount.
	Container string `json:"container,omitempty"`
	// DeltaCount is after-before for the reported container.
	DeltaCount int             `json:"delta_count,omitempty"`
	Before     ContentSnapshot `json:"before"`
	After      ContentSnapshot `json:"after"`
}

// Outcome is the per-element test verdict.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// ElementTestResult records one element's interaction test. Entries are
// append-only; no entry is mutated after creation.
type ElementTestResult struct {
	Descriptor ElementDescriptor `json:"descriptor"`
	Outcome    Outcome           `json:"outcome"`
	Change     ChangeResult      `json:"change"`
	// LoadTimeMs is the dispatch-to-settle latency in milliseconds. Nil only
	// when dispatch itself never completed. A timed-out settle still records
	// the elapsed (bounded) time.
	LoadTimeMs *int64 `json:"load_time_ms"`
	// NoSettle marks that quiescence was not observed within the timeout.
	// Informational; it is not an interaction failure.
	NoSettle bool   `json:"no_settle,omitempty"`
	Error    string `json:"error,omitempty"`
}

// PageResult is the ordered result sequence for one page's sweep.
type PageResult struct {
	URL       string              `json:"url"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Results   []ElementTestResult `json:"results"`
	// NavLoadMs is the page navigation load time, when the sweep performed
	// the navigation itself.
	NavLoadMs int64 `json:"nav_load_ms,omitempty"`
	// SlowLoad flags navigation slower than the configured threshold.
	SlowLoad bool `json:"slow_load,omitempty"`
}

// Tested returns the number of elements that were actually driven
// (everything except skipped entries).
func (p *PageResult) Tested() int {
	n := 0
	for _, r := range p.Results {
		if r.Outcome != OutcomeSkipped {
			n++
		}
	}
	return n
}

// Changed returns the number of results with an observed effect.
func (p *PageResult) Changed() int {
	n := 0
	for _, r := range p.Results {
		if r.Change.Changed {
			n++
		}
	}
	return n
}

// Failed returns the number of failed results.
func (p *PageResult) Failed() int {
	n := 0
	for _, r := range p.Results {
		if r.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

// InteractionIssue is one row of the report's issue table.
type InteractionIssue struct {
	Element  string `json:"element"`
	Type     Role   `json:"type"`
	Issue    string `json:"issue"`
	LoadTime string `json:"load_time"`
}

// InteractionSummary aggregates element results across every swept page for
// the report generator, which consumes it without further validation.
type InteractionSummary struct {
	TotalTested    int                `json:"total_tested"`
	Successful     int                `json:"successful"`
	ContentChanged int                `json:"content_changed"`
	URLChanged     int                `json:"url_changed"`
	Failed         int                `json:"failed"`
	Skipped        int                `json:"skipped"`
	Issues         []InteractionIssue `json:"issues,omitempty"`
}

// SweepResult is the full outcome of one run: every page's ordered results
// plus run-level metadata.
type SweepResult struct {
	RunID     string        `json:"run_id"`
	Website   string        `json:"website"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Pages     []PageResult  `json:"pages"`
	// BrokenLinks collects dead hrefs and dangling anchors found during the
	// run, formatted for the report.
	BrokenLinks []string `json:"broken_links,omitempty"`
	// Warnings collects non-fatal run observations (slow pages, no-settle
	// interactions).
	Warnings []string `json:"warnings,omitempty"`
}

// Summary computes the InteractionSummary over every page in the run.
func (s *SweepResult) Summary() InteractionSummary {
	var sum InteractionSummary
	for _, page := range s.Pages {
		for _, r := range page.Results {
			switch r.Outcome {
			case OutcomeSkipped:
				sum.Skipped++
				continue
			case OutcomeFailed:
				sum.Failed++
			case OutcomeSuccess:
				sum.Successful++
			}
			sum.TotalTested++
			switch r.Change.Kind {
			case ChangeURL:
				sum.URLChanged++
			case ChangeText, ChangeItemCount:
				sum.ContentChanged++
			}
			if issue := issueFor(r); issue != nil {
				sum.Issues = append(sum.Issues, *issue)
			}
		}
	}
	return sum
}

func issueFor(r ElementTestResult) *InteractionIssue {
	loadTime := "N/A"
	if r.LoadTimeMs != nil {
		loadTime = formatMs(*r.LoadTimeMs)
	}
	switch {
	case r.Outcome == OutcomeFailed:
		return &InteractionIssue{
			Element:  r.Descriptor.Label,
			Type:     r.Descriptor.Role,
			Issue:    r.Error,
			LoadTime: loadTime,
		}
	case r.Outcome == OutcomeSuccess && !r.Change.Changed:
		return &InteractionIssue{
			Element:  r.Descriptor.Label,
			Type:     r.Descriptor.Role,
			Issue:    "no visible change after interaction",
			LoadTime: loadTime,
		}
	}
	return nil
}

func formatMs(ms int64) string {
	return time.Duration(ms * int64(time.Millisecond)).String()
}
