// internal/sweep/sweeper_test.go
package sweep

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/karavela/qasweep/api/schemas"
	"github.com/karavela/qasweep/internal/elements"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeHost scripts a page: clicking a selector runs its mutation against the
// current page state, which CaptureSnapshot reflects.
type fakeHost struct {
	candidates []schemas.ElementSnapshot
	scanErr    error

	state schemas.ContentSnapshot

	onClick    map[string]func(h *fakeHost)
	clickErr   map[string]error
	settleErr  map[string]error
	captureErr error

	clicked    []string
	navBack    []string
	navBackErr error

	lastClicked string
}

func (h *fakeHost) ScanCandidates(context.Context) ([]schemas.ElementSnapshot, error) {
	if h.scanErr != nil {
		return nil, h.scanErr
	}
	return h.candidates, nil
}

func (h *fakeHost) CaptureSnapshot(context.Context) (schemas.ContentSnapshot, error) {
	if h.captureErr != nil {
		return schemas.ContentSnapshot{}, h.captureErr
	}
	return h.state, nil
}

func (h *fakeHost) Click(_ context.Context, selector string) error {
	if err := h.clickErr[selector]; err != nil {
		return err
	}
	h.clicked = append(h.clicked, selector)
	h.lastClicked = selector
	if mutate := h.onClick[selector]; mutate != nil {
		mutate(h)
	}
	return nil
}

func (h *fakeHost) WaitQuiescent(_ context.Context, _ time.Duration) error {
	return h.settleErr[h.lastClicked]
}

func (h *fakeHost) NavigateBack(_ context.Context, url string) error {
	if h.navBackErr != nil {
		return h.navBackErr
	}
	h.navBack = append(h.navBack, url)
	h.state.URL = url
	return nil
}

func buttons(n int) []schemas.ElementSnapshot {
	snaps := make([]schemas.ElementSnapshot, n)
	for i := range snaps {
		snaps[i] = schemas.ElementSnapshot{
			Tag:      "button",
			Text:     fmt.Sprintf("Action %d", i+1),
			Selector: fmt.Sprintf("#b%d", i+1),
			Visible:  true, Width: 1, Height: 1, Position: i + 1,
		}
	}
	return snaps
}

func newFakeHost(n int) *fakeHost {
	return &fakeHost{
		candidates: buttons(n),
		state:      schemas.ContentSnapshot{TextDigest: elements.DigestText("home"), URL: "https://app.test/"},
		onClick:    map[string]func(*fakeHost){},
		clickErr:   map[string]error{},
		settleErr:  map[string]error{},
	}
}

func testSweeper(h *fakeHost, opts Options) *Sweeper {
	return NewSweeper(h, opts, zap.NewNop())
}

func TestSweepPageScanErrorIsPageFatalWithNoResults(t *testing.T) {
	h := newFakeHost(0)
	h.scanErr = errors.New("page root unreachable")

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.Error(t, err)
	assert.Nil(t, page)

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.True(t, IsPageFatal(err))
}

func TestSweepPageRecordsEveryElementInOrder(t *testing.T) {
	h := newFakeHost(3)
	h.onClick["#b2"] = func(h *fakeHost) {
		h.state.TextDigest = elements.DigestText("after b2")
	}

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 3)

	assert.Equal(t, []string{"#b1", "#b2", "#b3"}, h.clicked)
	for _, r := range page.Results {
		assert.Equal(t, schemas.OutcomeSuccess, r.Outcome)
		require.NotNil(t, r.LoadTimeMs)
		assert.GreaterOrEqual(t, *r.LoadTimeMs, int64(0))
	}
	assert.False(t, page.Results[0].Change.Changed)
	assert.True(t, page.Results[1].Change.Changed)
	assert.Equal(t, schemas.ChangeText, page.Results[1].Change.Kind)
	assert.Equal(t, 3, page.Tested())
	assert.Equal(t, 1, page.Changed())
}

// A timeout on one element never aborts the sweep: later elements still
// produce entries.
func TestSweepPageTimeoutIsNonFatal(t *testing.T) {
	h := newFakeHost(10)
	h.settleErr["#b4"] = &TimeoutError{Timeout: time.Second}

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 10)

	timedOut := page.Results[3]
	assert.Equal(t, schemas.OutcomeSuccess, timedOut.Outcome)
	assert.True(t, timedOut.NoSettle)
	require.NotNil(t, timedOut.LoadTimeMs, "a timed-out settle still records elapsed time")

	for _, r := range page.Results[4:] {
		assert.Equal(t, schemas.OutcomeSuccess, r.Outcome)
		assert.False(t, r.NoSettle)
	}
}

func TestSweepPageClickFailureIsElementScoped(t *testing.T) {
	h := newFakeHost(3)
	h.clickErr["#b2"] = errors.New("node detached")

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 3)

	failed := page.Results[1]
	assert.Equal(t, schemas.OutcomeFailed, failed.Outcome)
	assert.Nil(t, failed.LoadTimeMs, "dispatch never completed")
	assert.Contains(t, failed.Error, "node detached")

	assert.Equal(t, schemas.OutcomeSuccess, page.Results[2].Outcome)
	assert.Equal(t, 1, page.Failed())
}

func TestSweepPageUnintendedNavigationRecovers(t *testing.T) {
	h := newFakeHost(2)
	h.onClick["#b1"] = func(h *fakeHost) {
		h.state.URL = "https://app.test/elsewhere"
	}

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 2)

	assert.Equal(t, schemas.ChangeURL, page.Results[0].Change.Kind)
	assert.Equal(t, []string{"https://app.test/"}, h.navBack)
	assert.Equal(t, schemas.OutcomeSuccess, page.Results[1].Outcome)
}

func TestSweepPageNavigationRecoveryFailureIsPageFatal(t *testing.T) {
	h := newFakeHost(5)
	h.onClick["#b2"] = func(h *fakeHost) {
		h.state.URL = "https://app.test/elsewhere"
	}
	h.navBackErr = errors.New("browser gone")

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.Error(t, err)

	var navErr *NavigationRecoveryError
	require.ErrorAs(t, err, &navErr)
	assert.Equal(t, "https://app.test/", navErr.WantURL)
	assert.True(t, IsPageFatal(err))

	// Partial results up to and including the offending element are kept.
	require.NotNil(t, page)
	require.Len(t, page.Results, 2)
	assert.Equal(t, schemas.ChangeURL, page.Results[1].Change.Kind)
}

func TestSweepPageElementCapSkipsRemainder(t *testing.T) {
	h := newFakeHost(5)

	page, err := testSweeper(h, Options{MaxElements: 2}).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 5, "skipped elements still get entries")

	assert.Len(t, h.clicked, 2)
	for _, r := range page.Results[2:] {
		assert.Equal(t, schemas.OutcomeSkipped, r.Outcome)
		assert.Equal(t, "element cap reached", r.Error)
		assert.NotEmpty(t, r.Descriptor.Label)
	}
	assert.Equal(t, 2, page.Tested())
}

func TestSweepPageBudgetSkipsRemainder(t *testing.T) {
	h := newFakeHost(4)

	opts := Options{PageBudget: time.Nanosecond}
	page, err := testSweeper(h, opts).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 4)

	for _, r := range page.Results {
		assert.Equal(t, schemas.OutcomeSkipped, r.Outcome)
		assert.Equal(t, "page budget exhausted", r.Error)
	}
	assert.Empty(t, h.clicked)
}

func TestSweepPageCaptureFailureIsElementScoped(t *testing.T) {
	h := newFakeHost(1)
	h.captureErr = errors.New("evaluate failed")

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, schemas.OutcomeFailed, page.Results[0].Outcome)
	assert.Contains(t, page.Results[0].Error, "evaluate failed")
}

func TestSweepPageDescriptorsResolveIdentity(t *testing.T) {
	h := newFakeHost(1)
	h.candidates[0].Text = ""
	h.candidates[0].Attributes = map[string]string{"aria-label": "Save Draft"}

	page, err := testSweeper(h, Options{}).SweepPage(context.Background(), "https://app.test/")
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Save Draft", page.Results[0].Descriptor.Label)
	assert.Equal(t, schemas.RoleButton, page.Results[0].Descriptor.Role)
}
