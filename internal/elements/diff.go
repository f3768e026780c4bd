// internal/elements/diff.go
package elements

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"github.com/karavela/qasweep/api/schemas"
)

// DiffSnapshots compares two page-state snapshots and reports the dominant
// observable difference. It is pure and idempotent: diffing a snapshot
// against itself always yields changed=false, kind=none.
//
// Kind precedence: a URL change dominates everything because the page
// context itself moved; an item-count delta dominates a text delta because
// the count is the more specific signal (row changes nearly always perturb
// the text digest too).
func DiffSnapshots(before, after schemas.ContentSnapshot) schemas.ChangeResult {
	result := schemas.ChangeResult{
		Kind:   schemas.ChangeNone,
		Before: before,
		After:  after,
	}

	if before.URL != after.URL {
		result.Changed = true
		result.Kind = schemas.ChangeURL
		return result
	}

	if container, delta, ok := dominantCountDelta(before.ItemCounts, after.ItemCounts); ok {
		result.Changed = true
		result.Kind = schemas.ChangeItemCount
		result.Container = container
		result.DeltaCount = delta
		return result
	}

	if before.TextDigest != after.TextDigest {
		result.Changed = true
		result.Kind = schemas.ChangeText
		return result
	}

	return result
}

// dominantCountDelta finds the tracked container whose count moved the most.
// When several containers changed, the largest absolute delta is reported;
// ties break on the lexicographically smaller container identity so the
// result is deterministic. A container present on only one side diffs
// against zero.
func dominantCountDelta(before, after map[string]int) (string, int, bool) {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	var (
		found     bool
		container string
		delta     int
	)
	for _, k := range ordered {
		d := after[k] - before[k]
		if d == 0 {
			continue
		}
		if !found || abs(d) > abs(delta) {
			found = true
			container = k
			delta = d
		}
	}
	return container, delta, found
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// NormalizeText collapses all runs of whitespace to single spaces so that
// formatting-only differences never register as a change.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// DigestText produces the comparable digest of visible page text. Two texts
// that differ only in whitespace digest identically.
func DigestText(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(NormalizeText(text)))
	return strconv.FormatUint(h.Sum64(), 16)
}
