// internal/elements/scanner.go
package elements

import (
	"strings"

	"github.com/karavela/qasweep/api/schemas"
)

// clickableTags are tags that are interactive by construction.
var clickableTags = map[string]struct{}{
	"a": {}, "button": {}, "input": {}, "select": {}, "textarea": {},
	"summary": {}, "details": {},
}

// interactiveAriaRoles are explicit roles that mark an otherwise inert
// element as interactive.
var interactiveAriaRoles = map[string]struct{}{
	"button": {}, "link": {}, "tab": {}, "menuitem": {}, "checkbox": {},
	"radio": {}, "combobox": {}, "listbox": {}, "textbox": {}, "switch": {},
}

// Interactive is the candidate predicate: clickable tag, explicit
// interactive role, an attached click handler, or a pointer-style cursor.
func Interactive(s *schemas.ElementSnapshot) bool {
	if _, ok := clickableTags[s.Tag]; ok {
		return true
	}
	if _, ok := interactiveAriaRoles[strings.ToLower(s.Attr("role"))]; ok {
		return true
	}
	if s.HasClickHandler {
		return true
	}
	return s.Cursor == "pointer"
}

// ScanFilter narrows and de-duplicates raw candidates from the host layer.
type ScanFilter struct {
	// Include keeps only matching elements when non-empty.
	Include []string
	// Exclude drops matching elements.
	Exclude []string
}

// Apply returns the ordered, deduplicated sequence of elements satisfying
// the interactive predicate. Hidden and zero-area elements are dropped; the
// host's document order is preserved.
func (f ScanFilter) Apply(candidates []schemas.ElementSnapshot) []schemas.ElementSnapshot {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]schemas.ElementSnapshot, 0, len(candidates))

	for i := range candidates {
		snap := &candidates[i]
		if !snap.Visible || snap.Width*snap.Height <= 0 {
			continue
		}
		if !Interactive(snap) {
			continue
		}
		if len(f.Include) > 0 && !matchesAny(snap, f.Include) {
			continue
		}
		if matchesAny(snap, f.Exclude) {
			continue
		}
		if _, dup := seen[snap.Selector]; dup {
			continue
		}
		seen[snap.Selector] = struct{}{}
		out = append(out, *snap)
	}
	return out
}

// matchesAny tests the element against simple selector forms: "tag",
// "#id", ".class", and "tag.class". Anything richer belongs in the host
// layer's query, not here.
func matchesAny(s *schemas.ElementSnapshot, selectors []string) bool {
	for _, sel := range selectors {
		if matchesSimple(s, sel) {
			return true
		}
	}
	return false
}

func matchesSimple(s *schemas.ElementSnapshot, sel string) bool {
	sel = strings.TrimSpace(sel)
	switch {
	case sel == "":
		return false
	case strings.HasPrefix(sel, "#"):
		return s.Attr("id") == sel[1:]
	case strings.HasPrefix(sel, "."):
		return hasClassToken(s, sel[1:])
	case strings.Contains(sel, "."):
		parts := strings.SplitN(sel, ".", 2)
		return s.Tag == parts[0] && hasClassToken(s, parts[1])
	default:
		return s.Tag == sel
	}
}

func hasClassToken(s *schemas.ElementSnapshot, class string) bool {
	for _, token := range strings.Fields(s.Attr("class")) {
		if token == class {
			return true
		}
	}
	return false
}
