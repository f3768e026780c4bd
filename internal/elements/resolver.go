// internal/elements/resolver.go
package elements

import (
	"strconv"
	"strings"

	"github.com/karavela/qasweep/api/schemas"
)

// extractor is one naming heuristic. It returns "" when it has nothing to
// say so the chain falls through to the next, less reliable rule.
type extractor func(*schemas.ElementSnapshot) string

// nameChain is the fixed-priority heuristic chain. Order is load-bearing:
// later rules are intentionally less reliable and must only fire when every
// earlier rule came up empty.
var nameChain = []extractor{
	fromAriaLabel,
	fromAssociatedLabel,
	fromPlaceholder,
	fromTestID,
	fromValue,
	fromVisibleText,
	fromTitle,
	fromNameOrID,
	fromIconChild,
	fromSelectContext,
	fromBareTag,
}

// ResolveName derives a non-empty human-readable label for the element. It
// never returns "", never errors, and never touches the page; everything it
// needs is already in the snapshot.
func ResolveName(snap *schemas.ElementSnapshot) string {
	for _, extract := range nameChain {
		if name := strings.TrimSpace(extract(snap)); name != "" {
			return name
		}
	}
	return fromTagPosition(snap)
}

func fromAriaLabel(s *schemas.ElementSnapshot) string {
	return s.Attr("aria-label")
}

// fromAssociatedLabel resolves the <label for=...> text. Selects keep their
// control type visible in the name, so the label gets a " Dropdown" suffix.
func fromAssociatedLabel(s *schemas.ElementSnapshot) string {
	if s.LabelText == "" {
		return ""
	}
	if s.Tag == "select" {
		return s.LabelText + " Dropdown"
	}
	return s.LabelText
}

func fromPlaceholder(s *schemas.ElementSnapshot) string {
	return s.Attr("placeholder")
}

// testIDAttrs are checked in order; the first non-empty value wins.
var testIDAttrs = []string{"data-testid", "data-test-id", "data-test", "data-id", "data-name"}

func fromTestID(s *schemas.ElementSnapshot) string {
	for _, attr := range testIDAttrs {
		if v := s.Attr(attr); v != "" {
			return humanize(v)
		}
	}
	return ""
}

func fromValue(s *schemas.ElementSnapshot) string {
	return s.Value
}

func fromVisibleText(s *schemas.ElementSnapshot) string {
	return s.Text
}

func fromTitle(s *schemas.ElementSnapshot) string {
	return s.Attr("title")
}

func fromNameOrID(s *schemas.ElementSnapshot) string {
	// Selects never resolve from the raw form-field name; fromSelectContext
	// names them from their surroundings instead.
	if s.Tag == "select" {
		return ""
	}
	if v := s.Attr("name"); v != "" {
		return humanize(v)
	}
	if v := s.Attr("id"); v != "" {
		return humanize(v)
	}
	return ""
}

// iconKeyword maps icon class-name fragments to labels. The table is ordered;
// the first keyword found anywhere in the icon's class list wins.
type iconKeyword struct {
	keywords []string
	label    string
}

var iconKeywords = []iconKeyword{
	{[]string{"search"}, "Search Button"},
	{[]string{"delete", "trash"}, "Delete Button"},
	{[]string{"edit", "pencil"}, "Edit Button"},
	{[]string{"add", "plus"}, "Add Button"},
	{[]string{"save"}, "Save Button"},
	{[]string{"cancel", "close"}, "Cancel Button"},
	{[]string{"menu", "hamburger"}, "Menu Button"},
}

// fromIconChild names icon-only buttons and links by matching the icon's
// class names against the keyword table.
func fromIconChild(s *schemas.ElementSnapshot) string {
	if !s.HasIconChild {
		return ""
	}
	if s.Tag != "button" && s.Tag != "a" {
		return ""
	}
	classes := strings.ToLower(strings.Join(s.IconClasses, " "))
	for _, entry := range iconKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(classes, kw) {
				return entry.label
			}
		}
	}
	if s.Tag == "a" {
		return "Icon Link"
	}
	return "Icon Button"
}

// fromSelectContext names <select> elements from their surroundings: the
// associated label, then the preceding sibling's text, then a literal.
func fromSelectContext(s *schemas.ElementSnapshot) string {
	if s.Tag != "select" {
		return ""
	}
	if s.LabelText != "" {
		return s.LabelText + " Dropdown"
	}
	if prev := strings.TrimSpace(s.PrevSiblingText); prev != "" {
		return prev + " Dropdown"
	}
	return "Dropdown Menu"
}

func fromBareTag(s *schemas.ElementSnapshot) string {
	switch s.Tag {
	case "a":
		return "Link"
	case "button":
		return "Button"
	case "input":
		inputType := s.Attr("type")
		if inputType == "" {
			inputType = "Input"
		}
		return titleCase(inputType) + " Field"
	}
	return ""
}

// fromTagPosition is the last resort: tag name plus the 1-based position
// among the parent's children. It can never be empty.
func fromTagPosition(s *schemas.ElementSnapshot) string {
	pos := s.Position
	if pos < 1 {
		pos = 1
	}
	tag := s.Tag
	if tag == "" {
		tag = "element"
	}
	return titleCase(tag) + " " + strconv.Itoa(pos)
}

// humanize turns attribute-style identifiers into words: hyphens and
// underscores become spaces.
func humanize(v string) string {
	v = strings.ReplaceAll(v, "-", " ")
	v = strings.ReplaceAll(v, "_", " ")
	return strings.Join(strings.Fields(v), " ")
}

// titleCase capitalizes the first letter of each word.
func titleCase(v string) string {
	words := strings.Fields(strings.ToLower(v))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
