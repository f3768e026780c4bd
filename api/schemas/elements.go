// api/schemas/elements.go
package schemas

// Role is the closed set of semantic roles an interactive element can
// classify into. Unmatched elements are RoleUnknown, never an error.
type Role string

const (
	RoleButton     Role = "button"
	RoleLink       Role = "link"
	RoleTab        Role = "tab"
	RoleNavLink    Role = "nav-link"
	RoleDropdown   Role = "dropdown"
	RoleTextInput  Role = "text-input"
	RoleCheckbox   Role = "checkbox"
	RoleRadio      Role = "radio"
	RoleIconButton Role = "icon-button"
	RoleIconLink   Role = "icon-link"
	RoleUnknown    Role = "unknown"
)

// ElementSnapshot is a point-in-time capture of one candidate element plus
// the bounded DOM neighborhood the naming heuristics need (associated label
// text, previous sibling text, icon children). It is produced by the host
// page layer (or parsed from HTML fixtures in tests) and never mutated by
// the resolver or classifier.
type ElementSnapshot struct {
	// Tag is the lowercase element tag name.
	Tag string `json:"tag"`
	// Attributes holds the element's attributes at capture time.
	Attributes map[string]string `json:"attributes"`
	// Text is the rendered visible text content, whitespace-collapsed.
	Text string `json:"text"`
	// Value is the element's current value, if it has one.
	Value string `json:"value"`
	// LabelText is the text of a <label for="..."> explicitly associated
	// with this element, if any.
	LabelText string `json:"label_text,omitempty"`
	// PrevSiblingText is the visible text of the immediately preceding
	// sibling element, if any.
	PrevSiblingText string `json:"prev_sibling_text,omitempty"`
	// HasIconChild reports whether the element contains an icon-style child
	// (an <i>/<span> icon element, inline SVG, or <img>).
	HasIconChild bool `json:"has_icon_child,omitempty"`
	// IconClasses holds the class names found on icon children.
	IconClasses []string `json:"icon_classes,omitempty"`
	// Position is the 1-based index among the parent's element children.
	Position int `json:"position"`

	// Selector uniquely targets the element for interaction dispatch. Its
	// validity is owned by the host page layer.
	Selector string `json:"selector"`

	// Geometry and interactivity signals from the live page. Fixture-built
	// snapshots default Visible to true with a nonzero box.
	Visible         bool    `json:"visible"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Cursor          string  `json:"cursor,omitempty"`
	HasClickHandler bool    `json:"has_click_handler,omitempty"`
}

// Attr returns the named attribute or "" when absent.
func (s *ElementSnapshot) Attr(name string) string {
	if s.Attributes == nil {
		return ""
	}
	return s.Attributes[name]
}

// ElementDescriptor is the resolved identity of one interactive element.
// Immutable once produced; Label is never empty.
type ElementDescriptor struct {
	Tag        string            `json:"tag"`
	Role       Role              `json:"role"`
	Label      string            `json:"label"`
	Attributes map[string]string `json:"attributes"`
}
