// internal/elements/resolver_test.go
package elements

// Tests live inside the package so they can exercise the individual
// extractors directly as well as the full chain.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karavela/qasweep/api/schemas"
)

func snap(tag string, attrs map[string]string) *schemas.ElementSnapshot {
	return &schemas.ElementSnapshot{Tag: tag, Attributes: attrs, Visible: true, Width: 1, Height: 1, Position: 1}
}

func TestResolveNamePriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		snap     *schemas.ElementSnapshot
		expected string
	}{
		{
			name:     "aria-label beats placeholder",
			snap:     snap("input", map[string]string{"aria-label": "Submit", "placeholder": "Enter text"}),
			expected: "Submit",
		},
		{
			name: "associated label beats placeholder",
			snap: func() *schemas.ElementSnapshot {
				s := snap("input", map[string]string{"placeholder": "you@example.com"})
				s.LabelText = "Email Address"
				return s
			}(),
			expected: "Email Address",
		},
		{
			name:     "placeholder beats test id",
			snap:     snap("input", map[string]string{"placeholder": "Search...", "data-testid": "global-search"}),
			expected: "Search...",
		},
		{
			name:     "test id humanized",
			snap:     snap("button", map[string]string{"data-testid": "submit-order_now"}),
			expected: "submit order now",
		},
		{
			name: "value beats visible text",
			snap: func() *schemas.ElementSnapshot {
				s := snap("input", map[string]string{"type": "submit"})
				s.Value = "Place Order"
				s.Text = "ignored"
				return s
			}(),
			expected: "Place Order",
		},
		{
			name: "visible text beats title",
			snap: func() *schemas.ElementSnapshot {
				s := snap("button", map[string]string{"title": "tooltip"})
				s.Text = "Save Draft"
				return s
			}(),
			expected: "Save Draft",
		},
		{
			name:     "title beats name attribute",
			snap:     snap("a", map[string]string{"title": "Home", "name": "home-link"}),
			expected: "Home",
		},
		{
			name:     "name attribute beats id",
			snap:     snap("input", map[string]string{"name": "billing_zip", "id": "field-17"}),
			expected: "billing zip",
		},
		{
			name:     "id humanized",
			snap:     snap("input", map[string]string{"id": "first-name"}),
			expected: "first name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveName(tt.snap))
		})
	}
}

func TestResolveNameIconHeuristics(t *testing.T) {
	iconButton := func(classes ...string) *schemas.ElementSnapshot {
		s := snap("button", nil)
		s.HasIconChild = true
		s.IconClasses = classes
		return s
	}

	tests := []struct {
		name     string
		snap     *schemas.ElementSnapshot
		expected string
	}{
		{"trash icon", iconButton("fa", "fa-trash"), "Delete Button"},
		{"delete keyword", iconButton("icon-delete-row"), "Delete Button"},
		{"search icon", iconButton("bi-search"), "Search Button"},
		{"pencil icon", iconButton("fa-pencil-alt"), "Edit Button"},
		{"plus icon", iconButton("fa-plus-circle"), "Add Button"},
		{"save icon", iconButton("icon-save"), "Save Button"},
		{"close icon", iconButton("fa-close"), "Cancel Button"},
		{"hamburger icon", iconButton("hamburger-toggle"), "Menu Button"},
		{"unmatched icon on button", iconButton("fa-star"), "Icon Button"},
		{
			name: "unmatched icon on link",
			snap: func() *schemas.ElementSnapshot {
				s := snap("a", nil)
				s.HasIconChild = true
				s.IconClasses = []string{"fa-star"}
				return s
			}(),
			expected: "Icon Link",
		},
		{
			name: "keyword table ordered: search wins over later keywords",
			snap: iconButton("search-close"),
			// "search" is checked before "close" in the fixed table.
			expected: "Search Button",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveName(tt.snap))
		})
	}
}

func TestResolveNameSelectHeuristics(t *testing.T) {
	t.Run("label-for wins", func(t *testing.T) {
		s := snap("select", map[string]string{"id": "country"})
		s.LabelText = "Country"
		assert.Equal(t, "Country Dropdown", ResolveName(s))
	})

	t.Run("previous sibling text", func(t *testing.T) {
		s := snap("select", nil)
		s.PrevSiblingText = "Country"
		assert.Equal(t, "Country Dropdown", ResolveName(s))
	})

	t.Run("name attribute yields to sibling text", func(t *testing.T) {
		s := snap("select", map[string]string{"name": "country"})
		s.PrevSiblingText = "Country"
		assert.Equal(t, "Country Dropdown", ResolveName(s))
	})

	t.Run("name attribute alone never names a select", func(t *testing.T) {
		s := snap("select", map[string]string{"name": "country", "id": "country"})
		assert.Equal(t, "Dropdown Menu", ResolveName(s))
	})

	t.Run("bare select", func(t *testing.T) {
		assert.Equal(t, "Dropdown Menu", ResolveName(snap("select", nil)))
	})
}

func TestResolveNameBareTagFallbacks(t *testing.T) {
	assert.Equal(t, "Link", ResolveName(snap("a", nil)))
	assert.Equal(t, "Button", ResolveName(snap("button", nil)))
	assert.Equal(t, "Text Field", ResolveName(snap("input", map[string]string{"type": "text"})))
	assert.Equal(t, "Email Field", ResolveName(snap("input", map[string]string{"type": "email"})))
	assert.Equal(t, "Input Field", ResolveName(snap("input", nil)))
}

func TestResolveNameLastResortPosition(t *testing.T) {
	s := snap("div", nil)
	s.Position = 3
	assert.Equal(t, "Div 3", ResolveName(s))

	s = snap("span", nil)
	s.Position = 0 // unknown position clamps to 1
	assert.Equal(t, "Span 1", ResolveName(s))
}

// ResolveName must return something for any element that has at least a tag,
// whatever junk the rest of the snapshot holds.
func TestResolveNameNeverEmpty(t *testing.T) {
	for _, tag := range []string{"a", "button", "input", "select", "textarea", "div", "span", "li", "td", "custom-widget"} {
		for _, attrs := range []map[string]string{nil, {}, {"class": ""}, {"aria-label": "   "}} {
			s := snap(tag, attrs)
			s.Position = 0
			assert.NotEmpty(t, ResolveName(s), "tag=%s attrs=%v", tag, attrs)
		}
	}
}

func TestResolveNameFromParsedFixtures(t *testing.T) {
	const page = `
	<html><body>
	  <label for="qty">Quantity</label>
	  <input id="qty" type="number">
	  <span>Country</span>
	  <select name="country"><option>PT</option></select>
	  <button><i class="fa fa-trash"></i></button>
	  <a href="/reports">Monthly Reports</a>
	</body></html>`

	snaps, err := ParseSnapshots(page)
	require.NoError(t, err)

	byTag := map[string]*schemas.ElementSnapshot{}
	for i := range snaps {
		byTag[snaps[i].Tag] = &snaps[i]
	}

	require.Contains(t, byTag, "input")
	assert.Equal(t, "Quantity", ResolveName(byTag["input"]), "label-for resolved from the parsed document")

	require.Contains(t, byTag, "select")
	assert.Equal(t, "Country Dropdown", ResolveName(byTag["select"]), "previous sibling text resolved")

	require.Contains(t, byTag, "button")
	assert.Equal(t, "Delete Button", ResolveName(byTag["button"]))

	require.Contains(t, byTag, "a")
	assert.Equal(t, "Monthly Reports", ResolveName(byTag["a"]))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "user name field", humanize("user-name_field"))
	assert.Equal(t, "a b", humanize("a--b"))
	assert.Equal(t, "", humanize("---"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Text", titleCase("text"))
	assert.Equal(t, "Datetime Local", titleCase("datetime local"))
	assert.Equal(t, "", titleCase(""))
}
