// internal/elements/fixture.go
package elements

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/karavela/qasweep/api/schemas"
)

// candidateTags are element tags snapshotted unconditionally. Refined
// filtering (visibility, the interactive predicate) happens in Go afterwards.
var candidateTags = map[string]struct{}{
	"a": {}, "button": {}, "input": {}, "select": {}, "textarea": {}, "summary": {},
}

// candidateNode reports whether a parsed element is worth snapshotting: a
// candidate tag, or any element carrying a role or click handler.
func candidateNode(node *html.Node) bool {
	if _, ok := candidateTags[strings.ToLower(node.Data)]; ok {
		return true
	}
	for _, a := range node.Attr {
		if a.Key == "role" || a.Key == "onclick" {
			return true
		}
	}
	return false
}

// ParseSnapshots parses an HTML document or fragment and returns element
// snapshots for every candidate node in document order, with the DOM
// neighborhood fields (label-for text, previous sibling, icon children)
// resolved from the parsed tree. Snapshots built this way default to visible
// with a unit box, since static HTML carries no layout. Used by the
// resolver/classifier tests and as the scanner's static fallback when no live
// page is available.
func ParseSnapshots(src string) ([]schemas.ElementSnapshot, error) {
	doc, err := htmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing fixture html: %w", err)
	}

	// A single depth-first walk keeps candidates in document order, which an
	// XPath union over the alternatives would not guarantee.
	var snaps []schemas.ElementSnapshot
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && candidateNode(n) {
			snaps = append(snaps, SnapshotFromNode(doc, n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return snaps, nil
}

// SnapshotFromNode builds the snapshot for a single parsed element,
// resolving its bounded neighborhood against doc.
func SnapshotFromNode(doc, node *html.Node) schemas.ElementSnapshot {
	attrs := make(map[string]string, len(node.Attr))
	for _, a := range node.Attr {
		attrs[a.Key] = a.Val
	}

	snap := schemas.ElementSnapshot{
		Tag:        strings.ToLower(node.Data),
		Attributes: attrs,
		Text:       NormalizeText(htmlquery.InnerText(node)),
		Value:      attrs["value"],
		Position:   elementPosition(node),
		Selector:   fixtureSelector(node),
		Visible:    true,
		Width:      1,
		Height:     1,
	}

	// A select's option text and currently selected value describe its state,
	// not its identity; naming must come from the surrounding context.
	if snap.Tag == "select" {
		snap.Text = ""
		snap.Value = ""
	}

	if id := attrs["id"]; id != "" {
		snap.LabelText = labelForText(doc, id)
	}
	snap.PrevSiblingText = prevSiblingText(node)
	snap.HasIconChild, snap.IconClasses = iconChildren(node)
	if _, ok := attrs["onclick"]; ok {
		snap.HasClickHandler = true
	}
	return snap
}

// labelForText returns the text of a <label for="id"> anywhere in the
// document, or "".
func labelForText(doc *html.Node, id string) string {
	label := htmlquery.FindOne(doc, fmt.Sprintf(`//label[@for=%s]`, xpathString(id)))
	if label == nil {
		return ""
	}
	return NormalizeText(htmlquery.InnerText(label))
}

// prevSiblingText returns the visible text of the immediately preceding
// element sibling, skipping whitespace-only text nodes.
func prevSiblingText(node *html.Node) string {
	for prev := node.PrevSibling; prev != nil; prev = prev.PrevSibling {
		if prev.Type == html.ElementNode {
			return NormalizeText(htmlquery.InnerText(prev))
		}
		if prev.Type == html.TextNode && strings.TrimSpace(prev.Data) != "" {
			// Bare text between elements counts as the preceding context.
			return NormalizeText(prev.Data)
		}
	}
	return ""
}

// iconTags are child tags treated as icons.
var iconTags = map[string]struct{}{"i": {}, "svg": {}, "img": {}}

// iconChildren scans direct and nested children for icon-style nodes and
// collects their class names.
func iconChildren(node *html.Node) (bool, []string) {
	var classes []string
	found := false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			tag := strings.ToLower(c.Data)
			class := attrValue(c, "class")
			_, isIconTag := iconTags[tag]
			if isIconTag || (tag == "span" && strings.Contains(class, "icon")) {
				found = true
				if class != "" {
					classes = append(classes, strings.Fields(class)...)
				}
				continue
			}
			walk(c)
		}
	}
	walk(node)
	return found, classes
}

// elementPosition is the 1-based index among the parent's element children.
func elementPosition(node *html.Node) int {
	if node.Parent == nil {
		return 1
	}
	pos := 0
	for c := node.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		pos++
		if c == node {
			return pos
		}
	}
	return 1
}

// fixtureSelector builds a short, stable selector for a parsed node: the id
// when present, otherwise a nth-child path through up to three ancestors.
func fixtureSelector(node *html.Node) string {
	if id := attrValue(node, "id"); id != "" {
		return "#" + id
	}

	var path []string
	current := node
	for depth := 0; current != nil && current.Type == html.ElementNode && depth < 3; depth++ {
		if id := attrValue(current, "id"); id != "" {
			path = append([]string{"#" + id}, path...)
			break
		}
		step := strings.ToLower(current.Data) + ":nth-child(" + strconv.Itoa(elementPosition(current)) + ")"
		path = append([]string{step}, path...)
		current = current.Parent
	}
	return strings.Join(path, " > ")
}

func attrValue(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// xpathString quotes a literal for embedding in an XPath expression,
// handling values that contain quotes.
func xpathString(v string) string {
	if !strings.Contains(v, `'`) {
		return `'` + v + `'`
	}
	if !strings.Contains(v, `"`) {
		return `"` + v + `"`
	}
	parts := strings.Split(v, `'`)
	for i, p := range parts {
		parts[i] = `'` + p + `'`
	}
	return `concat(` + strings.Join(parts, `,"'",`) + `)`
}
