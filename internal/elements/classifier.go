// internal/elements/classifier.go
package elements

import (
	"strings"

	"github.com/karavela/qasweep/api/schemas"
)

// ariaRoles maps explicit accessibility roles onto semantic roles. An
// explicit role always beats tag and class heuristics.
var ariaRoles = map[string]schemas.Role{
	"button":    schemas.RoleButton,
	"link":      schemas.RoleLink,
	"tab":       schemas.RoleTab,
	"menuitem":  schemas.RoleNavLink,
	"checkbox":  schemas.RoleCheckbox,
	"radio":     schemas.RoleRadio,
	"combobox":  schemas.RoleDropdown,
	"listbox":   schemas.RoleDropdown,
	"textbox":   schemas.RoleTextInput,
	"searchbox": schemas.RoleTextInput,
}

// Classify maps an element snapshot onto the closed role set. It is total:
// precedence is explicit accessibility role, then semantic tag, then
// class-name keywords, then a generic tag fallback; anything unmatched is
// RoleUnknown, never an error.
func Classify(snap *schemas.ElementSnapshot) schemas.Role {
	if role, ok := ariaRoles[strings.ToLower(snap.Attr("role"))]; ok {
		return role
	}
	if role := classifyTag(snap); role != schemas.RoleUnknown {
		return role
	}
	if role := classifyClass(snap); role != schemas.RoleUnknown {
		return role
	}
	return classifyFallback(snap)
}

// classifyTag resolves unambiguous control tags.
func classifyTag(s *schemas.ElementSnapshot) schemas.Role {
	switch s.Tag {
	case "select":
		return schemas.RoleDropdown
	case "textarea":
		return schemas.RoleTextInput
	case "button":
		if iconOnly(s) {
			return schemas.RoleIconButton
		}
		return schemas.RoleButton
	case "input":
		switch strings.ToLower(s.Attr("type")) {
		case "checkbox":
			return schemas.RoleCheckbox
		case "radio":
			return schemas.RoleRadio
		case "submit", "button", "reset", "image":
			return schemas.RoleButton
		default:
			return schemas.RoleTextInput
		}
	}
	return schemas.RoleUnknown
}

// classKeywords is the ordered class-name heuristic table; the first keyword
// contained in the class attribute wins.
var classKeywords = []struct {
	keyword string
	role    schemas.Role
}{
	{"tab", schemas.RoleTab},
	{"dropdown", schemas.RoleDropdown},
	{"nav", schemas.RoleNavLink},
	{"btn", schemas.RoleButton},
	{"button", schemas.RoleButton},
}

func classifyClass(s *schemas.ElementSnapshot) schemas.Role {
	class := strings.ToLower(s.Attr("class"))
	if class == "" {
		return schemas.RoleUnknown
	}
	for _, entry := range classKeywords {
		if strings.Contains(class, entry.keyword) {
			return entry.role
		}
	}
	return schemas.RoleUnknown
}

// classifyFallback handles the generic clickable shapes left over after the
// stronger rules.
func classifyFallback(s *schemas.ElementSnapshot) schemas.Role {
	switch s.Tag {
	case "a":
		if iconOnly(s) {
			return schemas.RoleIconLink
		}
		return schemas.RoleLink
	case "summary", "details":
		return schemas.RoleButton
	}
	if s.HasClickHandler {
		return schemas.RoleButton
	}
	return schemas.RoleUnknown
}

// iconOnly reports an element whose only visible content is an icon child.
func iconOnly(s *schemas.ElementSnapshot) bool {
	return s.HasIconChild && strings.TrimSpace(s.Text) == ""
}

// Describe resolves an element's full identity: semantic role plus the
// human-readable label from the naming chain. The returned descriptor is
// immutable; the attribute map is copied so later page mutation cannot leak
// into recorded results.
func Describe(snap *schemas.ElementSnapshot) schemas.ElementDescriptor {
	attrs := make(map[string]string, len(snap.Attributes))
	for k, v := range snap.Attributes {
		attrs[k] = v
	}
	return schemas.ElementDescriptor{
		Tag:        snap.Tag,
		Role:       Classify(snap),
		Label:      ResolveName(snap),
		Attributes: attrs,
	}
}
