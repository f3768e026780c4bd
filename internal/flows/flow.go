// internal/flows/flow.go

// Package flows loads, stores, and executes YAML-defined test flows: ordered
// step sequences (navigate, sweep, form fill, clicks, checks) with
// per-step importance controlling what a failure does to the rest of the
// flow.
package flows

import (
	"fmt"
	"strings"
)

// Importance controls how a step failure affects the rest of the flow.
type Importance string

const (
	// ImportanceCritical aborts the flow on failure; remaining steps are
	// skipped.
	ImportanceCritical Importance = "critical"
	// ImportanceNormal records the failure and continues.
	ImportanceNormal Importance = "normal"
	// ImportanceOptional failures are logged only.
	ImportanceOptional Importance = "optional"
)

// Action is a step's operation.
type Action string

const (
	ActionNavigate     Action = "navigate"
	ActionSweep        Action = "sweep"
	ActionCheckLinks   Action = "check_links"
	ActionFillForm     Action = "fill_form"
	ActionClick        Action = "click"
	ActionWait         Action = "wait"
	ActionCheckElement Action = "check_element"
	ActionScreenshot   Action = "screenshot"
)

var knownActions = map[Action]struct{}{
	ActionNavigate: {}, ActionSweep: {}, ActionCheckLinks: {},
	ActionFillForm: {}, ActionClick: {}, ActionWait: {},
	ActionCheckElement: {}, ActionScreenshot: {},
}

// Step is one operation in a flow.
type Step struct {
	Name       string     `yaml:"name,omitempty"`
	Action     Action     `yaml:"action"`
	Importance Importance `yaml:"importance,omitempty"`

	// URL for navigate; relative values resolve against the flow target.
	URL string `yaml:"url,omitempty"`
	// Selector for click and check_element.
	Selector string `yaml:"selector,omitempty"`
	// Fields maps selectors to values for fill_form.
	Fields map[string]string `yaml:"fields,omitempty"`
	// Seconds for wait.
	Seconds float64 `yaml:"seconds,omitempty"`
	// Path for screenshot output.
	Path string `yaml:"path,omitempty"`
}

// Flow is a named, ordered step sequence.
type Flow struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Validate checks the flow is runnable.
func (f *Flow) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("flow name is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("flow %q has no steps", f.Name)
	}
	for i := range f.Steps {
		step := &f.Steps[i]
		if _, ok := knownActions[step.Action]; !ok {
			return fmt.Errorf("flow %q step %d: unknown action %q", f.Name, i+1, step.Action)
		}
		switch step.Importance {
		case "", ImportanceCritical, ImportanceNormal, ImportanceOptional:
		default:
			return fmt.Errorf("flow %q step %d: unknown importance %q", f.Name, i+1, step.Importance)
		}
		switch step.Action {
		case ActionNavigate:
			if step.URL == "" {
				return fmt.Errorf("flow %q step %d: navigate requires url", f.Name, i+1)
			}
		case ActionClick, ActionCheckElement:
			if step.Selector == "" {
				return fmt.Errorf("flow %q step %d: %s requires selector", f.Name, i+1, step.Action)
			}
		case ActionFillForm:
			if len(step.Fields) == 0 {
				return fmt.Errorf("flow %q step %d: fill_form requires fields", f.Name, i+1)
			}
		case ActionWait:
			if step.Seconds <= 0 {
				return fmt.Errorf("flow %q step %d: wait requires positive seconds", f.Name, i+1)
			}
		}
	}
	return nil
}

// importanceOf applies the default.
func importanceOf(s *Step) Importance {
	if s.Importance == "" {
		return ImportanceNormal
	}
	return s.Importance
}

// label names a step for logs and summaries.
func (s *Step) label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step %d (%s)", index+1, s.Action)
}
