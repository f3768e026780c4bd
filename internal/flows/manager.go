// internal/flows/manager.go
package flows

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manager stores flows as YAML files, one per flow, in a single directory.
type Manager struct {
	dir string
}

// NewManager builds a manager over dir, creating it when missing.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating flow directory %s: %w", dir, err)
	}
	return &Manager{dir: dir}, nil
}

// path maps a flow name to its file.
func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+".yaml")
}

// List returns the stored flow names, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("reading flow directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			names = append(names, strings.TrimSuffix(name, ".yaml"))
		} else if strings.HasSuffix(name, ".yml") {
			names = append(names, strings.TrimSuffix(name, ".yml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Load reads and validates one flow.
func (m *Manager) Load(name string) (*Flow, error) {
	data, err := os.ReadFile(m.path(name))
	if os.IsNotExist(err) {
		// Accept the .yml spelling too.
		data, err = os.ReadFile(filepath.Join(m.dir, name+".yml"))
	}
	if err != nil {
		return nil, fmt.Errorf("reading flow %q: %w", name, err)
	}

	var flow Flow
	if err := yaml.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("parsing flow %q: %w", name, err)
	}
	if flow.Name == "" {
		flow.Name = name
	}
	if err := flow.Validate(); err != nil {
		return nil, err
	}
	return &flow, nil
}

// Save validates and writes a flow.
func (m *Manager) Save(flow *Flow) error {
	if err := flow.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(flow)
	if err != nil {
		return fmt.Errorf("encoding flow %q: %w", flow.Name, err)
	}
	if err := os.WriteFile(m.path(flow.Name), data, 0o644); err != nil {
		return fmt.Errorf("writing flow %q: %w", flow.Name, err)
	}
	return nil
}

// Copy duplicates an existing flow under a new name.
func (m *Manager) Copy(src, dst string) error {
	flow, err := m.Load(src)
	if err != nil {
		return err
	}
	if _, err := os.Stat(m.path(dst)); err == nil {
		return fmt.Errorf("flow %q already exists", dst)
	}
	flow.Name = dst
	return m.Save(flow)
}

// Template writes a starter flow the user can edit.
func (m *Manager) Template(name string) (*Flow, error) {
	flow := &Flow{
		Name:        name,
		Description: "Example flow. Edit the steps to match your application.",
		Steps: []Step{
			{Action: ActionNavigate, URL: "/", Importance: ImportanceCritical},
			{Action: ActionSweep},
			{Action: ActionCheckLinks, Importance: ImportanceOptional},
			{Action: ActionClick, Selector: "#example-button", Importance: ImportanceNormal},
			{Action: ActionCheckElement, Selector: ".expected-result"},
		},
	}
	if err := m.Save(flow); err != nil {
		return nil, err
	}
	return flow, nil
}
