// internal/flows/manager_test.go
package flows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSaveLoadRoundTrip(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	flow := &Flow{
		Name:        "checkout",
		Description: "Add to cart and check out.",
		Steps: []Step{
			{Action: ActionNavigate, URL: "/cart", Importance: ImportanceCritical},
			{Action: ActionFillForm, Fields: map[string]string{"input[name=qty]": "2"}},
			{Action: ActionClick, Selector: "#checkout"},
			{Action: ActionCheckElement, Selector: ".order-confirmation"},
		},
	}
	require.NoError(t, m.Save(flow))

	loaded, err := m.Load("checkout")
	require.NoError(t, err)
	assert.Equal(t, flow.Name, loaded.Name)
	require.Len(t, loaded.Steps, 4)
	assert.Equal(t, ActionFillForm, loaded.Steps[1].Action)
	assert.Equal(t, "2", loaded.Steps[1].Fields["input[name=qty]"])
}

func TestManagerListSorted(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, m.Save(&Flow{
			Name:  name,
			Steps: []Step{{Action: ActionSweep}},
		}))
	}

	names, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestManagerCopy(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, m.Save(&Flow{Name: "orig", Steps: []Step{{Action: ActionSweep}}}))

	require.NoError(t, m.Copy("orig", "clone"))

	clone, err := m.Load("clone")
	require.NoError(t, err)
	assert.Equal(t, "clone", clone.Name)
	assert.Len(t, clone.Steps, 1)

	assert.Error(t, m.Copy("orig", "clone"), "copy must not overwrite")
}

func TestManagerTemplateIsValid(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	flow, err := m.Template("starter")
	require.NoError(t, err)
	assert.NoError(t, flow.Validate())

	loaded, err := m.Load("starter")
	require.NoError(t, err)
	assert.NotEmpty(t, loaded.Steps)
}

func TestManagerLoadRejectsInvalidFlows(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.Load("missing")
	assert.Error(t, err)
}

func TestFlowValidate(t *testing.T) {
	tests := []struct {
		name string
		flow Flow
	}{
		{"no steps", Flow{Name: "empty"}},
		{"unknown action", Flow{Name: "f", Steps: []Step{{Action: "explode"}}}},
		{"navigate without url", Flow{Name: "f", Steps: []Step{{Action: ActionNavigate}}}},
		{"click without selector", Flow{Name: "f", Steps: []Step{{Action: ActionClick}}}},
		{"fill_form without fields", Flow{Name: "f", Steps: []Step{{Action: ActionFillForm}}}},
		{"wait without seconds", Flow{Name: "f", Steps: []Step{{Action: ActionWait}}}},
		{"bad importance", Flow{Name: "f", Steps: []Step{{Action: ActionSweep, Importance: "mandatory"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.flow.Validate())
		})
	}
}
