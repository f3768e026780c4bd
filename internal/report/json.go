// internal/report/json.go
package report

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/karavela/qasweep/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONWriter emits the raw run for machine consumption, with the computed
// interaction summary attached.
type JSONWriter struct{}

func (j *JSONWriter) Ext() string { return "json" }

type jsonEnvelope struct {
	*schemas.SweepResult
	Summary schemas.InteractionSummary `json:"summary"`
}

func (j *JSONWriter) Write(w io.Writer, run *schemas.SweepResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonEnvelope{SweepResult: run, Summary: run.Summary()})
}
