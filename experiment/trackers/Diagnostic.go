// Package trackers implements Trackers that record the diagnostics of
// each update in an experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/goppo/agent/ppo"
	"github.com/samuelfneumann/goppo/experiment/tracker"
)

// Field extracts a single scalar from the Diagnostics of an update
type Field func(ppo.Diagnostics) float64

// Diagnostic fields that can be tracked
var (
	PolicyLoss    Field = func(d ppo.Diagnostics) float64 { return d.PolicyLoss }
	EntropyLoss   Field = func(d ppo.Diagnostics) float64 { return d.EntropyLoss }
	ApproxEntropy Field = func(d ppo.Diagnostics) float64 { return d.ApproxEntropy }
	ApproxKL      Field = func(d ppo.Diagnostics) float64 { return d.ApproxKL }
	ValueLoss     Field = func(d ppo.Diagnostics) float64 { return d.ValueLoss }
	PolicyIters   Field = func(d ppo.Diagnostics) float64 { return float64(d.PolicyIters) }
)

// Diagnostic tracks a single diagnostic over all updates of an
// experiment and saves the tracked values as a gob encoded []float64
// which can be read with tracker.LoadData.
type Diagnostic struct {
	field    Field
	values   []float64
	filename string
}

// NewDiagnostic creates and returns a new Diagnostic tracker of field
// which saves to filename
func NewDiagnostic(field Field, filename string) tracker.Tracker {
	return &Diagnostic{
		field:    field,
		filename: filename,
	}
}

// Track records the tracked field of d
func (t *Diagnostic) Track(_ int, d ppo.Diagnostics) {
	t.values = append(t.values, t.field(d))
}

// Save saves all tracked values to the tracker's file
func (t *Diagnostic) Save() error {
	file, err := os.Create(t.filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %w", err)
	}

	if err := gob.NewEncoder(file).Encode(t.values); err != nil {
		file.Close()
		return fmt.Errorf("save: could not encode data: %w", err)
	}
	return file.Close()
}
