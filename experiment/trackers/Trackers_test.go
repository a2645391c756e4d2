package trackers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelfneumann/goppo/agent/ppo"
	"github.com/samuelfneumann/goppo/experiment/tracker"
)

func TestDiagnostic(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "kl.bin")
	tr := NewDiagnostic(ApproxKL, filename)

	want := []float64{0.001, 0.02, 0.005}
	for i, kl := range want {
		tr.Track(i+1, ppo.Diagnostics{ApproxKL: kl, PolicyLoss: -1})
	}
	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}

	have, err := tracker.LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(have) != len(want) {
		t.Fatalf("length\n\twant(%d)\n\thave(%d)", len(want), len(have))
	}
	for i := range want {
		if want[i] != have[i] {
			t.Errorf("index %d\n\twant(%v)\n\thave(%v)", i, want[i], have[i])
		}
	}
}

func TestChart(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "losses.html")
	tr := NewChart("losses", filename,
		Series{Name: "policy loss", Field: PolicyLoss},
		Series{Name: "value loss", Field: ValueLoss},
	)

	for i := 1; i <= 3; i++ {
		tr.Track(i, ppo.Diagnostics{PolicyLoss: float64(-i), ValueLoss: 1})
	}
	if err := tr.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"policy loss", "value loss"} {
		if !strings.Contains(string(data), name) {
			t.Errorf("chart does not contain series %q", name)
		}
	}
}

func TestLoadDataMissing(t *testing.T) {
	if _, err := tracker.LoadData(filepath.Join(t.TempDir(), "none")); err == nil {
		t.Error("expected error for missing file")
	}
}
