package initwfn

import (
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestNew(t *testing.T) {
	for _, name := range []string{"glorotu", "GlorotN", "HeU", "hen",
		"Zeroes", "ones", "constant"} {
		init, err := New(name, 1.0)
		if err != nil {
			t.Errorf("initializer %v: %v", name, err)
			continue
		}
		if init.InitWFn() == nil {
			t.Errorf("initializer %v: nil InitWFn", name)
		}
	}

	if _, err := New("orthogonal", 1.0); err == nil {
		t.Error("expected error for unknown initializer")
	}
}

func TestConstant(t *testing.T) {
	init, err := New("Constant", -0.5)
	if err != nil {
		t.Fatal(err)
	}

	g := G.NewGraph()
	n := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("c"),
		G.WithInit(init.InitWFn()))
	for i, v := range n.Value().Data().([]float64) {
		if v != -0.5 {
			t.Errorf("index %d\n\twant(%v)\n\thave(%v)", i, -0.5, v)
		}
	}
}
