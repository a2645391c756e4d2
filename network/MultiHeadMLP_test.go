package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

func TestNewMultiHeadMLPShapes(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMultiHeadMLP(3, 5, 2, g, []int{4, 6}, []bool{true, false},
		G.GlorotU(1.0), []*Activation{TanH(), ReLU()})
	if err != nil {
		t.Fatal(err)
	}

	if shape := net.Prediction().Shape(); shape[0] != 5 || shape[1] != 2 {
		t.Errorf("prediction shape\n\twant([5 2])\n\thave(%v)", shape)
	}

	// Two hidden weight matrices, one hidden bias, final weights and bias
	if n := len(net.Learnables()); n != 5 {
		t.Errorf("learnables\n\twant(5)\n\thave(%v)", n)
	}
	if n := len(net.Model()); n != len(net.Learnables()) {
		t.Errorf("model\n\twant(%v)\n\thave(%v)", len(net.Learnables()), n)
	}
}

func TestNewMultiHeadMLPErrors(t *testing.T) {
	_, err := NewMultiHeadMLP(3, 1, 2, G.NewGraph(), []int{4}, []bool{true},
		G.Zeroes(), nil)
	if err == nil {
		t.Error("expected error for missing activations")
	}

	_, err = NewMultiHeadMLP(3, 1, 2, G.NewGraph(), []int{4}, nil,
		G.Zeroes(), []*Activation{TanH()})
	if err == nil {
		t.Error("expected error for missing biases")
	}

	_, err = NewMultiHeadMLP(0, 1, 2, G.NewGraph(), nil, nil, G.Zeroes(), nil)
	if err == nil {
		t.Error("expected error for zero features")
	}
}

func TestMultiHeadMLPForward(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMultiHeadMLP(2, 2, 1, g, nil, nil, G.Ones(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := net.SetInput([]float64{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := net.SetInput([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for wrong input length")
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	// All weights one and a zero bias: each output is the row sum
	want := []float64{3, 7}
	have := net.Output().Data().([]float64)
	for i := range want {
		if math.Abs(want[i]-have[i]) > 1e-12 {
			t.Errorf("output %d\n\twant(%v)\n\thave(%v)", i, want[i], have[i])
		}
	}
}

func TestActivationFromName(t *testing.T) {
	for _, name := range []string{"relu", "TanH", "sigmoid", "identity"} {
		if _, err := ActivationFromName(name); err != nil {
			t.Errorf("activation %v: %v", name, err)
		}
	}
	if _, err := ActivationFromName("softplus"); err == nil {
		t.Error("expected error for unknown activation")
	}
}
