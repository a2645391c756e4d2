package op

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const tolerance = 1e-9

// run compiles and runs the graph of the given output node, returning
// the value of the node
func run(t *testing.T, g *G.ExprGraph, out *G.Node) []float64 {
	t.Helper()

	var val G.Value
	G.Read(out, &val)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	switch data := val.Data().(type) {
	case []float64:
		return append([]float64(nil), data...)
	case float64:
		return []float64{data}
	default:
		t.Fatalf("unexpected value type %T", data)
		return nil
	}
}

func matrix(g *G.ExprGraph, rows, cols int, data []float64,
	name string) *G.Node {
	return G.NewMatrix(g, tensor.Float64, G.WithShape(rows, cols),
		G.WithName(name),
		G.WithValue(tensor.New(tensor.WithShape(rows, cols),
			tensor.WithBacking(data))))
}

// directEntropy computes the entropy of softmax(logits) without any
// stabilization
func directEntropy(logits []float64) float64 {
	z := 0.0
	for _, l := range logits {
		z += math.Exp(l)
	}
	h := 0.0
	for _, l := range logits {
		p := math.Exp(l) / z
		h -= p * math.Log(p)
	}
	return h
}

func TestCategoricalEntropy(t *testing.T) {
	logits := []float64{
		0, 0, 0,
		1, 2, 3,
		-4, 0.5, 10,
		5, 5, -5,
	}
	g := G.NewGraph()
	l := matrix(g, 4, 3, logits, "logits")
	entropy, err := CategoricalEntropy(l)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, entropy)

	for i := 0; i < 4; i++ {
		want := directEntropy(logits[i*3 : (i+1)*3])
		if math.Abs(want-have[i]) > tolerance {
			t.Errorf("row %d\n\twant(%v)\n\thave(%v)", i, want, have[i])
		}
		if have[i] < 0 || have[i] > math.Log(3)+tolerance {
			t.Errorf("row %d: entropy %v outside [0, log(3)]", i, have[i])
		}
	}

	// Uniform logits have maximal entropy
	if math.Abs(have[0]-math.Log(3)) > tolerance {
		t.Errorf("uniform entropy\n\twant(%v)\n\thave(%v)", math.Log(3),
			have[0])
	}
}

func TestCategoricalEntropyLargeLogits(t *testing.T) {
	g := G.NewGraph()
	l := matrix(g, 1, 2, []float64{1000, 1000}, "logits")
	entropy, err := CategoricalEntropy(l)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, entropy)

	if math.IsNaN(have[0]) || math.Abs(have[0]-math.Log(2)) > tolerance {
		t.Errorf("entropy of large logits\n\twant(%v)\n\thave(%v)",
			math.Log(2), have[0])
	}
}

func TestLogSoftmax(t *testing.T) {
	logits := []float64{1, 2, 3, -1, 0, 1}
	g := G.NewGraph()
	l := matrix(g, 2, 3, logits, "logits")
	logProbs, err := LogSoftmax(l)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, logProbs)

	for row := 0; row < 2; row++ {
		z := 0.0
		for _, v := range logits[row*3 : (row+1)*3] {
			z += math.Exp(v)
		}
		for col := 0; col < 3; col++ {
			i := row*3 + col
			want := logits[i] - math.Log(z)
			if math.Abs(want-have[i]) > tolerance {
				t.Errorf("index %d\n\twant(%v)\n\thave(%v)", i, want, have[i])
			}
		}
	}
}

func TestDiagGaussianLogPdf(t *testing.T) {
	mean := []float64{0, 1, -1, 2}
	actions := []float64{0.5, 0.5, -1, 3}
	logStd := []float64{-0.5, 0.2}

	g := G.NewGraph()
	m := matrix(g, 2, 2, mean, "mean")
	a := matrix(g, 2, 2, actions, "actions")
	s := G.NewVector(g, tensor.Float64, G.WithShape(2), G.WithName("logStd"),
		G.WithValue(tensor.New(tensor.WithBacking(logStd))))

	logPdf, err := DiagGaussianLogPdf(m, s, a)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, logPdf)

	for row := 0; row < 2; row++ {
		want := 0.0
		for col := 0; col < 2; col++ {
			i := row*2 + col
			z := (actions[i] - mean[i]) / math.Exp(logStd[col])
			want += z*z + 2*logStd[col] + math.Log(2*math.Pi)
		}
		want *= -0.5
		if math.Abs(want-have[row]) > tolerance {
			t.Errorf("row %d\n\twant(%v)\n\thave(%v)", row, want, have[row])
		}
	}
}

func TestDiagGaussianLogPdfShape(t *testing.T) {
	g := G.NewGraph()
	m := matrix(g, 1, 2, []float64{0, 0}, "mean")
	a := matrix(g, 1, 2, []float64{0, 0}, "actions")
	s := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("logStd"),
		G.WithInit(G.Zeroes()))

	if _, err := DiagGaussianLogPdf(m, s, a); err == nil {
		t.Error("expected error for log standard deviation of wrong length")
	}
}

func TestDiagGaussianEntropy(t *testing.T) {
	logStd := []float64{-0.5, -0.5, 1}
	g := G.NewGraph()
	s := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("logStd"),
		G.WithValue(tensor.New(tensor.WithBacking(logStd))))
	entropy, err := DiagGaussianEntropy(s)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, entropy)

	want := 0.0
	for _, v := range logStd {
		want += v + 0.5*math.Log(2*math.Pi*math.E)
	}
	if math.Abs(want-have[0]) > tolerance {
		t.Errorf("entropy\n\twant(%v)\n\thave(%v)", want, have[0])
	}
}

func TestMin(t *testing.T) {
	g := G.NewGraph()
	a := G.NewVector(g, tensor.Float64, G.WithShape(4), G.WithName("a"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{1, -2, 3, 0}))))
	b := G.NewVector(g, tensor.Float64, G.WithShape(4), G.WithName("b"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{2, -3, 3, -1}))))
	min, err := Min(a, b)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, min)

	want := []float64{1, -3, 3, -1}
	for i := range want {
		if want[i] != have[i] {
			t.Errorf("index %d\n\twant(%v)\n\thave(%v)", i, want[i], have[i])
		}
	}
}

func TestMinInfinite(t *testing.T) {
	g := G.NewGraph()
	a := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("a"),
		G.WithValue(tensor.New(tensor.WithBacking(
			[]float64{math.Inf(1), 1, math.Inf(-1)}))))
	b := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("b"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{1.2, 2, 4}))))
	min, err := Min(a, b)
	if err != nil {
		t.Fatal(err)
	}
	have := run(t, g, min)

	want := []float64{1.2, 1, math.Inf(-1)}
	for i := range want {
		if want[i] != have[i] {
			t.Errorf("index %d\n\twant(%v)\n\thave(%v)", i, want[i], have[i])
		}
	}
}

func TestMinMatrix(t *testing.T) {
	g := G.NewGraph()
	a := matrix(g, 2, 2, []float64{1, 5, -1, 0}, "a")
	b := matrix(g, 2, 2, []float64{2, 4, -2, 0.5}, "b")
	min, err := Min(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if shape := min.Shape(); shape[0] != 2 || shape[1] != 2 {
		t.Fatalf("shape\n\twant([2 2])\n\thave(%v)", shape)
	}
	have := run(t, g, min)

	want := []float64{1, 4, -2, 0}
	for i := range want {
		if want[i] != have[i] {
			t.Errorf("index %d\n\twant(%v)\n\thave(%v)", i, want[i], have[i])
		}
	}
}

func TestMinShapeMismatch(t *testing.T) {
	g := G.NewGraph()
	a := G.NewVector(g, tensor.Float64, G.WithShape(2), G.WithName("a"),
		G.WithInit(G.Zeroes()))
	b := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("b"),
		G.WithInit(G.Zeroes()))
	if _, err := Min(a, b); err == nil {
		t.Error("expected error for nodes of different shapes")
	}
}

func TestMinGrad(t *testing.T) {
	g := G.NewGraph()
	a := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("a"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{1, 5, -3}))))
	b := G.NewVector(g, tensor.Float64, G.WithShape(3), G.WithName("b"),
		G.WithValue(tensor.New(tensor.WithBacking([]float64{2, 4, -1}))))
	min, err := Min(a, b)
	if err != nil {
		t.Fatal(err)
	}
	loss := G.Must(G.Sum(min))
	if _, err := G.Grad(loss, a, b); err != nil {
		t.Fatal(err)
	}

	vm := G.NewTapeMachine(g, G.BindDualValues(a, b))
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	for _, c := range []struct {
		node *G.Node
		want []float64
	}{
		{a, []float64{1, 0, 1}},
		{b, []float64{0, 1, 0}},
	} {
		grad, err := c.node.Grad()
		if err != nil {
			t.Fatal(err)
		}
		have := grad.Data().([]float64)
		for i := range c.want {
			if c.want[i] != have[i] {
				t.Errorf("gradient of %v index %d\n\twant(%v)\n\thave(%v)",
					c.node.Name(), i, c.want[i], have[i])
			}
		}
	}
}
