// Package op provides extended Gorgonia graph operations.
//
// Adapted from aunum/gold on GitHub
package op

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Min returns the element-wise min value between two nodes of the
// same shape. The nodes are stacked as the columns of a matrix and the
// min is taken as -max(-x) along the rows, so that infinite values are
// never multiplied by a zero mask. Gradients flow only to the selected
// element, or to both elements on ties.
func Min(a *G.Node, b *G.Node) (retVal *G.Node, err error) {
	if a.IsScalar() || !a.Shape().Eq(b.Shape()) {
		return nil, fmt.Errorf("min: illegal shapes %v and %v", a.Shape(),
			b.Shape())
	}
	shape := a.Shape().Clone()
	cols := tensor.Shape{shape.TotalSize(), 1}

	aCol, err := G.Reshape(a, cols)
	if err != nil {
		return nil, err
	}
	bCol, err := G.Reshape(b, cols)
	if err != nil {
		return nil, err
	}
	stacked, err := G.Concat(1, aCol, bCol)
	if err != nil {
		return nil, err
	}

	max, err := G.Max(G.Must(G.Neg(stacked)), 1)
	if err != nil {
		return nil, err
	}
	retVal, err = G.Neg(max)
	if err != nil {
		return nil, err
	}

	if shape.Dims() == 1 {
		return retVal, nil
	}
	return G.Reshape(retVal, shape)
}

// LogSumExp calculates the log of the summation of exponentials of
// all logits along the given axis of a matrix.
//
// Use this in place of Gorgonia's LogSumExp, which has the final sum
// and log interchanged, which is incorrect.
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// LogSoftmax returns the log of the softmax of each row of the
// batch × classes matrix logits.
func LogSoftmax(logits *G.Node) (*G.Node, error) {
	if !logits.IsMatrix() {
		return nil, fmt.Errorf("logSoftmax: logits must be a matrix")
	}
	lse := LogSumExp(logits, 1)
	return G.BroadcastSub(logits, lse, nil, []byte{1})
}

// CategoricalEntropy returns the Shannon entropy of the softmax
// distribution of each row of the batch × classes matrix logits.
//
// With a0 = logits - max(logits), z0 = Σ exp(a0) and p0 = exp(a0) / z0,
// the entropy of each row is Σ p0 (log(z0) - a0). Shifting by the row
// max keeps exp() from overflowing on large logits.
func CategoricalEntropy(logits *G.Node) (*G.Node, error) {
	if !logits.IsMatrix() {
		return nil, fmt.Errorf("categoricalEntropy: logits must be a matrix")
	}

	max := G.Must(G.Max(logits, 1))
	a0 := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	expA0 := G.Must(G.Exp(a0))
	z0 := G.Must(G.Sum(expA0, 1))
	p0 := G.Must(G.BroadcastHadamardDiv(expA0, z0, nil, []byte{1}))

	logZ0 := G.Must(G.Log(z0))
	surprise := G.Must(G.BroadcastSub(logZ0, a0, []byte{1}, nil))
	entropy := G.Must(G.HadamardProd(p0, surprise))

	return G.Sum(entropy, 1)
}

// DiagGaussianLogPdf calculates the log of the probability density
// function of actions drawn from a diagonal Gaussian distribution with
// mean mean and log standard deviation logStd.
//
// The mean and actions should be batch × dims matrices, and logStd
// a vector of length dims shared by every sample in the batch. The
// returned node is a vector holding, for each sample,
//
//	-0.5 * Σ [((a - μ) / exp(logσ))² + 2 logσ + log(2π)]
func DiagGaussianLogPdf(mean, logStd, actions *G.Node) (*G.Node, error) {
	graph := mean.Graph()
	if graph != logStd.Graph() || graph != actions.Graph() {
		return nil, fmt.Errorf("diagGaussianLogPdf: all nodes must share " +
			"the same graph")
	}
	if !logStd.IsVector() || logStd.Shape()[0] != mean.Shape()[1] {
		return nil, fmt.Errorf("diagGaussianLogPdf: log standard deviation "+
			"must be a vector of length %d", mean.Shape()[1])
	}

	negativeHalf := G.NewConstant(-0.5)
	two := G.NewConstant(2.0)
	log2Pi := G.NewConstant(math.Log(2 * math.Pi))

	std := G.Must(G.Exp(logStd))
	diff := G.Must(G.Sub(actions, mean))
	z := G.Must(G.BroadcastHadamardDiv(diff, std, nil, []byte{0}))
	terms := G.Must(G.Square(z))

	twoLogStd := G.Must(G.Mul(two, logStd))
	terms = G.Must(G.BroadcastAdd(terms, twoLogStd, nil, []byte{0}))
	terms = G.Must(G.Add(terms, log2Pi))

	sum := G.Must(G.Sum(terms, 1))
	return G.Mul(sum, negativeHalf)
}

// DiagGaussianEntropy returns the scalar entropy Σ (logσ + 0.5 log(2πe))
// of a diagonal Gaussian distribution with log standard deviation
// logStd. The entropy does not depend on the mean.
func DiagGaussianEntropy(logStd *G.Node) (*G.Node, error) {
	halfLog2PiE := G.NewConstant(0.5 * math.Log(2*math.Pi*math.E))
	entropy, err := G.Add(logStd, halfLog2PiE)
	if err != nil {
		return nil, err
	}
	return G.Sum(entropy)
}
