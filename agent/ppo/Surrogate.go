package ppo

import (
	"fmt"

	"github.com/samuelfneumann/goppo/network"
	"github.com/samuelfneumann/goppo/rollout"
	"github.com/samuelfneumann/goppo/utils/op"
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// surrogate is a policy distribution built on the graph of a training
// policy network. It computes the log probability of a batch of input
// actions and the mean entropy of the distribution over the batch.
//
// A surrogate also samples actions from the distribution given the
// output of a behaviour network for a single observation.
type surrogate interface {
	// logProb returns the N-vector node of log probabilities of the
	// input actions under the training policy
	logProb() *G.Node

	// entropy returns the scalar node of the mean entropy over the batch
	entropy() *G.Node

	// setActions sets the input actions of the batch, row major
	setActions(act []float64) error

	// learnables returns all nodes stepped by the policy solver
	learnables() G.Nodes

	// sample draws an action given the output of the behaviour network
	// for a single observation and returns it along with its log
	// probability under the current policy
	sample(out []float64, rng *rand.Rand) ([]float64, float64)

	// actionDims returns the length of a single action in a batch
	actionDims() int

	// policyNet returns the training policy network
	policyNet() network.NeuralNet
}

// policyStats holds the diagnostics of a single policy gradient step,
// computed with the weights before the step was taken
type policyStats struct {
	loss          float64
	entropy       float64
	approxEntropy float64
	approxKL      float64
}

// clippedObjective is the PPO clipped surrogate objective together
// with its approximate KL divergence and entropy diagnostics
type clippedObjective struct {
	clipRatio float64

	oldLogProb *G.Node // N-vector, log probabilities at collection time
	adv        *G.Node // N-vector, advantages
	clippedAdv *G.Node // N-vector, (1 ± ε) * advantages

	loss *G.Node

	lossVal          G.Value
	entropyVal       G.Value
	approxEntropyVal G.Value
	approxKLVal      G.Value
}

// newClippedObjective adds the clipped surrogate objective of s to the
// graph of s. The loss to minimize is
//
//	-mean(min(ratio * adv, clip(ratio, 1-ε, 1+ε) * adv)) - entCoef * H
//
// where ratio = exp(logp - oldLogp) and H is the mean entropy.
func newClippedObjective(s surrogate, clipRatio,
	entCoef float64) (*clippedObjective, error) {
	logProb := s.logProb()
	g := logProb.Graph()
	n := logProb.Shape()[0]

	vector := func(name string) *G.Node {
		return G.NewVector(g, tensor.Float64, G.WithShape(n), G.WithName(name),
			G.WithInit(G.Zeroes()))
	}
	oldLogProb := vector("oldLogProb")
	adv := vector("advantages")
	clippedAdv := vector("clippedAdvantages")

	ratio := G.Must(G.Exp(G.Must(G.Sub(logProb, oldLogProb))))
	surr := G.Must(G.HadamardProd(ratio, adv))
	surr, err := op.Min(surr, clippedAdv)
	if err != nil {
		return nil, fmt.Errorf("newClippedObjective: could not clip "+
			"surrogate: %w", err)
	}
	loss := G.Must(G.Neg(G.Must(G.Mean(surr))))

	entropy := s.entropy()
	bonus := G.Must(G.Mul(G.NewConstant(entCoef), entropy))
	loss = G.Must(G.Sub(loss, bonus))

	approxKL := G.Must(G.Mean(G.Must(G.Sub(oldLogProb, logProb))))
	approxEntropy := G.Must(G.Mean(G.Must(G.Neg(logProb))))

	obj := &clippedObjective{
		clipRatio:  clipRatio,
		oldLogProb: oldLogProb,
		adv:        adv,
		clippedAdv: clippedAdv,
		loss:       loss,
	}
	G.Read(loss, &obj.lossVal)
	G.Read(entropy, &obj.entropyVal)
	G.Read(approxEntropy, &obj.approxEntropyVal)
	G.Read(approxKL, &obj.approxKLVal)

	return obj, nil
}

// set sets the old log probabilities and advantages of the batch.
// Advantages are data, so their clipped counterpart is computed here
// rather than on the graph.
func (c *clippedObjective) set(b rollout.Batch) error {
	clipped := make([]float64, len(b.Adv))
	for i, adv := range b.Adv {
		if adv > 0 {
			clipped[i] = (1 + c.clipRatio) * adv
		} else {
			clipped[i] = (1 - c.clipRatio) * adv
		}
	}

	inputs := []struct {
		node *G.Node
		data []float64
	}{
		{c.oldLogProb, b.LogProb},
		{c.adv, b.Adv},
		{c.clippedAdv, clipped},
	}
	for _, in := range inputs {
		t := tensor.New(tensor.WithShape(in.node.Shape()...),
			tensor.WithBacking(in.data))
		if err := G.Let(in.node, t); err != nil {
			return fmt.Errorf("set: could not set %v: %w", in.node.Name(), err)
		}
	}
	return nil
}

// stats returns the diagnostics of the last forward pass
func (c *clippedObjective) stats() (policyStats, error) {
	var s policyStats
	values := []struct {
		dest *float64
		val  G.Value
	}{
		{&s.loss, c.lossVal},
		{&s.entropy, c.entropyVal},
		{&s.approxEntropy, c.approxEntropyVal},
		{&s.approxKL, c.approxKLVal},
	}
	for _, v := range values {
		f, err := scalar(v.val)
		if err != nil {
			return policyStats{}, fmt.Errorf("stats: %w", err)
		}
		*v.dest = f
	}
	return s, nil
}

// scalar returns the single float64 held by v
func scalar(v G.Value) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("scalar: value not computed")
	}
	switch data := v.Data().(type) {
	case float64:
		return data, nil
	case []float64:
		if len(data) == 1 {
			return data[0], nil
		}
	}
	return 0, fmt.Errorf("scalar: value of shape %v is not a scalar",
		v.Shape())
}

// values returns a copy of the float64 data held by v
func values(v G.Value) ([]float64, error) {
	if v == nil {
		return nil, fmt.Errorf("values: value not computed")
	}
	switch data := v.Data().(type) {
	case float64:
		return []float64{data}, nil
	case []float64:
		return append([]float64(nil), data...), nil
	}
	return nil, fmt.Errorf("values: unexpected data type %T", v.Data())
}
