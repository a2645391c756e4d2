package ppo

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goppo/network"
	"github.com/samuelfneumann/goppo/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// categorical is a softmax policy over a discrete set of actions whose
// logits are predicted by a neural network
type categorical struct {
	net        network.NeuralNet
	numActions int

	actionIndices *G.Node // N × A one-hot encoding of input actions
	logProbNode   *G.Node
	entropyNode   *G.Node
}

func newCategorical(net network.NeuralNet) (*categorical, error) {
	logits := net.Prediction()
	numActions := net.Outputs()

	logProbs, err := op.LogSoftmax(logits)
	if err != nil {
		return nil, fmt.Errorf("newCategorical: %w", err)
	}

	actionIndices := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithShape(logits.Shape()...),
		G.WithName("actionIndices"),
		G.WithInit(G.Zeroes()),
	)
	logProb := G.Must(G.HadamardProd(actionIndices, logProbs))
	logProb = G.Must(G.Sum(logProb, 1))

	entropy, err := op.CategoricalEntropy(logits)
	if err != nil {
		return nil, fmt.Errorf("newCategorical: %w", err)
	}
	entropy = G.Must(G.Mean(entropy))

	return &categorical{
		net:           net,
		numActions:    numActions,
		actionIndices: actionIndices,
		logProbNode:   logProb,
		entropyNode:   entropy,
	}, nil
}

func (c *categorical) logProb() *G.Node             { return c.logProbNode }
func (c *categorical) entropy() *G.Node             { return c.entropyNode }
func (c *categorical) learnables() G.Nodes          { return c.net.Learnables() }
func (c *categorical) actionDims() int              { return 1 }
func (c *categorical) policyNet() network.NeuralNet { return c.net }

// setActions one-hot encodes the action indices act
func (c *categorical) setActions(act []float64) error {
	batch := c.actionIndices.Shape()[0]
	if len(act) != batch {
		return fmt.Errorf("setActions: illegal number of actions\n\twant(%d)"+
			"\n\thave(%d)", batch, len(act))
	}

	indices := make([]float64, batch*c.numActions)
	for i, a := range act {
		if a < 0 || int(a) >= c.numActions {
			return fmt.Errorf("setActions: action %v out of range [0, %d)",
				a, c.numActions)
		}
		indices[i*c.numActions+int(a)] = 1.0
	}

	t := tensor.New(tensor.WithShape(batch, c.numActions),
		tensor.WithBacking(indices))
	return G.Let(c.actionIndices, t)
}

// sample draws an action index from the softmax of the logits out
func (c *categorical) sample(out []float64, rng *rand.Rand) ([]float64,
	float64) {
	logProbs := logSoftmax(out)
	probs := make([]float64, len(logProbs))
	for i := range logProbs {
		probs[i] = math.Exp(logProbs[i])
	}

	action := int(distuv.NewCategorical(probs, rng).Rand())
	return []float64{float64(action)}, logProbs[action]
}

// logSoftmax returns the log of the softmax of logits
func logSoftmax(logits []float64) []float64 {
	lse := floats.LogSumExp(logits)
	logProbs := make([]float64, len(logits))
	for i, l := range logits {
		logProbs[i] = l - lse
	}
	return logProbs
}
