package ppo

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goppo/network"
	"github.com/samuelfneumann/goppo/utils/op"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// gaussian is a diagonal Gaussian policy over continuous actions. The
// mean is predicted by a neural network and the log standard deviation
// is a learned vector shared by all states.
type gaussian struct {
	net        network.NeuralNet
	actionSize int

	logStd      *G.Node // A-vector, stepped along with the network
	actions     *G.Node // N × A input actions
	logProbNode *G.Node
	entropyNode *G.Node
}

func newGaussian(net network.NeuralNet, initLogStd float64) (*gaussian,
	error) {
	mean := net.Prediction()
	actionSize := net.Outputs()

	logStd := G.NewVector(
		net.Graph(),
		tensor.Float64,
		G.WithShape(actionSize),
		G.WithName("logStd"),
		G.WithInit(G.ValuesOf(initLogStd)),
	)
	actions := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithShape(mean.Shape()...),
		G.WithName("actions"),
		G.WithInit(G.Zeroes()),
	)

	logProb, err := op.DiagGaussianLogPdf(mean, logStd, actions)
	if err != nil {
		return nil, fmt.Errorf("newGaussian: %w", err)
	}

	// The entropy is the same for every state, so it is also the mean
	// entropy over the batch
	entropy, err := op.DiagGaussianEntropy(logStd)
	if err != nil {
		return nil, fmt.Errorf("newGaussian: %w", err)
	}

	return &gaussian{
		net:         net,
		actionSize:  actionSize,
		logStd:      logStd,
		actions:     actions,
		logProbNode: logProb,
		entropyNode: entropy,
	}, nil
}

func (g *gaussian) logProb() *G.Node             { return g.logProbNode }
func (g *gaussian) entropy() *G.Node             { return g.entropyNode }
func (g *gaussian) actionDims() int              { return g.actionSize }
func (g *gaussian) policyNet() network.NeuralNet { return g.net }

// learnables returns the learnables of the mean network followed by
// the log standard deviation
func (g *gaussian) learnables() G.Nodes {
	learnables := make(G.Nodes, 0, len(g.net.Learnables())+1)
	learnables = append(learnables, g.net.Learnables()...)
	return append(learnables, g.logStd)
}

func (g *gaussian) setActions(act []float64) error {
	shape := g.actions.Shape()
	if len(act) != shape[0]*shape[1] {
		return fmt.Errorf("setActions: illegal number of action values"+
			"\n\twant(%d)\n\thave(%d)", shape[0]*shape[1], len(act))
	}

	t := tensor.New(tensor.WithShape(shape...), tensor.WithBacking(act))
	return G.Let(g.actions, t)
}

// sample draws an action from the Gaussian with mean out and the
// current log standard deviation
func (g *gaussian) sample(out []float64, rng *rand.Rand) ([]float64,
	float64) {
	logStd := g.logStd.Value().Data().([]float64)
	variance := make([]float64, len(logStd))
	for i, l := range logStd {
		variance[i] = math.Exp(2 * l)
	}

	dist, ok := distmv.NewNormal(out, mat.NewDiagDense(len(variance),
		variance), rng)
	if !ok {
		// Only possible if the standard deviation underflows to zero
		return append([]float64(nil), out...), math.Inf(1)
	}

	action := dist.Rand(nil)
	return action, dist.LogProb(action)
}
