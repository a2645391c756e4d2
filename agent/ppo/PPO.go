// Package ppo implements the learning core of Proximal Policy
// Optimization with a clipped surrogate objective, an entropy bonus,
// approximate KL early stopping, and a state value baseline. This
// implementation is adapted from:
//
// https://spinningup.openai.com/en/latest/algorithms/ppo.html
package ppo

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/samuelfneumann/goppo/agent"
	"github.com/samuelfneumann/goppo/initwfn"
	"github.com/samuelfneumann/goppo/network"
	"github.com/samuelfneumann/goppo/rollout"
	"github.com/samuelfneumann/goppo/solver"
	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Diagnostics holds the scalar outputs of a single call to Update. The
// policy diagnostics are those of the last policy gradient step taken
// and ValueLoss is that of the last value gradient step, each computed
// before its step was applied.
type Diagnostics struct {
	PolicyLoss    float64
	EntropyLoss   float64
	ApproxEntropy float64
	ApproxKL      float64
	ValueLoss     float64

	PolicyIters  int  // Policy gradient steps taken
	ValueIters   int  // Value gradient steps taken
	StoppedEarly bool // Whether the KL threshold ended policy training
}

// PPO is the policy container. It owns a policy network (and for
// Gaussian policies a learned log standard deviation), a state value
// network, and one solver for each.
//
// Each network exists twice: a training copy compiled for batches of
// Config.BatchSize transitions, and a behaviour copy compiled for a
// single observation which is used to select actions. Behaviour copies
// are synced to the training copies after every update and load.
//
// A PPO is not safe for concurrent use.
type PPO struct {
	config Config
	logger logr.Logger
	rng    *rand.Rand

	// Policy
	policy            surrogate
	objective         *clippedObjective
	trainPolicyVM     G.VM
	trainPolicySolver G.Solver
	trainPolicyModel  []G.ValueGrad
	behaviour         network.NeuralNet
	behaviourVM       G.VM

	// State value critic
	vValueFn             network.NeuralNet
	vVM                  G.VM
	vTrainValueFn        network.NeuralNet
	vTrainValueFnVM      G.VM
	vTrainValueFnTargets *G.Node
	vTrainValueFnLoss    *G.Value // Written by the VM
	vSolver              G.Solver
}

var _ agent.Checkpointable = (*PPO)(nil)

// ErrBatchSize is returned by Update when a batch does not hold
// exactly Config.BatchSize transitions
var ErrBatchSize = errors.New("batch size differs from Config.BatchSize")

// New creates and returns a new PPO agent. Log lines are written to
// logger.
func New(c Config, logger logr.Logger) (*PPO, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	c.PolicyLayers = append([]int(nil), c.PolicyLayers...)
	c.ValueLayers = append([]int(nil), c.ValueLayers...)

	if logger.GetSink() == nil {
		logger = logr.Discard()
	}

	weightInit, err := initwfn.New(c.InitWFn, c.InitGain)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	act, err := network.ActivationFromName(c.Activation)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	hidden := func(layers []int) ([]bool, []*network.Activation) {
		biases := make([]bool, len(layers))
		activations := make([]*network.Activation, len(layers))
		for i := range layers {
			biases[i] = true
			activations[i] = act
		}
		return biases, activations
	}
	newPolicyNet := func(batch int) (network.NeuralNet, error) {
		biases, activations := hidden(c.PolicyLayers)
		return network.NewMultiHeadMLP(c.Features, batch, c.NumActions,
			G.NewGraph(), c.PolicyLayers, biases, weightInit.InitWFn(),
			activations)
	}
	newValueFn := func(batch int) (network.NeuralNet, error) {
		biases, activations := hidden(c.ValueLayers)
		return network.NewSingleHeadMLP(c.Features, batch, G.NewGraph(),
			c.ValueLayers, biases, weightInit.InitWFn(), activations)
	}

	// Policy networks
	trainPolicyNet, err := newPolicyNet(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %w", err)
	}
	behaviour, err := newPolicyNet(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %w",
			err)
	}
	if err := network.Set(behaviour, trainPolicyNet); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	var policy surrogate
	switch c.Policy {
	case agent.Categorical:
		policy, err = newCategorical(trainPolicyNet)
	case agent.Gaussian:
		policy, err = newGaussian(trainPolicyNet, c.InitLogStd)
	}
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	objective, err := newClippedObjective(policy, c.ClipRatio, c.EntCoef)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if _, err := G.Grad(objective.loss, policy.learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute policy gradient: %w",
			err)
	}
	trainPolicyVM := G.NewTapeMachine(trainPolicyNet.Graph(),
		G.BindDualValues(policy.learnables()...))

	policySolver, err := solver.New(c.Solver, c.PolicyLR, 1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy solver: %w", err)
	}

	// Value function networks
	trainValueFn, err := newValueFn(c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create value function: %w",
			err)
	}
	valueFn, err := newValueFn(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create value function: %w",
			err)
	}
	if err := network.Set(valueFn, trainValueFn); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	trainValueFnTargets := G.NewMatrix(
		trainValueFn.Graph(),
		tensor.Float64,
		G.WithShape(trainValueFn.Prediction().Shape()...),
		G.WithName("valueTargets"),
		G.WithInit(G.Zeroes()),
	)
	valueFnLoss := G.Must(G.Sub(trainValueFnTargets, trainValueFn.Prediction()))
	valueFnLoss = G.Must(G.Square(valueFnLoss))
	valueFnLoss = G.Must(G.Mean(valueFnLoss))
	var valueFnLossVal G.Value
	G.Read(valueFnLoss, &valueFnLossVal)

	if _, err := G.Grad(valueFnLoss, trainValueFn.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute value gradient: %w",
			err)
	}
	trainValueFnVM := G.NewTapeMachine(trainValueFn.Graph(),
		G.BindDualValues(trainValueFn.Learnables()...))

	valueSolver, err := solver.New(c.Solver, c.ValueLR, 1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create value solver: %w", err)
	}

	p := &PPO{
		config: c,
		logger: logger,
		rng:    rand.New(rand.NewSource(c.Seed)),

		policy:            policy,
		objective:         objective,
		trainPolicyVM:     trainPolicyVM,
		trainPolicySolver: policySolver,
		trainPolicyModel:  network.ValueGrads(policy.learnables()),
		behaviour:         behaviour,
		behaviourVM:       G.NewTapeMachine(behaviour.Graph()),

		vValueFn:             valueFn,
		vVM:                  G.NewTapeMachine(valueFn.Graph()),
		vTrainValueFn:        trainValueFn,
		vTrainValueFnVM:      trainValueFnVM,
		vTrainValueFnTargets: trainValueFnTargets,
		vTrainValueFnLoss:    &valueFnLossVal,
		vSolver:              valueSolver,
	}

	return p, nil
}

// Config returns a copy of the hyperparameters of the agent
func (p *PPO) Config() Config {
	c := p.config
	c.PolicyLayers = append([]int(nil), c.PolicyLayers...)
	c.ValueLayers = append([]int(nil), c.ValueLayers...)
	return c
}

// Update updates the policy and value function on the batch b.
//
// Precondition: b holds exactly Config.BatchSize transitions. The
// training graphs are compiled for that batch size in New, so any other
// size is rejected with an error wrapping ErrBatchSize and the agent is
// left unchanged.
//
// Up to TrainPiIters policy gradient steps are taken, stopping early
// once the approximate KL divergence from the data-collecting policy
// exceeds 1.5 * TargetKL. Then TrainVIters value gradient steps are
// taken.
//
// Numerical degeneracy is not masked: NaN or Inf losses are returned
// in the Diagnostics without error.
func (p *PPO) Update(b rollout.Batch) (Diagnostics, error) {
	discrete := 0
	if p.config.Policy.Discrete() {
		discrete = p.config.NumActions
	}
	if err := b.Validate(p.config.Features, p.policy.actionDims(),
		discrete); err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}
	if b.Len() != p.config.BatchSize {
		return Diagnostics{}, fmt.Errorf("update: %w\n\twant(%d)\n\thave(%d)",
			ErrBatchSize, p.config.BatchSize, b.Len())
	}

	// The batch is fixed over all gradient steps
	if err := p.policy.policyNet().SetInput(b.Obs); err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}
	if err := p.policy.setActions(b.Act); err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}
	if err := p.objective.set(b); err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}
	if err := p.vTrainValueFn.SetInput(b.Obs); err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}
	targets := tensor.New(
		tensor.WithShape(p.vTrainValueFnTargets.Shape()...),
		tensor.WithBacking(b.Ret),
	)
	if err := G.Let(p.vTrainValueFnTargets, targets); err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}

	maxKL := 1.5 * p.config.TargetKL
	stats, piIters, stopped, err := trainPolicy(p.config.TrainPiIters, maxKL,
		p.policyStep)
	if err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}
	if stopped {
		p.logger.Info("early stopping at step due to reaching max kl",
			"step", piIters-1, "kl", stats.approxKL, "maxKL", maxKL)
	}

	valueLoss, err := trainValue(p.config.TrainVIters, p.valueStep)
	if err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}

	if err := p.sync(); err != nil {
		return Diagnostics{}, fmt.Errorf("update: %w", err)
	}

	return Diagnostics{
		PolicyLoss:    stats.loss,
		EntropyLoss:   stats.entropy,
		ApproxEntropy: stats.approxEntropy,
		ApproxKL:      stats.approxKL,
		ValueLoss:     valueLoss,
		PolicyIters:   piIters,
		ValueIters:    p.config.TrainVIters,
		StoppedEarly:  stopped,
	}, nil
}

// policyStep takes a single gradient step on the clipped surrogate
// objective of the current batch
func (p *PPO) policyStep() (policyStats, error) {
	defer p.trainPolicyVM.Reset()
	if err := p.trainPolicyVM.RunAll(); err != nil {
		return policyStats{}, fmt.Errorf("policyStep: could not run "+
			"policy: %w", err)
	}

	stats, err := p.objective.stats()
	if err != nil {
		return policyStats{}, fmt.Errorf("policyStep: %w", err)
	}

	if err := p.trainPolicySolver.Step(p.trainPolicyModel); err != nil {
		return policyStats{}, fmt.Errorf("policyStep: could not step "+
			"policy: %w", err)
	}
	return stats, nil
}

// valueStep takes a single gradient step on the mean squared error
// between the value predictions and returns of the current batch
func (p *PPO) valueStep() (float64, error) {
	defer p.vTrainValueFnVM.Reset()
	if err := p.vTrainValueFnVM.RunAll(); err != nil {
		return 0, fmt.Errorf("valueStep: could not run value function: %w",
			err)
	}

	loss, err := scalar(*p.vTrainValueFnLoss)
	if err != nil {
		return 0, fmt.Errorf("valueStep: %w", err)
	}

	if err := p.vSolver.Step(p.vTrainValueFn.Model()); err != nil {
		return 0, fmt.Errorf("valueStep: could not step value function: %w",
			err)
	}
	return loss, nil
}

// sync sets the weights of the behaviour policy and prediction value
// function to those of their training copies
func (p *PPO) sync() error {
	if err := network.Set(p.behaviour, p.policy.policyNet()); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := network.Set(p.vValueFn, p.vTrainValueFn); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

// Act samples an action for the observation obs from the current
// policy and returns it together with its log probability and the
// predicted state value of obs. For categorical policies the action
// holds a single action index.
func (p *PPO) Act(obs []float64) ([]float64, float64, float64, error) {
	out, err := forward(p.behaviour, p.behaviourVM, obs)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("act: could not run policy: %w", err)
	}
	action, logProb := p.policy.sample(out, p.rng)

	value, err := forward(p.vValueFn, p.vVM, obs)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("act: could not run value function: %w",
			err)
	}

	return action, logProb, value[0], nil
}

// forward runs a network with batch size 1 on obs
func forward(net network.NeuralNet, vm G.VM, obs []float64) ([]float64,
	error) {
	if err := net.SetInput(obs); err != nil {
		return nil, err
	}
	defer vm.Reset()
	if err := vm.RunAll(); err != nil {
		return nil, err
	}
	return values(net.Output())
}

// Close releases the resources held by the virtual machines of the
// agent
func (p *PPO) Close() error {
	for _, vm := range []G.VM{p.trainPolicyVM, p.behaviourVM,
		p.vTrainValueFnVM, p.vVM} {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	return nil
}
