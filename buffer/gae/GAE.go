// Package gae implements a buffer that collects trajectories and
// computes generalized advantage estimates for them
package gae

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/goppo/rollout"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Buffer implements a forward view generalized advantage estimate -
// GAE(λ) - buffer following https://arxiv.org/abs/1506.02438. Along
// with each transition the buffer stores the log probability of the
// action under the policy that selected it, so that the rollout
// batches it produces can be used to update a PPO agent. This
// implementation is adapted from:
//
// https://github.com/openai/spinningup/tree/master/spinup/algos/tf1/ppo
type Buffer struct {
	obsSize    int // Size of state observations
	actionSize int // Number of action dimensions
	maxSize    int // Max buffer size

	currentPos   int // Current position in the buffer
	pathStartIdx int // Position in the buffer where current trajectory starts

	lambda float64 // λ for GAE(λ) calculation
	gamma  float64 // Discount factor ℽ

	obsBuffer  []float64
	actBuffer  []float64
	advBuffer  []float64
	rewBuffer  []float64
	retBuffer  []float64
	valBuffer  []float64
	logpBuffer []float64
}

// New creates and returns a new GAE(λ) buffer holding size transitions
func New(obsDim, actDim, size int, lambda, gamma float64) (*Buffer, error) {
	if obsDim < 1 || actDim < 1 || size < 1 {
		return nil, fmt.Errorf("new: observation dimensions (%d), action "+
			"dimensions (%d) and size (%d) must be positive", obsDim, actDim,
			size)
	}
	if lambda < 0 || lambda > 1 || gamma < 0 || gamma > 1 {
		return nil, fmt.Errorf("new: λ (%v) and ℽ (%v) must be in [0, 1]",
			lambda, gamma)
	}

	return &Buffer{
		obsSize:    obsDim,
		actionSize: actDim,
		maxSize:    size,
		lambda:     lambda,
		gamma:      gamma,
		obsBuffer:  make([]float64, size*obsDim),
		actBuffer:  make([]float64, size*actDim),
		advBuffer:  make([]float64, size),
		rewBuffer:  make([]float64, size),
		retBuffer:  make([]float64, size),
		valBuffer:  make([]float64, size),
		logpBuffer: make([]float64, size),
	}, nil
}

// Store stores a single timestep state, action, reward, value, and log
// probability of the action to the Buffer.
func (v *Buffer) Store(obs, act []float64, rew, val, logp float64) error {
	if v.currentPos >= v.maxSize {
		return fmt.Errorf("store: cannot add new transition, buffer at " +
			"maximum capacity")
	}
	if len(obs) != v.obsSize {
		return fmt.Errorf("store: illegal obs length \n\twant(%v)\n\thave(%v)",
			v.obsSize, len(obs))
	}
	if len(act) != v.actionSize {
		return fmt.Errorf("store: illegal act length \n\twant(%v)\n\thave(%v)",
			v.actionSize, len(act))
	}

	start := v.currentPos * v.obsSize
	copy(v.obsBuffer[start:start+v.obsSize], obs)

	start = v.currentPos * v.actionSize
	copy(v.actBuffer[start:start+v.actionSize], act)

	v.rewBuffer[v.currentPos] = rew
	v.valBuffer[v.currentPos] = val
	v.logpBuffer[v.currentPos] = logp
	v.currentPos++
	return nil
}

// FinishPath computes advantage estimates using GAE(λ) and
// rewards-to-go estimates for each state of the current trajectory.
// This should be called at the end of a trajectory or when one gets
// cut off by the buffer filling up.
//
// The lastVal argument should be 0 if the trajectory ended because
// the agent reached a terminal state, and otherwise it should be
// v(s), the value estimate of the current state. This allows for
// bootstrapping the rewards-to-go calculation to account for timesteps
// beyond the arbitrary episode horizon or buffer cutoff.
func (v *Buffer) FinishPath(lastVal float64) {
	start := v.pathStartIdx
	stop := v.currentPos
	if start == stop {
		return
	}
	n := stop - start

	rews := make([]float64, n+1)
	copy(rews, v.rewBuffer[start:stop])
	rews[n] = lastVal
	vals := make([]float64, n+1)
	copy(vals, v.valBuffer[start:stop])
	vals[n] = lastVal

	// δ_t = r_t + ℽ v(s_{t+1}) - v(s_t)
	stateVals := mat.NewVecDense(n, vals[:n])
	nextStateVals := mat.NewVecDense(n, vals[1:])
	rewards := mat.NewVecDense(n, rews[:n])

	deltas := mat.NewVecDense(n, nil)
	deltas.AddScaledVec(rewards, v.gamma, nextStateVals)
	deltas.SubVec(deltas, stateVals)

	copy(v.advBuffer[start:stop], discountCumSum(deltas, v.gamma*v.lambda))

	// Rewards-to-go
	rewsToGo := discountCumSum(mat.NewVecDense(n+1, rews), v.gamma)
	copy(v.retBuffer[start:stop], rewsToGo[:n])

	v.pathStartIdx = v.currentPos
}

// Get returns the batch stored in the buffer and empties the buffer.
// Advantages are standardized to mean 0 and standard deviation 1. The
// buffer must be full and its last trajectory finished.
func (v *Buffer) Get() (rollout.Batch, error) {
	if v.currentPos != v.maxSize {
		return rollout.Batch{}, fmt.Errorf("get: buffer must be full "+
			"before sampling\n\twant(%d)\n\thave(%d)", v.maxSize, v.currentPos)
	}
	if v.pathStartIdx != v.currentPos {
		return rollout.Batch{}, fmt.Errorf("get: last trajectory must be " +
			"finished before sampling")
	}

	v.currentPos = 0
	v.pathStartIdx = 0

	// Advantage normalization
	adv := append([]float64(nil), v.advBuffer...)
	floats.AddConst(-stat.Mean(adv, nil), adv)
	std := math.Sqrt(floats.Dot(adv, adv) / float64(len(adv)))
	floats.Scale(1/(std+1e-8), adv)

	return rollout.Batch{
		Obs:     append([]float64(nil), v.obsBuffer...),
		Act:     append([]float64(nil), v.actBuffer...),
		Adv:     adv,
		Ret:     append([]float64(nil), v.retBuffer...),
		LogProb: append([]float64(nil), v.logpBuffer...),
	}, nil
}

// discountCumSum computes and returns the discounted cumulative sum
// of all elements of a vector. Given a vector v = [x0 x1 x2 ... xN]
// and discount ℽ, this function computes and returns:
//
//	[
//		x0 + ℽ x1 + ℽ^2 x2 + ... + ℽ^N xN
//		x1 + ℽ x2 + ... + ℽ^(N-1) xN
//		...
//		xN
//	]
func discountCumSum(x *mat.VecDense, discount float64) []float64 {
	cumSums := make([]float64, x.Len())
	sum := 0.0
	for i := x.Len() - 1; i >= 0; i-- {
		sum = x.AtVec(i) + discount*sum
		cumSums[i] = sum
	}
	return cumSums
}
