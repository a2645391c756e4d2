// Package rollout defines the batch of transitions collected under an
// old policy that a learner updates on.
package rollout

import (
	"fmt"
	"math"
)

// Batch is a fixed-size collection of N transitions stored in row major
// order. Obs holds N observations of Features values each. Act holds
// either N action indices (discrete actions) or N action vectors
// (continuous actions). Adv, Ret, and LogProb hold one advantage
// estimate, return, and log-probability of the action under the
// data-collecting policy per transition.
//
// Learners only read a Batch.
type Batch struct {
	Obs     []float64 `json:"obs"`
	Act     []float64 `json:"act"`
	Adv     []float64 `json:"adv"`
	Ret     []float64 `json:"ret"`
	LogProb []float64 `json:"logProb"`
}

// Len returns the number of transitions N in the batch
func (b Batch) Len() int {
	return len(b.Adv)
}

// Validate checks that every array of the batch has leading dimension
// N = b.Len() >= 1, that each observation has features values, and that
// each action has actionDims values. If discreteActions > 0, actions
// must additionally be integer indices in [0, discreteActions).
func (b Batch) Validate(features, actionDims, discreteActions int) error {
	n := b.Len()
	if n < 1 {
		return fmt.Errorf("validate: batch must hold at least one transition")
	}

	if len(b.Ret) != n {
		return fmt.Errorf("validate: batch has %d returns but %d "+
			"advantages", len(b.Ret), n)
	}
	if len(b.LogProb) != n {
		return fmt.Errorf("validate: batch has %d log probabilities but %d "+
			"advantages", len(b.LogProb), n)
	}
	if len(b.Obs) != n*features {
		return fmt.Errorf("validate: illegal observations length for %d "+
			"transitions of %d features\n\twant(%d)\n\thave(%d)", n, features,
			n*features, len(b.Obs))
	}
	if len(b.Act) != n*actionDims {
		return fmt.Errorf("validate: illegal actions length for %d "+
			"transitions of %d action dimensions\n\twant(%d)\n\thave(%d)", n,
			actionDims, n*actionDims, len(b.Act))
	}

	if discreteActions > 0 {
		for i, a := range b.Act {
			if a != math.Trunc(a) || a < 0 || int(a) >= discreteActions {
				return fmt.Errorf("validate: action %v at index %d is not an "+
					"action index in [0, %d)", a, i, discreteActions)
			}
		}
	}

	return nil
}
