// Package experiment implements functionality for running an experiment
// in which a learner is updated on a sequence of rollout batches
package experiment

import (
	"context"

	"github.com/samuelfneumann/goppo/agent/ppo"
	"github.com/samuelfneumann/goppo/experiment/tracker"
	"github.com/samuelfneumann/goppo/rollout"
)

// Interface Experiment outlines structs that can run experiments. The
// Run() method performs all updates of the experiment, until the
// batches run out, an update fails, or ctx is done. The Save()
// function saves all data tracked by the experiment's Trackers. This is
// usually performed after an experiment has been run.
type Experiment interface {
	Run(ctx context.Context) error
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)
}

// Learner is updated on rollout batches
type Learner interface {
	Update(b rollout.Batch) (ppo.Diagnostics, error)
}

// Source is a sequence of rollout batches. Next returns io.EOF once
// the sequence is exhausted.
type Source interface {
	Next() (rollout.Batch, error)
	Len() int
}
