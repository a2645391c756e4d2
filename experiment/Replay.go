package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-logr/logr"
	"github.com/samuelfneumann/goppo/agent/ppo"
	"github.com/samuelfneumann/goppo/experiment/checkpointer"
	"github.com/samuelfneumann/goppo/experiment/tracker"
	"github.com/samuelfneumann/goppo/rollout"
	"github.com/samuelfneumann/goppo/utils/progressbar"
)

// ErrDiverged is returned by Replay.Run when an update produces a NaN
// or infinite loss
var ErrDiverged = errors.New("learner diverged")

// Replay is an Experiment that updates a learner once on each batch of
// a Source, in order.
type Replay struct {
	learner       Learner
	source        Source
	logger        logr.Logger
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	progress      *progressbar.ManualProgressBar

	updates int
}

// NewReplay creates and returns a new replay experiment of learner on
// the batches of source. The checkpointers are called after each
// update, and the trackers record the diagnostics of each update.
func NewReplay(learner Learner, source Source, logger logr.Logger,
	checkpointers []checkpointer.Checkpointer,
	trackers ...tracker.Tracker) *Replay {
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	return &Replay{
		learner:       learner,
		source:        source,
		logger:        logger,
		trackers:      trackers,
		checkpointers: checkpointers,
	}
}

// Register registers a tracker.Tracker with the experiment so that data
// generated during the experiment can be tracked and saved
func (r *Replay) Register(t tracker.Tracker) {
	r.trackers = append(r.trackers, t)
}

// ShowProgress displays a progress bar of width characters on out,
// updated after each update
func (r *Replay) ShowProgress(out io.Writer, width int, color bool) {
	r.progress = progressbar.NewManualProgressBar(out, width, r.source.Len(),
		color)
}

// Updates returns the number of updates performed so far
func (r *Replay) Updates() int {
	return r.updates
}

// Run updates the learner on every remaining batch of the source
func (r *Replay) Run(ctx context.Context) error {
	if r.progress != nil {
		r.progress.Display()
		defer r.progress.Close()
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run: stopped after %d updates: %w", r.updates,
				err)
		}

		b, err := r.source.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("run: could not read batch: %w", err)
		}

		if err := r.step(b); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}
}

// step performs a single update on b and records it
func (r *Replay) step(b rollout.Batch) error {
	d, err := r.learner.Update(b)
	if err != nil {
		return fmt.Errorf("step: update %d: %w", r.updates+1, err)
	}
	r.updates++

	for _, t := range r.trackers {
		t.Track(r.updates, d)
	}
	r.logger.V(1).Info("update", "update", r.updates,
		"policyLoss", d.PolicyLoss, "entropyLoss", d.EntropyLoss,
		"approxEntropy", d.ApproxEntropy, "approxKL", d.ApproxKL,
		"valueLoss", d.ValueLoss, "policyIters", d.PolicyIters,
		"stoppedEarly", d.StoppedEarly)

	if diverged(d) {
		return fmt.Errorf("step: update %d: %w", r.updates, ErrDiverged)
	}

	for _, c := range r.checkpointers {
		if err := c.Checkpoint(r.updates); err != nil {
			return fmt.Errorf("step: %w", err)
		}
	}

	if r.progress != nil {
		r.progress.Increment()
		r.progress.Display()
	}
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (r *Replay) Save() error {
	for _, t := range r.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

func diverged(d ppo.Diagnostics) bool {
	for _, v := range []float64{d.PolicyLoss, d.ValueLoss, d.ApproxKL} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
