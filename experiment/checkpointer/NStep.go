package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/goppo/agent"
)

// nStep implements checkpointing every N updates
type nStep struct {
	interval int
	object   agent.Checkpointable // Object to save
}

// NewNStep returns a checkpointer that checkpoints object every n
// updates.
func NewNStep(n int, object agent.Checkpointable) (Checkpointer, error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive, have(%d)",
			n)
	}
	return &nStep{
		interval: n,
		object:   object,
	}, nil
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method if update is a multiple of the interval. Updates
// are counted from 1.
func (n *nStep) Checkpoint(update int) error {
	if update > 0 && update%n.interval == 0 {
		if err := n.object.Save(); err != nil {
			return fmt.Errorf("checkpoint: update %d: %w", update, err)
		}
	}
	return nil
}
