// Package checkpointer implements checkpointing of learners during an
// experiment
package checkpointer

// Checkpointer checkpoints an object based on the number of updates
// the object has performed
type Checkpointer interface {
	Checkpoint(update int) error
}
