// Package agent defines the interfaces shared by learning agents and
// the infrastructure that drives them.
package agent

// Checkpointable is an object whose learned weights can be saved to and
// restored from a fixed location.
type Checkpointable interface {
	Save() error
	Load() error
}
