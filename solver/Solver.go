// Package solver wraps Gorgonia Solvers so that they can be described by
// name and hyperparameters in configuration files.
package solver

import (
	"fmt"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Solver wraps a Gorgonia Solver together with the Type and Config
// that created it.
type Solver struct {
	G.Solver
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	solver := Solver{Type: t, Config: c}
	solver.Solver = solver.Config.Create()

	return &solver, nil
}

// New returns a Solver of the named type with default hyperparameters
// other than the step size. Names are case insensitive.
func New(name string, stepSize float64, batchSize int) (*Solver, error) {
	if stepSize < 0 {
		return nil, fmt.Errorf("new: step size must be non-negative, "+
			"have(%v)", stepSize)
	}

	switch {
	case strings.EqualFold(name, string(Adam)):
		return NewDefaultAdam(stepSize, batchSize)
	case strings.EqualFold(name, string(Vanilla)):
		return NewVanilla(stepSize, batchSize, -1.0)
	case strings.EqualFold(name, string(RMSProp)):
		return NewDefaultRMSProp(stepSize, batchSize)
	default:
		return nil, fmt.Errorf("new: unknown solver type %q", name)
	}
}

// Config implements a Gorgonia Solver configuration and can be used to
// create Gorgonia Solvers they describe.
type Config interface {
	Create() G.Solver

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}
