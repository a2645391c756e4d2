// Package network implements function approximators as Gorgonia
// computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a differentiable mapping from a batch of observations to
// a batch of predictions. The graph of a NeuralNet is built for a fixed
// batch size, and the learnable nodes of the graph hold the weights.
//
// A NeuralNet never runs itself. A VM compiled from its Graph() runs
// the forward pass (and backward pass, if gradients were added to the
// graph) after the input has been set with SetInput().
type NeuralNet interface {
	Graph() *G.ExprGraph
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}
