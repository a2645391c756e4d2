package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// NewSingleHeadMLP returns an MLP with a single output node, such as a
// state value function. It calls NewMultiHeadMLP with an output size
// of 1.
func NewSingleHeadMLP(features, batch int, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, init G.InitWFn, activations []*Activation) (NeuralNet, error) {
	net, err := NewMultiHeadMLP(features, batch, 1, g, hiddenSizes, biases,
		init, activations)
	if err != nil {
		return nil, fmt.Errorf("newSingleHeadMLP: %w", err)
	}
	return net, nil
}
