package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feedforward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x = G.Must(G.Mul(x, f.weights))
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))
	}
	if f.act == nil {
		return x, nil
	}
	return f.act.fwd(x)
}

// newLayers creates the fully connected layers of an MLP on graph g.
// For index i, sizes[i] is the number of units in layer i, biases[i]
// determines whether the layer has a bias unit, and activations[i] is
// its activation. The init parameter determines the weight
// initialization scheme.
func newLayers(g *G.ExprGraph, features int, sizes []int, biases []bool,
	activations []*Activation, init G.InitWFn) ([]*fcLayer, error) {
	if len(sizes) != len(biases) {
		return nil, fmt.Errorf("newlayers: invalid number of biases "+
			"\n\twant(%v)\n\thave(%v)", len(sizes), len(biases))
	}
	if len(sizes) != len(activations) {
		return nil, fmt.Errorf("newlayers: invalid number of activations "+
			"\n\twant(%v)\n\thave(%v)", len(sizes), len(activations))
	}

	layers := make([]*fcLayer, len(sizes))
	inputs := features
	for i, size := range sizes {
		if size < 1 {
			return nil, fmt.Errorf("newlayers: layer %v must have size > 0, "+
				"got %v", i, size)
		}

		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(inputs, size),
			G.WithName(fmt.Sprintf("L%dW", i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, size),
				G.WithName(fmt.Sprintf("L%dB", i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers[i] = &fcLayer{weights: weights, bias: bias, act: activations[i]}
		inputs = size
	}
	return layers, nil
}
