package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Forwarder packages a batch-1 NeuralNet with its own virtual machine,
// exposing the network as a plain observation -> values function. It
// satisfies the Model capability that action selectors need.
type Forwarder struct {
	net NeuralNet
	vm  G.VM
}

// NewForwarder returns a Forwarder running the given network. The
// network must take single-observation batches.
func NewForwarder(net NeuralNet) (*Forwarder, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newforwarder: network must have batch "+
			"size 1, got %v", net.BatchSize())
	}
	return &Forwarder{net: net, vm: G.NewTapeMachine(net.Graph())}, nil
}

// Net returns the wrapped network.
func (f *Forwarder) Net() NeuralNet {
	return f.net
}

// Predict runs the forward pass on one observation vector and returns
// a copy of the predicted values.
func (f *Forwarder) Predict(obs []float64) ([]float64, error) {
	if err := f.net.SetInput(obs); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	if err := f.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: could not run forward pass: %v", err)
	}

	output := f.net.Output().Data().([]float64)
	values := make([]float64, len(output))
	copy(values, output)

	f.vm.Reset()
	return values, nil
}

// Close releases the Forwarder's virtual machine.
func (f *Forwarder) Close() error {
	return f.vm.Close()
}
