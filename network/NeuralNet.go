// Package network implements neural network function approximators on
// top of Gorgonia computational graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a function approximator living on a Gorgonia graph.
//
// A NeuralNet only populates a graph; it owns no virtual machine. An
// external VM runs the graph: set the input with SetInput(), run the
// VM, then read the prediction with Output(). Learners compile their
// loss on top of Prediction() and adapt Learnables() with a solver.
type NeuralNet interface {
	// Graph returns the computational graph the network lives on
	Graph() *G.ExprGraph

	// CloneWithBatch clones the network onto a fresh graph with a new
	// input batch size, copying the current weights
	CloneWithBatch(batch int) (NeuralNet, error)

	// BatchSize returns the number of observations in one input batch
	BatchSize() int

	// Features returns the size of a single observation vector
	Features() int

	// Outputs returns the number of values predicted per observation
	Outputs() int

	// SetInput sets the value of the input node before a VM run. The
	// input must hold BatchSize() * Features() values in row-major
	// order.
	SetInput([]float64) error

	// Set overwrites the network weights with those of another network
	// of identical architecture
	Set(NeuralNet) error

	// Polyak sets the weights to a Polyak average between the current
	// weights and those of another network
	Polyak(NeuralNet, float64) error

	// Learnables returns the learnable nodes of the network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Prediction returns the graph node holding the network output
	Prediction() *G.Node

	// Output returns the value of the prediction node from the last
	// VM run
	Output() G.Value
}
