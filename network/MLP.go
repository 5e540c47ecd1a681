package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron predicting Outputs()
// values per observation, one output head per discrete action.
type mlp struct {
	g      *G.ExprGraph
	layers []*fcLayer
	input  *G.Node

	features  int
	outputs   int
	batchSize int

	// Architecture, kept for cloning
	hiddenSizes []int
	biases      []bool
	activations []*Activation
	init        G.InitWFn

	prediction *G.Node
	predVal    G.Value

	learnables G.Nodes
	model      []G.ValueGrad
}

// NewMLP creates a new multi-layered perceptron on graph g, taking
// batches of batch observation vectors of size features and predicting
// outputs values per observation.
//
// The network has len(hiddenSizes) hidden layers followed by an always
// added final linear layer with a bias unit and no activation, so that
// hiddenSizes = []int{} yields a linear function approximator. For
// index i, hiddenSizes[i] is the number of units in hidden layer i,
// biases[i] determines whether that layer has a bias unit and
// activations[i] is its activation function. The init parameter
// determines the weight initialization scheme.
func NewMLP(features, batch, outputs int, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, activations []*Activation,
	init G.InitWFn) (NeuralNet, error) {
	if features < 1 {
		return nil, fmt.Errorf("newmlp: features must be > 0, got %v",
			features)
	}
	if batch < 1 {
		return nil, fmt.Errorf("newmlp: batch must be > 0, got %v", batch)
	}
	if outputs < 1 {
		return nil, fmt.Errorf("newmlp: outputs must be > 0, got %v", outputs)
	}

	// Final linear layer so that the network always predicts one value
	// per output head
	sizes := append(append([]int{}, hiddenSizes...), outputs)
	layerBiases := append(append([]bool{}, biases...), true)
	layerActivations := append(append([]*Activation{}, activations...),
		Identity())

	layers, err := newLayers(g, features, sizes, layerBiases,
		layerActivations, init)
	if err != nil {
		return nil, fmt.Errorf("newmlp: %v", err)
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	net := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		features:    features,
		outputs:     outputs,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
		init:        init,
	}

	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newmlp: %v", err)
	}
	return net, nil
}

// fwd runs the forward pass of the network on the input node and
// registers a reader on the prediction node.
func (m *mlp) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, layer := range m.layers {
		if pred, err = layer.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)
	return nil
}

// Graph returns the computational graph of the network.
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// BatchSize returns the number of observations in one input batch.
func (m *mlp) BatchSize() int {
	return m.batchSize
}

// Features returns the size of a single observation vector.
func (m *mlp) Features() int {
	return m.features
}

// Outputs returns the number of values predicted per observation.
func (m *mlp) Outputs() int {
	return m.outputs
}

// CloneWithBatch clones the network onto a fresh graph with a new
// input batch size, copying the current weights.
func (m *mlp) CloneWithBatch(batch int) (NeuralNet, error) {
	g := G.NewGraph()
	clone, err := NewMLP(m.features, batch, m.outputs, g, m.hiddenSizes,
		m.biases, m.activations, m.init)
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: %v", err)
	}
	if err := clone.Set(m); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not copy weights: %v",
			err)
	}
	return clone, nil
}

// SetInput sets the value of the input node before running a VM.
func (m *mlp) SetInput(input []float64) error {
	if len(input) != m.features*m.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs \n\twant(%v)"+
			"\n\thave(%v)", m.features*m.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(m.input.Shape()...),
	)
	return G.Let(m.input, inputTensor)
}

// Set overwrites the network weights with those of source.
func (m *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := m.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: architecture mismatch \n\twant(%v "+
			"learnables)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, node := range nodes {
		sourceNode := sourceNodes[i].Clone()
		if err := G.Let(node, sourceNode.(*G.Node).Value()); err != nil {
			return err
		}
	}
	return nil
}

// Polyak sets the network weights to a Polyak average between the
// current weights and the weights of source:
// w <- (1 - tau) * w + tau * w_source.
func (m *mlp) Polyak(source NeuralNet, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := m.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("polyak: architecture mismatch \n\twant(%v "+
			"learnables)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}
		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}
		newWeights, err := weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		if err := G.Let(nodes[i], newWeights); err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes of the network.
func (m *mlp) Learnables() G.Nodes {
	if m.learnables == nil {
		for _, layer := range m.layers {
			m.learnables = append(m.learnables, layer.weights)
			if layer.bias != nil {
				m.learnables = append(m.learnables, layer.bias)
			}
		}
	}
	return m.learnables
}

// Model returns the learnable nodes with their gradients.
func (m *mlp) Model() []G.ValueGrad {
	if m.model == nil {
		for _, node := range m.Learnables() {
			m.model = append(m.model, node)
		}
	}
	return m.model
}

// Prediction returns the graph node holding the network output.
func (m *mlp) Prediction() *G.Node {
	return m.prediction
}

// Output returns the value of the prediction node from the last VM
// run.
func (m *mlp) Output() G.Value {
	return m.predVal
}
