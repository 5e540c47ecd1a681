package network

import (
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

func testMLP(t *testing.T, batch int) NeuralNet {
	net, err := NewMLP(4, batch, 2, G.NewGraph(), []int{8, 8},
		[]bool{true, false}, []*Activation{ReLU(), TanH()},
		G.GlorotU(1.0))
	require.NoError(t, err)
	return net
}

func TestNewMLPShapes(t *testing.T) {
	net := testMLP(t, 1)

	require.Equal(t, 1, net.BatchSize())
	require.Equal(t, 4, net.Features())
	require.Equal(t, 2, net.Outputs())
	require.Equal(t, []int{1, 2}, []int(net.Prediction().Shape()))

	// Two hidden layers (one without bias) plus the final linear
	// layer with its bias unit
	require.Len(t, net.Learnables(), 5)
	require.Len(t, net.Model(), 5)
}

func TestNewMLPLinear(t *testing.T) {
	net, err := NewMLP(4, 1, 3, G.NewGraph(), []int{}, []bool{},
		[]*Activation{}, G.Zeroes())
	require.NoError(t, err)

	// Weights and bias of the single linear layer
	require.Len(t, net.Learnables(), 2)
	require.Equal(t, []int{1, 3}, []int(net.Prediction().Shape()))
}

func TestCloneWithBatchKeepsArchitecture(t *testing.T) {
	net := testMLP(t, 1)

	clone, err := net.CloneWithBatch(16)
	require.NoError(t, err)
	require.Equal(t, 16, clone.BatchSize())
	require.Equal(t, net.Features(), clone.Features())
	require.Equal(t, net.Outputs(), clone.Outputs())
	require.Len(t, clone.Learnables(), len(net.Learnables()))
	require.NotSame(t, net.Graph(), clone.Graph())

	// Cloning copies the weight values
	for i, node := range clone.Learnables() {
		want := net.Learnables()[i].Value().Data().([]float64)
		have := node.Value().Data().([]float64)
		require.Equal(t, want, have)
	}
}

func TestSetInputRejectsWrongLength(t *testing.T) {
	net := testMLP(t, 2)

	require.Error(t, net.SetInput(make([]float64, 4)))
	require.NoError(t, net.SetInput(make([]float64, 8)))
}

func TestNewMLPValidation(t *testing.T) {
	_, err := NewMLP(0, 1, 2, G.NewGraph(), nil, nil, nil, G.Zeroes())
	require.Error(t, err)

	_, err = NewMLP(4, 0, 2, G.NewGraph(), nil, nil, nil, G.Zeroes())
	require.Error(t, err)

	// Mismatched hidden layer configuration
	_, err = NewMLP(4, 1, 2, G.NewGraph(), []int{8}, []bool{},
		[]*Activation{}, G.Zeroes())
	require.Error(t, err)
}
