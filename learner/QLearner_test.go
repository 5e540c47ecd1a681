package learner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raharth/gomatch/initwfn"
	"github.com/raharth/gomatch/network"
	"github.com/raharth/gomatch/solver"
)

func testQConfig() QLearnerConfig {
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(err)
	}
	sol, err := solver.NewDefaultAdam(0.01, 4)
	if err != nil {
		panic(err)
	}
	return QLearnerConfig{
		HiddenSizes: []int{8},
		Biases:      []bool{true},
		Activations: []*network.Activation{network.ReLU()},
		InitWFn:     init,
		Solver:      sol,
		Capacity:    32,
		NSamples:    8,
		BatchSize:   4,
		Gamma:       0.9,
		Alpha:       0.1,
		Tau:         1.0,
	}
}

func TestTDTargetsMoveOnlyTakenAction(t *testing.T) {
	preds := []float64{
		1.0, 2.0, 3.0,
		0.5, 0.0, -0.5,
	}
	nextVals := []float64{
		0.0, 4.0, 1.0,
		2.0, 2.0, 2.0,
	}
	actions := []float64{0, 2}
	rewards := []float64{1.0, -1.0}
	gamma, alpha := 0.9, 0.1

	targets := tdTargets(preds, nextVals, actions, rewards, 3, gamma, alpha)

	// Row 0, action 0: pred 1.0, max next 4.0
	want := 1.0 + alpha*(1.0+gamma*4.0-1.0)
	require.InDelta(t, want, targets[0], 1e-12)
	require.Equal(t, preds[1], targets[1])
	require.Equal(t, preds[2], targets[2])

	// Row 1, action 2: pred -0.5, max next 2.0
	want = -0.5 + alpha*(-1.0+gamma*2.0-(-0.5))
	require.InDelta(t, want, targets[5], 1e-12)
	require.Equal(t, preds[3], targets[3])
	require.Equal(t, preds[4], targets[4])

	// The predictions themselves must not be modified
	require.Equal(t, 1.0, preds[0])
	require.Equal(t, -0.5, preds[5])
}

func TestTDTargetsZeroAlphaIsIdentity(t *testing.T) {
	preds := []float64{1, 2, 3, 4}
	nextVals := []float64{5, 6, 7, 8}
	targets := tdTargets(preds, nextVals, []float64{1, 0}, []float64{1, 1},
		2, 0.9, 0.0)
	require.Equal(t, preds, targets)
}

func TestQLearnerConfigValidation(t *testing.T) {
	valid := testQConfig()
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Alpha = 0
	require.Error(t, bad.Validate())

	bad = valid
	bad.NSamples = 1
	bad.BatchSize = 4
	require.Error(t, bad.Validate())

	bad = valid
	bad.Gamma = 1.5
	require.Error(t, bad.Validate())

	bad = valid
	bad.Tau = 0
	require.Error(t, bad.Validate())

	bad = valid
	bad.Solver = nil
	require.Error(t, bad.Validate())
}
