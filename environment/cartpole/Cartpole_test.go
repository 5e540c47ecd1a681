package cartpole

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetStartsNearEquilibrium(t *testing.T) {
	env := New(0, 42)

	obs, err := env.Reset()
	require.NoError(t, err)
	require.Equal(t, ObsSize, obs.Len())

	for i := 0; i < obs.Len(); i++ {
		require.LessOrEqual(t, math.Abs(obs.AtVec(i)), StartBound)
	}
}

func TestStepPhysicsDeterministic(t *testing.T) {
	env := New(0, 42)
	_, err := env.Reset()
	require.NoError(t, err)

	// Pin the state so the step is fully determined
	env.x, env.xDot, env.theta, env.thetaDot = 0, 0, 0, 0

	obs, reward, done, err := env.Step(ActionRight)
	require.NoError(t, err)
	require.Equal(t, 1.0, reward)
	require.False(t, done)

	// From the origin with force +10: temp = 10/1.1, thetaAcc =
	// -temp/(0.5*(4/3 - 0.1/1.1)), xAcc = temp - 0.05*thetaAcc/1.1.
	temp := ForceMag / TotalMass
	thetaAcc := -temp / (HalfPoleLength *
		(4.0/3.0 - PoleMass/TotalMass))
	xAcc := temp - PoleMassLength*thetaAcc/TotalMass

	require.InDelta(t, 0.0, obs.AtVec(0), 1e-12)          // x
	require.InDelta(t, Dt*xAcc, obs.AtVec(1), 1e-12)      // xDot
	require.InDelta(t, 0.0, obs.AtVec(2), 1e-12)          // theta
	require.InDelta(t, Dt*thetaAcc, obs.AtVec(3), 1e-12)  // thetaDot
}

func TestEpisodeTerminatesOnAngle(t *testing.T) {
	env := New(0, 42)
	_, err := env.Reset()
	require.NoError(t, err)

	// Tip the pole past the termination threshold
	env.theta = AngleThreshold * 1.5
	env.thetaDot = 1.0

	_, _, done, err := env.Step(ActionLeft)
	require.NoError(t, err)
	require.True(t, done)

	// Stepping a terminated episode is an error
	_, _, _, err = env.Step(ActionLeft)
	require.Error(t, err)
}

func TestEpisodeTerminatesOnStepCap(t *testing.T) {
	env := New(3, 42)
	_, err := env.Reset()
	require.NoError(t, err)

	// Keep the pole pinned upright so only the cap can end the episode
	for i := 0; i < 2; i++ {
		env.x, env.xDot, env.theta, env.thetaDot = 0, 0, 0, 0
		_, _, done, err := env.Step(ActionRight)
		require.NoError(t, err)
		require.False(t, done)
	}

	env.x, env.xDot, env.theta, env.thetaDot = 0, 0, 0, 0
	_, _, done, err := env.Step(ActionRight)
	require.NoError(t, err)
	require.True(t, done)
}

func TestInvalidAction(t *testing.T) {
	env := New(0, 42)
	_, err := env.Reset()
	require.NoError(t, err)

	_, _, _, err = env.Step(7)
	require.Error(t, err)
}
