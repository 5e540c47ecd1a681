// Package cartpole implements the Cartpole classic control
// environment: a pole is attached to a cart moving along a frictionless
// track, and the agent must keep the pole upright by accelerating the
// cart left or right.
package cartpole

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5
	PoleMassLength float64 = PoleMass * HalfPoleLength
	ForceMag       float64 = 10.0
	Dt             float64 = 0.02 // Seconds between state updates

	// Episode termination bounds
	PositionThreshold float64 = 2.4
	AngleThreshold    float64 = 12.0 * math.Pi / 180.0

	// Start states are drawn uniformly from +/- StartBound per state
	// variable
	StartBound float64 = 0.05

	// Discrete actions
	ActionLeft  int = 0
	ActionRight int = 1
	NumActions  int = 2

	// Observation features: x, xDot, theta, thetaDot
	ObsSize int = 4

	// DefaultMaxEpisodeLength caps episodes when no explicit cap is
	// given
	DefaultMaxEpisodeLength int = 500
)

// Cartpole implements the classic control environment Cartpole.
//
// The state consists of the cart position and speed and the pole angle
// from the positive y-axis and its angular velocity. Each step yields
// reward 1. Episodes end when the cart leaves the track bounds, the
// pole falls past the angle threshold, or the step cap is reached.
type Cartpole struct {
	x        float64
	xDot     float64
	theta    float64
	thetaDot float64

	steps    int
	maxSteps int
	done     bool

	rng *rand.Rand
}

// New constructs a new Cartpole environment with the given per-episode
// step cap (0 for DefaultMaxEpisodeLength).
func New(maxSteps int, seed uint64) *Cartpole {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxEpisodeLength
	}
	return &Cartpole{
		maxSteps: maxSteps,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Reset starts a new episode at a state drawn uniformly at random
// around the upright equilibrium.
func (c *Cartpole) Reset() (*mat.VecDense, error) {
	c.x = c.startValue()
	c.xDot = c.startValue()
	c.theta = c.startValue()
	c.thetaDot = c.startValue()
	c.steps = 0
	c.done = false

	return c.observation(), nil
}

// startValue draws one state variable of the start state.
func (c *Cartpole) startValue() float64 {
	return c.rng.Float64()*2*StartBound - StartBound
}

// Step applies a force to the cart and advances the simulation by Dt
// seconds using Euler integration.
func (c *Cartpole) Step(action int) (*mat.VecDense, float64, bool, error) {
	if c.done {
		return nil, 0, true, fmt.Errorf("step: episode has terminated, " +
			"call Reset")
	}

	var force float64
	switch action {
	case ActionLeft:
		force = -ForceMag
	case ActionRight:
		force = ForceMag
	default:
		return nil, 0, false, fmt.Errorf("step: invalid action %v", action)
	}

	cosTheta := math.Cos(c.theta)
	sinTheta := math.Sin(c.theta)

	temp := (force + PoleMassLength*c.thetaDot*c.thetaDot*sinTheta) /
		TotalMass
	thetaAcc := (Gravity*sinTheta - cosTheta*temp) /
		(HalfPoleLength * (4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - PoleMassLength*thetaAcc*cosTheta/TotalMass

	c.x += Dt * c.xDot
	c.xDot += Dt * xAcc
	c.theta += Dt * c.thetaDot
	c.thetaDot += Dt * thetaAcc
	c.steps++

	c.done = c.x < -PositionThreshold || c.x > PositionThreshold ||
		c.theta < -AngleThreshold || c.theta > AngleThreshold ||
		c.steps >= c.maxSteps

	return c.observation(), 1.0, c.done, nil
}

// observation returns the current state as a dense vector.
func (c *Cartpole) observation() *mat.VecDense {
	return mat.NewVecDense(ObsSize,
		[]float64{c.x, c.xDot, c.theta, c.thetaDot})
}

// NumActions returns the size of the discrete action space.
func (c *Cartpole) NumActions() int {
	return NumActions
}

// ObsSize returns the number of features in an observation.
func (c *Cartpole) ObsSize() int {
	return ObsSize
}

// MaxEpisodeLength returns the per-episode step cap.
func (c *Cartpole) MaxEpisodeLength() int {
	return c.maxSteps
}

// Render prints the current state to standard output.
func (c *Cartpole) Render() {
	fmt.Printf("step %3d | x: %6.3f  xDot: %6.3f  theta: %6.3f  "+
		"thetaDot: %6.3f\n", c.steps, c.x, c.xDot, c.theta, c.thetaDot)
}
