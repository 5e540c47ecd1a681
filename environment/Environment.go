// Package environment outlines the interface learners use to interact
// with simulated environments.
package environment

import (
	"gonum.org/v1/gonum/mat"
)

// Environment is a simulated environment with a discrete action space.
//
// An episode starts with Reset and proceeds by repeated Steps until
// the environment signals done or the caller reaches
// MaxEpisodeLength() steps. Observations are dense feature vectors of
// fixed size ObsSize(); actions are enumerated 0..NumActions()-1.
type Environment interface {
	// Reset starts a new episode and returns its first observation
	Reset() (*mat.VecDense, error)

	// Step applies an action and returns the next observation, the
	// reward for the transition, and whether the episode terminated
	Step(action int) (*mat.VecDense, float64, bool, error)

	// NumActions returns the size of the discrete action space
	NumActions() int

	// ObsSize returns the number of features in an observation
	ObsSize() int

	// MaxEpisodeLength returns the step cap per episode, 0 meaning
	// unlimited
	MaxEpisodeLength() int

	// Render displays the current environment state
	Render()
}

// Actions returns the enumerated action space of an environment.
func Actions(e Environment) []int {
	actions := make([]int, e.NumActions())
	for i := range actions {
		actions[i] = i
	}
	return actions
}
