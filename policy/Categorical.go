package policy

import (
	"fmt"
	"math"
	"math/rand"
)

// Categorical treats the model output as a probability distribution
// over discrete actions and samples one action from it, recording the
// log-probability of the sampled action for later policy-gradient loss
// computation.
type Categorical struct {
	rng *rand.Rand
}

// NewCategorical returns a new probability-based Selector.
func NewCategorical(seed int64) *Categorical {
	return &Categorical{rng: rand.New(rand.NewSource(seed))}
}

// Select samples an action from the model's output distribution.
func (c *Categorical) Select(m Model, obs []float64) (Action, error) {
	probs, err := m.Predict(obs)
	if err != nil {
		return Action{}, fmt.Errorf("select: %v", err)
	}

	action, err := sampleCategorical(probs, c.rng)
	if err != nil {
		return Action{}, fmt.Errorf("select: %v", err)
	}

	return Action{Value: action, LogProb: math.Log(probs[action])}, nil
}
