package policy

import (
	"fmt"
	"math/rand"

	"github.com/raharth/gomatch/utils/floatutils"
)

// SoftmaxQ selects actions by sampling from the softmax of the model's
// action values divided by a temperature. As the temperature
// approaches 0 selection approaches greedy; as it grows the selection
// approaches uniform.
type SoftmaxQ struct {
	temperature float64
	rng         *rand.Rand
}

// NewSoftmaxQ returns a temperature-based exponential Selector.
func NewSoftmaxQ(temperature float64, seed int64) (*SoftmaxQ, error) {
	if temperature <= 0 {
		return nil, fmt.Errorf("newsoftmaxq: temperature must be positive, "+
			"got %v", temperature)
	}
	return &SoftmaxQ{
		temperature: temperature,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Select samples an action from the temperature-scaled softmax of the
// predicted action values.
func (s *SoftmaxQ) Select(m Model, obs []float64) (Action, error) {
	qs, err := m.Predict(obs)
	if err != nil {
		return Action{}, fmt.Errorf("select: %v", err)
	}
	if len(qs) == 0 {
		return Action{}, fmt.Errorf("select: model predicted no " +
			"action values")
	}

	probs := floatutils.Softmax(qs, s.temperature)
	action, err := sampleCategorical(probs, s.rng)
	if err != nil {
		return Action{}, fmt.Errorf("select: %v", err)
	}

	return Action{Value: action}, nil
}
