// Package policy implements action selection strategies over the
// output of a model: categorical sampling from predicted
// probabilities, ensemble sampling, temperature softmax over action
// values, epsilon-greedy, and greedy selection.
package policy

import (
	"fmt"
	"math"
	"math/rand"
)

// Model is the capability a Selector needs from a function
// approximator: a forward pass mapping one observation vector to a
// vector of per-action outputs (probabilities or action values).
type Model interface {
	Predict(obs []float64) ([]float64, error)
}

// Action is one selected action. LogProb is the natural log of the
// probability with which Value was selected and is only meaningful for
// probability-based selectors; Std holds a per-action dispersion
// estimate when the selector computes one.
type Action struct {
	Value   int
	LogProb float64
	Std     []float64
}

// Selector chooses an action given a model and an observation.
// Selectors are stateless apart from their random number generators
// and are side-effect free with respect to the model.
type Selector interface {
	Select(m Model, obs []float64) (Action, error)
}

// sampleCategorical draws an index from the categorical distribution
// described by probs. The probabilities need not be normalized, but
// must be non-negative with a positive sum.
func sampleCategorical(probs []float64, rng *rand.Rand) (int, error) {
	if len(probs) == 0 {
		return 0, fmt.Errorf("samplecategorical: empty distribution")
	}

	var sum float64
	for _, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return 0, fmt.Errorf("samplecategorical: invalid "+
				"probability %v", p)
		}
		sum += p
	}
	if sum <= 0 {
		return 0, fmt.Errorf("samplecategorical: probabilities sum to %v",
			sum)
	}

	r := rng.Float64() * sum
	for i, p := range probs {
		r -= p
		if r <= 0 {
			return i, nil
		}
	}
	return len(probs) - 1, nil
}
