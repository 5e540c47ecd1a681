package policy

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Ensemble is a probability-based Selector that forwards the same
// observation through the model several times and reduces the
// replicated outputs to a mean distribution and a per-action standard
// deviation. With a stochastic model (e.g. one using dropout at
// prediction time) the repeated passes simulate an ensemble and the
// dispersion estimates the reliability of the prediction.
//
// The action is sampled from the mean distribution. The dispersion is
// reported on the returned Action but not consumed by the selection
// itself; it is available for downstream uncertainty-aware logic.
type Ensemble struct {
	predictions int
	rng         *rand.Rand
}

// NewEnsemble returns a Selector that reduces the given number of
// forward passes per selection.
func NewEnsemble(predictions int, seed int64) (*Ensemble, error) {
	if predictions < 1 {
		return nil, fmt.Errorf("newensemble: predictions must be >= 1, "+
			"got %v", predictions)
	}
	return &Ensemble{
		predictions: predictions,
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Select samples an action from the mean of the replicated model
// output distributions.
func (e *Ensemble) Select(m Model, obs []float64) (Action, error) {
	// samples[a] collects the predicted probability of action a over
	// all forward passes
	var samples [][]float64

	for i := 0; i < e.predictions; i++ {
		probs, err := m.Predict(obs)
		if err != nil {
			return Action{}, fmt.Errorf("select: %v", err)
		}
		if samples == nil {
			samples = make([][]float64, len(probs))
			for a := range samples {
				samples[a] = make([]float64, 0, e.predictions)
			}
		}
		if len(probs) != len(samples) {
			return Action{}, fmt.Errorf("select: inconsistent model "+
				"output size \n\twant(%v)\n\thave(%v)", len(samples),
				len(probs))
		}
		for a, p := range probs {
			samples[a] = append(samples[a], p)
		}
	}

	mean := make([]float64, len(samples))
	std := make([]float64, len(samples))
	for a := range samples {
		mean[a], std[a] = stat.MeanStdDev(samples[a], nil)
		if e.predictions == 1 {
			std[a] = 0
		}
	}

	action, err := sampleCategorical(mean, e.rng)
	if err != nil {
		return Action{}, fmt.Errorf("select: %v", err)
	}

	return Action{
		Value:   action,
		LogProb: math.Log(mean[action]),
		Std:     std,
	}, nil
}
