package policy

import (
	"fmt"

	"github.com/raharth/gomatch/utils/floatutils"
)

// Greedy always selects the action of maximal predicted value, taking
// the first maximal index on ties. It is deterministic given the model
// output and is used for evaluation runs.
type Greedy struct{}

// NewGreedy returns a greedy Selector.
func NewGreedy() *Greedy {
	return &Greedy{}
}

// Select returns the argmax action.
func (g *Greedy) Select(m Model, obs []float64) (Action, error) {
	qs, err := m.Predict(obs)
	if err != nil {
		return Action{}, fmt.Errorf("select: %v", err)
	}
	if len(qs) == 0 {
		return Action{}, fmt.Errorf("select: model predicted no " +
			"action values")
	}

	return Action{Value: floatutils.ArgMax(qs)}, nil
}
