package policy

import (
	"fmt"
	"math/rand"

	"github.com/raharth/gomatch/utils/floatutils"
)

// EGreedy selects the action of maximal predicted value with
// probability epsilon, and otherwise selects uniformly at random from
// the declared action space. Ties between maximal action values are
// broken uniformly at random.
//
// Note the convention: epsilon is the probability of the greedy
// action, so epsilon = 1 is fully greedy and epsilon = 0 is fully
// random.
type EGreedy struct {
	actions []int
	epsilon float64
	rng     *rand.Rand
}

// NewEGreedy returns an epsilon-greedy Selector over the given action
// space.
func NewEGreedy(actions []int, epsilon float64, seed int64) (*EGreedy, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("newegreedy: empty action space")
	}
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newegreedy: epsilon must be in [0, 1], "+
			"got %v", epsilon)
	}

	return &EGreedy{
		actions: actions,
		epsilon: epsilon,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// Epsilon returns the probability of greedy selection.
func (e *EGreedy) Epsilon() float64 {
	return e.epsilon
}

// SetEpsilon sets the probability of greedy selection.
func (e *EGreedy) SetEpsilon(epsilon float64) {
	e.epsilon = epsilon
}

// Select chooses the argmax action with probability epsilon and a
// uniformly random action otherwise.
func (e *EGreedy) Select(m Model, obs []float64) (Action, error) {
	qs, err := m.Predict(obs)
	if err != nil {
		return Action{}, fmt.Errorf("select: %v", err)
	}
	if len(qs) == 0 {
		return Action{}, fmt.Errorf("select: model predicted no " +
			"action values")
	}

	if e.rng.Float64() < e.epsilon {
		_, maxIndices := floatutils.MaxSlice(qs)
		return Action{Value: maxIndices[e.rng.Intn(len(maxIndices))]}, nil
	}

	return Action{Value: e.actions[e.rng.Intn(len(e.actions))]}, nil
}
