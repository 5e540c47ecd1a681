package experiment

import (
	"fmt"

	"github.com/aunum/log"

	"github.com/raharth/gomatch/learner"
)

// Evaluator periodically measures the learner's greedy performance by
// playing evaluation episodes that leave the replay memory untouched.
// The mean evaluation reward is recorded into the learner's history.
type Evaluator struct {
	interval int
	episodes int
	epochs   int
	verbose  bool
}

// NewEvaluator returns an Evaluator running the given number of
// greedy episodes every interval epochs.
func NewEvaluator(interval, episodes int, verbose bool) (*Evaluator, error) {
	if interval < 1 {
		return nil, fmt.Errorf("newevaluator: interval must be > 0, "+
			"got %v", interval)
	}
	if episodes < 1 {
		return nil, fmt.Errorf("newevaluator: episodes must be > 0, "+
			"got %v", episodes)
	}
	return &Evaluator{interval: interval, episodes: episodes,
		verbose: verbose}, nil
}

// OnEpochEnd implements the Callback interface.
func (e *Evaluator) OnEpochEnd(l learner.Learner,
	_ learner.EpochResult) error {
	e.epochs++
	if e.epochs%e.interval != 0 {
		return nil
	}

	total := 0.0
	for i := 0; i < e.episodes; i++ {
		reward, err := l.EvalEpisode()
		if err != nil {
			return fmt.Errorf("onepochend: evaluation episode %d: %v", i,
				err)
		}
		total += reward
	}

	mean := total / float64(e.episodes)
	l.History().RecordEval(mean)
	if e.verbose {
		log.Infof("evaluation after epoch %d: mean greedy reward %.2f "+
			"over %d episodes", e.epochs, mean, e.episodes)
	}
	return nil
}
