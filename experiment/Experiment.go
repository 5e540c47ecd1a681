// Package experiment implements the outer training loop driving a
// learner: refresh the replay memory, fit an epoch, then hand the
// result to registered callbacks.
package experiment

import (
	"fmt"

	"github.com/aunum/log"

	"github.com/raharth/gomatch/learner"
)

// Callback observes the training loop. Callbacks run in registration
// order after every fitting epoch.
type Callback interface {
	// OnEpochEnd is invoked after each fitting epoch with the epoch's
	// result. An error aborts the experiment.
	OnEpochEnd(l learner.Learner, result learner.EpochResult) error
}

// Experiment runs a learner for a fixed number of epochs, playing
// episodes between epochs through a MemoryUpdater.
type Experiment struct {
	learner   learner.Learner
	updater   learner.MemoryUpdater
	epochs    int
	callbacks []Callback
	verbose   bool
}

// New returns an Experiment running l for the given number of epochs.
// The callback slice is copied, so later changes to the caller's
// slice do not leak into the experiment.
func New(l learner.Learner, updater learner.MemoryUpdater, epochs int,
	callbacks []Callback) (*Experiment, error) {
	if epochs < 1 {
		return nil, fmt.Errorf("new: epochs must be > 0, got %v", epochs)
	}
	if updater.Episodes < 1 {
		return nil, fmt.Errorf("new: updater must play at least one "+
			"episode, got %v", updater.Episodes)
	}

	registered := make([]Callback, len(callbacks))
	copy(registered, callbacks)

	return &Experiment{
		learner:   l,
		updater:   updater,
		epochs:    epochs,
		callbacks: registered,
		verbose:   true,
	}, nil
}

// Register adds a callback to the (possibly already running)
// experiment.
func (e *Experiment) Register(c Callback) {
	e.callbacks = append(e.callbacks, c)
}

// Quiet disables the experiment's own progress logging. Callbacks
// still run.
func (e *Experiment) Quiet() {
	e.verbose = false
}

// Run executes the full training loop. The learner's history holds
// the results afterwards.
func (e *Experiment) Run() error {
	for epoch := 0; epoch < e.epochs; epoch++ {
		if err := e.updater.Update(e.learner); err != nil {
			return fmt.Errorf("run: could not update memory: %v", err)
		}

		result, err := e.learner.FitEpoch()
		if err != nil {
			return fmt.Errorf("run: could not fit epoch %d: %v", epoch, err)
		}

		if e.verbose {
			log.Infof("epoch %d/%d   loss %.5f   mean reward %.2f   "+
				"best %.2f", epoch+1, e.epochs, result.Loss,
				e.learner.History().MeanReward(100),
				e.learner.History().BestReward())
		}

		for _, c := range e.callbacks {
			if err := c.OnEpochEnd(e.learner, result); err != nil {
				return fmt.Errorf("run: callback failed on epoch %d: %v",
					epoch, err)
			}
		}
	}

	if e.verbose {
		log.Successf("finished %d epochs, best episode reward %.2f",
			e.epochs, e.learner.History().BestReward())
	}
	return nil
}
