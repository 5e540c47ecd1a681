package learner

import (
	"fmt"
	"math"
)

// EpochResult summarizes one fitting epoch.
type EpochResult struct {
	Epoch      int     // index of the epoch, starting from 0
	Loss       float64 // mean training loss over the epoch's batches
	Batches    int     // number of batches the epoch trained on
	MeanReward float64 // mean episode reward at the end of the epoch
	BestReward float64 // best episode reward seen so far
}

// History records everything a learner has experienced: the total
// reward of every played episode, the result of every fitting epoch
// and evaluation rewards recorded by callbacks. All slices grow
// monotonically, so History can be snapshotted and restored as-is.
type History struct {
	Rewards     []float64     // total reward per training episode
	Epochs      []EpochResult // one result per fitting epoch
	EvalRewards []float64     // rewards recorded by evaluation runs
	Best        float64       // highest episode reward seen so far
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{Best: math.Inf(-1)}
}

// Episodes returns the number of episodes played so far.
func (h *History) Episodes() int {
	return len(h.Rewards)
}

// BestReward returns the highest total episode reward recorded, or
// -Inf if no episode has been played.
func (h *History) BestReward() float64 {
	return h.Best
}

// LastEpoch returns the most recent epoch result.
func (h *History) LastEpoch() (EpochResult, error) {
	if len(h.Epochs) == 0 {
		return EpochResult{}, fmt.Errorf("lastepoch: no epochs recorded")
	}
	return h.Epochs[len(h.Epochs)-1], nil
}

// MeanReward returns the mean total reward over the last window
// episodes, or over all episodes if fewer have been played. It
// returns NaN when no episode has been played.
func (h *History) MeanReward(window int) float64 {
	n := len(h.Rewards)
	if n == 0 {
		return math.NaN()
	}
	if window <= 0 || window > n {
		window = n
	}

	total := 0.0
	for _, r := range h.Rewards[n-window:] {
		total += r
	}
	return total / float64(window)
}

// RecordEval records the total reward of an evaluation episode.
// Evaluation rewards are kept apart from training rewards and do not
// affect BestReward.
func (h *History) RecordEval(reward float64) {
	h.EvalRewards = append(h.EvalRewards, reward)
}

func (h *History) recordEpisode(reward float64) {
	h.Rewards = append(h.Rewards, reward)
	if reward > h.Best {
		h.Best = reward
	}
}

func (h *History) recordEpoch(result EpochResult) {
	h.Epochs = append(h.Epochs, result)
}
