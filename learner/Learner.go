// Package learner implements reinforcement learning agents that
// gather experience by playing episodes and fit their networks from a
// replay memory.
package learner

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/raharth/gomatch/environment"
	"github.com/raharth/gomatch/memory"
	"github.com/raharth/gomatch/policy"
	"github.com/raharth/gomatch/utils/floatutils"
)

// rewardWindow is the number of trailing episodes the epoch results
// average the episode reward over.
const rewardWindow = 100

// Learner is an agent that alternates between playing episodes and
// fitting its function approximator on the gathered experience.
type Learner interface {
	// PlayEpisode runs a single episode with the behaviour policy,
	// memorizing every transition, and returns the total episodic
	// reward
	PlayEpisode(render bool) (float64, error)

	// EvalEpisode runs a single episode greedily without memorizing
	// and returns the total episodic reward
	EvalEpisode() (float64, error)

	// FitEpoch performs one fitting epoch over freshly sampled
	// batches of memory
	FitEpoch() (EpochResult, error)

	// History returns the learner's training history
	History() *History

	// Close releases the learner's virtual machines
	Close() error
}

// MemoryUpdater refreshes a learner's memory by playing episodes
// before each fitting epoch.
type MemoryUpdater struct {
	Episodes int // episodes to play per update
}

// Update plays the configured number of episodes.
func (m MemoryUpdater) Update(l Learner) error {
	if m.Episodes < 1 {
		return fmt.Errorf("update: episodes must be > 0, got %v", m.Episodes)
	}
	for i := 0; i < m.Episodes; i++ {
		if _, err := l.PlayEpisode(false); err != nil {
			return fmt.Errorf("update: episode %d: %v", i, err)
		}
	}
	return nil
}

// probModel exposes a logit-producing model as a probability model,
// so that selectors expecting a distribution can sample from a
// network that predicts unnormalized scores.
type probModel struct {
	model policy.Model
}

func (p probModel) Predict(obs []float64) ([]float64, error) {
	logits, err := p.model.Predict(obs)
	if err != nil {
		return nil, err
	}
	return floatutils.Softmax(logits, 1.0), nil
}

// stepRecorder memorizes one transition into an episode. Learners
// differ in which fields of a transition they store.
type stepRecorder func(ep *memory.Episode, state []float64,
	action policy.Action, reward float64, nextState []float64) error

// core holds the state every learner shares: the environment it acts
// in, the selector and model it acts with, the memory it fills and
// the history it accumulates.
type core struct {
	env      environment.Environment
	selector policy.Selector
	model    policy.Model
	mem      *memory.Memory
	history  *History
}

// playEpisode runs one full episode, recording each transition with
// record and memorizing the finished episode. When discount is true,
// the episode's rewards are replaced with discounted returns before
// the merge.
func (c *core) playEpisode(render bool, record stepRecorder,
	discount bool) (float64, error) {
	obs, err := c.env.Reset()
	if err != nil {
		return 0, fmt.Errorf("playepisode: could not reset environment: %v",
			err)
	}

	episode, err := c.mem.NewEpisode()
	if err != nil {
		return 0, fmt.Errorf("playepisode: %v", err)
	}

	total := 0.0
	steps := 0
	maxSteps := c.env.MaxEpisodeLength()
	for {
		state := vecData(obs)
		action, err := c.selector.Select(c.model, state)
		if err != nil {
			return 0, fmt.Errorf("playepisode: could not select action: %v",
				err)
		}

		next, reward, done, err := c.env.Step(action.Value)
		if err != nil {
			return 0, fmt.Errorf("playepisode: %v", err)
		}
		total += reward
		steps++

		if err := record(episode, state, action, reward,
			vecData(next)); err != nil {
			return 0, fmt.Errorf("playepisode: could not memorize step: %v",
				err)
		}

		if render {
			c.env.Render()
		}

		obs = next
		if done || (maxSteps > 0 && steps >= maxSteps) {
			break
		}
	}

	if discount {
		if err := episode.CumulReward(); err != nil {
			return 0, fmt.Errorf("playepisode: %v", err)
		}
	}
	if err := c.mem.MemorizeEpisode(episode); err != nil {
		return 0, fmt.Errorf("playepisode: %v", err)
	}

	c.history.recordEpisode(total)
	return total, nil
}

// evalEpisode runs one episode with a greedy selector, leaving the
// memory untouched.
func (c *core) evalEpisode() (float64, error) {
	greedy := policy.NewGreedy()

	obs, err := c.env.Reset()
	if err != nil {
		return 0, fmt.Errorf("evalepisode: could not reset environment: %v",
			err)
	}

	total := 0.0
	steps := 0
	maxSteps := c.env.MaxEpisodeLength()
	for {
		action, err := greedy.Select(c.model, vecData(obs))
		if err != nil {
			return 0, fmt.Errorf("evalepisode: could not select action: %v",
				err)
		}

		next, reward, done, err := c.env.Step(action.Value)
		if err != nil {
			return 0, fmt.Errorf("evalepisode: %v", err)
		}
		total += reward
		steps++

		obs = next
		if done || (maxSteps > 0 && steps >= maxSteps) {
			break
		}
	}
	return total, nil
}

// vecData copies the backing data of an observation vector.
func vecData(v *mat.VecDense) []float64 {
	data := v.RawVector().Data
	out := make([]float64, len(data))
	copy(out, data)
	return out
}

// padded tiles data up to batch rows of rowSize values each. The
// training graphs have a fixed batch dimension, so a short final
// batch is padded with its own leading rows rather than dropped.
func padded(data []float64, rowSize, rows, batch int) []float64 {
	if rows >= batch {
		return data
	}
	out := make([]float64, batch*rowSize)
	copy(out, data)
	for i := rows; i < batch; i++ {
		src := (i % rows) * rowSize
		copy(out[i*rowSize:(i+1)*rowSize], data[src:src+rowSize])
	}
	return out
}

// oneHot encodes actions as one-hot rows of width numActions.
func oneHot(actions []float64, numActions int) []float64 {
	out := make([]float64, len(actions)*numActions)
	for i, a := range actions {
		out[i*numActions+int(a)] = 1.0
	}
	return out
}
