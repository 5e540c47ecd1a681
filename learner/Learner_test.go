package learner

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/raharth/gomatch/memory"
	"github.com/raharth/gomatch/policy"
)

// stubEnv is a deterministic environment whose observation is the
// current step index and whose episodes last exactly episodeLen steps
// unless capped earlier.
type stubEnv struct {
	episodeLen int
	maxSteps   int
	step       int
	resets     int
}

func (s *stubEnv) Reset() (*mat.VecDense, error) {
	s.step = 0
	s.resets++
	return mat.NewVecDense(1, []float64{0}), nil
}

func (s *stubEnv) Step(action int) (*mat.VecDense, float64, bool, error) {
	if action < 0 || action >= s.NumActions() {
		return nil, 0, false, fmt.Errorf("step: invalid action %v", action)
	}
	s.step++
	done := s.episodeLen > 0 && s.step >= s.episodeLen
	obs := mat.NewVecDense(1, []float64{float64(s.step)})
	return obs, 1.0, done, nil
}

func (s *stubEnv) NumActions() int       { return 2 }
func (s *stubEnv) ObsSize() int          { return 1 }
func (s *stubEnv) MaxEpisodeLength() int { return s.maxSteps }
func (s *stubEnv) Render()               {}

// constModel always predicts the same values, making action 1 the
// greedy choice.
type constModel struct{}

func (constModel) Predict(obs []float64) ([]float64, error) {
	return []float64{0.2, 0.8}, nil
}

func newTestCore(t *testing.T, env *stubEnv, capacity int) *core {
	fields := []memory.Field{
		{Name: memory.FieldState, Size: 1},
		{Name: memory.FieldAction, Size: 1},
		{Name: memory.FieldReward, Size: 1},
	}
	mem, err := memory.New(fields, capacity, 0.5, capacity, capacity, 42)
	require.NoError(t, err)

	return &core{
		env:      env,
		selector: policy.NewGreedy(),
		model:    constModel{},
		mem:      mem,
		history:  NewHistory(),
	}
}

func recordBasic(ep *memory.Episode, state []float64, action policy.Action,
	reward float64, _ []float64) error {
	return ep.Memorize([][]float64{state, {float64(action.Value)},
		{reward}}, []string{memory.FieldState, memory.FieldAction,
		memory.FieldReward})
}

func TestPlayEpisodeMemorizesDiscountedReturns(t *testing.T) {
	env := &stubEnv{episodeLen: 3}
	c := newTestCore(t, env, 10)

	total, err := c.playEpisode(false, recordBasic, true)
	require.NoError(t, err)
	require.Equal(t, 3.0, total)
	require.Equal(t, 3, c.mem.Len())

	batches, err := c.mem.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 1)

	returns := append([]float64(nil),
		batches[0].Field(memory.FieldReward)...)
	require.ElementsMatch(t, []float64{1.75, 1.5, 1.0}, returns)
}

func TestPlayEpisodeRawRewards(t *testing.T) {
	env := &stubEnv{episodeLen: 3}
	c := newTestCore(t, env, 10)

	_, err := c.playEpisode(false, recordBasic, false)
	require.NoError(t, err)

	batches, err := c.mem.Batches()
	require.NoError(t, err)
	for _, r := range batches[0].Field(memory.FieldReward) {
		require.Equal(t, 1.0, r)
	}
}

func TestPlayEpisodeHonorsStepCap(t *testing.T) {
	env := &stubEnv{episodeLen: 0, maxSteps: 4} // never terminates
	c := newTestCore(t, env, 10)

	total, err := c.playEpisode(false, recordBasic, false)
	require.NoError(t, err)
	require.Equal(t, 4.0, total)
	require.Equal(t, 4, c.mem.Len())
}

func TestPlayEpisodeTracksBestReward(t *testing.T) {
	c := newTestCore(t, &stubEnv{episodeLen: 2}, 10)
	_, err := c.playEpisode(false, recordBasic, false)
	require.NoError(t, err)

	c.env = &stubEnv{episodeLen: 5}
	_, err = c.playEpisode(false, recordBasic, false)
	require.NoError(t, err)

	require.Equal(t, 2, c.history.Episodes())
	require.Equal(t, 5.0, c.history.BestReward())
}

func TestEvalEpisodeLeavesMemoryUntouched(t *testing.T) {
	env := &stubEnv{episodeLen: 3}
	c := newTestCore(t, env, 10)

	total, err := c.evalEpisode()
	require.NoError(t, err)
	require.Equal(t, 3.0, total)
	require.Equal(t, 0, c.mem.Len())
	require.Equal(t, 0, c.history.Episodes())
}

// stubLearner counts PlayEpisode calls for the MemoryUpdater test.
type stubLearner struct {
	played int
}

func (s *stubLearner) PlayEpisode(bool) (float64, error) {
	s.played++
	return 1.0, nil
}

func (s *stubLearner) EvalEpisode() (float64, error)  { return 0, nil }
func (s *stubLearner) FitEpoch() (EpochResult, error) { return EpochResult{}, nil }
func (s *stubLearner) History() *History              { return nil }
func (s *stubLearner) Close() error                   { return nil }

func TestMemoryUpdaterPlaysConfiguredEpisodes(t *testing.T) {
	l := &stubLearner{}
	require.NoError(t, MemoryUpdater{Episodes: 5}.Update(l))
	require.Equal(t, 5, l.played)

	require.Error(t, MemoryUpdater{Episodes: 0}.Update(l))
}

func TestHistoryMeanReward(t *testing.T) {
	h := NewHistory()
	require.True(t, math.IsNaN(h.MeanReward(5)))
	require.True(t, math.IsInf(h.BestReward(), -1))

	for _, r := range []float64{1, 2, 3, 4} {
		h.recordEpisode(r)
	}
	require.Equal(t, 3.5, h.MeanReward(2))
	require.Equal(t, 2.5, h.MeanReward(0))  // whole history
	require.Equal(t, 2.5, h.MeanReward(10)) // window larger than history
	require.Equal(t, 4.0, h.BestReward())
}

func TestHistoryLastEpoch(t *testing.T) {
	h := NewHistory()
	_, err := h.LastEpoch()
	require.Error(t, err)

	h.recordEpoch(EpochResult{Epoch: 0, Loss: 1.5, Batches: 3})
	h.recordEpoch(EpochResult{Epoch: 1, Loss: 0.5, Batches: 3})

	last, err := h.LastEpoch()
	require.NoError(t, err)
	require.Equal(t, 1, last.Epoch)
	require.Equal(t, 0.5, last.Loss)
}

func TestProbModelNormalizes(t *testing.T) {
	probs, err := probModel{model: constModel{}}.Predict([]float64{0})
	require.NoError(t, err)

	sum := 0.0
	for _, p := range probs {
		require.Greater(t, p, 0.0)
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-12)
	require.Greater(t, probs[1], probs[0])
}

func TestPadded(t *testing.T) {
	// Full batches pass through untouched
	data := []float64{1, 2, 3, 4}
	require.Equal(t, data, padded(data, 2, 2, 2))

	// Short batches are tiled from their own rows
	out := padded([]float64{1, 2, 3, 4}, 2, 2, 3)
	require.Equal(t, []float64{1, 2, 3, 4, 1, 2}, out)
}

func TestOneHot(t *testing.T) {
	out := oneHot([]float64{1, 0, 2}, 3)
	require.Equal(t, []float64{
		0, 1, 0,
		1, 0, 0,
		0, 0, 1,
	}, out)
}
