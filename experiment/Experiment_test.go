package experiment

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raharth/gomatch/learner"
)

// fakeLearner records the calls the experiment loop makes.
type fakeLearner struct {
	played  int
	fitted  int
	evals   int
	history *learner.History
	fitErr  error
}

func newFakeLearner() *fakeLearner {
	return &fakeLearner{history: learner.NewHistory()}
}

func (f *fakeLearner) PlayEpisode(bool) (float64, error) {
	f.played++
	f.history.Rewards = append(f.history.Rewards, float64(f.played))
	f.history.Best = float64(f.played)
	return float64(f.played), nil
}

func (f *fakeLearner) EvalEpisode() (float64, error) {
	f.evals++
	return 10.0, nil
}

func (f *fakeLearner) FitEpoch() (learner.EpochResult, error) {
	if f.fitErr != nil {
		return learner.EpochResult{}, f.fitErr
	}
	f.fitted++
	result := learner.EpochResult{Epoch: f.fitted - 1, Loss: 1.0,
		Batches: 2}
	f.history.Epochs = append(f.history.Epochs, result)
	return result, nil
}

func (f *fakeLearner) History() *learner.History { return f.history }
func (f *fakeLearner) Close() error              { return nil }

// countingCallback records how often it ran.
type countingCallback struct {
	calls int
}

func (c *countingCallback) OnEpochEnd(learner.Learner,
	learner.EpochResult) error {
	c.calls++
	return nil
}

func TestExperimentRunsUpdaterAndEpochs(t *testing.T) {
	l := newFakeLearner()
	cb := &countingCallback{}

	exp, err := New(l, learner.MemoryUpdater{Episodes: 3}, 4,
		[]Callback{cb})
	require.NoError(t, err)
	exp.Quiet()

	require.NoError(t, exp.Run())
	require.Equal(t, 12, l.played) // 3 episodes per epoch
	require.Equal(t, 4, l.fitted)
	require.Equal(t, 4, cb.calls)
}

func TestExperimentCopiesCallbackSlice(t *testing.T) {
	l := newFakeLearner()
	cb := &countingCallback{}
	callbacks := []Callback{cb}

	exp, err := New(l, learner.MemoryUpdater{Episodes: 1}, 2, callbacks)
	require.NoError(t, err)
	exp.Quiet()

	// Mutating the caller's slice must not affect the experiment
	callbacks[0] = &countingCallback{}

	require.NoError(t, exp.Run())
	require.Equal(t, 2, cb.calls)
}

func TestExperimentPropagatesFitError(t *testing.T) {
	l := newFakeLearner()
	l.fitErr = fmt.Errorf("boom")

	exp, err := New(l, learner.MemoryUpdater{Episodes: 1}, 2, nil)
	require.NoError(t, err)
	exp.Quiet()

	require.Error(t, exp.Run())
}

func TestExperimentRejectsInvalidConfig(t *testing.T) {
	l := newFakeLearner()

	_, err := New(l, learner.MemoryUpdater{Episodes: 1}, 0, nil)
	require.Error(t, err)

	_, err = New(l, learner.MemoryUpdater{Episodes: 0}, 1, nil)
	require.Error(t, err)
}

func TestCheckpointerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "history")

	l := newFakeLearner()
	l.history.Rewards = []float64{1, 2, 3}
	l.history.Best = 3
	l.history.Epochs = []learner.EpochResult{{Epoch: 0, Loss: 0.5,
		Batches: 2}}

	check, err := NewCheckpointer(2, name)
	require.NoError(t, err)

	// Only every second epoch writes a file
	require.NoError(t, check.OnEpochEnd(l, learner.EpochResult{}))
	require.NoError(t, check.OnEpochEnd(l, learner.EpochResult{}))

	loaded, err := LoadHistory(name + "1.bin")
	require.NoError(t, err)
	require.Equal(t, l.history.Rewards, loaded.Rewards)
	require.Equal(t, l.history.Best, loaded.Best)
	require.Equal(t, l.history.Epochs, loaded.Epochs)

	_, err = LoadHistory(name + "2.bin")
	require.Error(t, err) // second snapshot not yet due
}

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(0, "data", ".bin")
	require.Equal(t, "data1.bin", next())
	require.Equal(t, "data2.bin", next())
}

func TestEvaluatorRecordsMeanReward(t *testing.T) {
	l := newFakeLearner()

	eval, err := NewEvaluator(2, 3, false)
	require.NoError(t, err)

	require.NoError(t, eval.OnEpochEnd(l, learner.EpochResult{}))
	require.Empty(t, l.history.EvalRewards)

	require.NoError(t, eval.OnEpochEnd(l, learner.EpochResult{}))
	require.Equal(t, 3, l.evals)
	require.Equal(t, []float64{10.0}, l.history.EvalRewards)
}

func TestSmoothed(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	require.Equal(t, values, smoothed(values, 1))
	require.Equal(t, []float64{1, 1.5, 2.5, 3.5}, smoothed(values, 2))
	require.Equal(t, []float64{1, 1.5, 2, 2.5}, smoothed(values, 10))
}
