package memory

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func scalarFields() []Field {
	return []Field{{Name: FieldLogProb, Size: 1}, {Name: FieldReward, Size: 1}}
}

func TestCumulReward(t *testing.T) {
	episode, err := NewEpisode(scalarFields(), 0.5)
	require.NoError(t, err)

	names := []string{FieldLogProb, FieldReward}
	for i := 0; i < 3; i++ {
		err = episode.Memorize([][]float64{{0.0}, {1.0}}, names)
		require.NoError(t, err)
	}

	require.NoError(t, episode.CumulReward())

	want := []float64{1.75, 1.5, 1.0}
	for i := 0; i < episode.Len(); i++ {
		require.InDelta(t, want[i], episode.record(i)[1][0], 1e-12)
	}
}

func TestCumulRewardRecurrence(t *testing.T) {
	gamma := 0.9
	rewards := []float64{-1.0, 2.5, 0.0, 3.0, -0.5}

	episode, err := NewEpisode(scalarFields(), gamma)
	require.NoError(t, err)

	names := []string{FieldLogProb, FieldReward}
	for _, r := range rewards {
		require.NoError(t, episode.Memorize([][]float64{{0.0}, {r}}, names))
	}
	require.NoError(t, episode.CumulReward())

	// G_t = r_t + gamma * G_{t+1} with G_T = 0
	want := 0.0
	for i := len(rewards) - 1; i >= 0; i-- {
		want = rewards[i] + gamma*want
		require.InDelta(t, want, episode.record(i)[1][0], 1e-12)
	}
}

func TestCumulRewardRequiresRewardField(t *testing.T) {
	fields := []Field{{Name: FieldState, Size: 2}}
	episode, err := NewEpisode(fields, 0.9)
	require.NoError(t, err)
	require.Error(t, episode.CumulReward())
}

// sampleAll drains the memory by sampling and returns every value of
// the reward field seen across all batches.
func sampleAll(t *testing.T, m *Memory) []float64 {
	batches, err := m.Batches()
	require.NoError(t, err)

	var rewards []float64
	for _, batch := range batches {
		rewards = append(rewards, batch.Field(FieldReward)...)
	}
	sort.Float64s(rewards)
	return rewards
}

func TestRingBufferOverflow(t *testing.T) {
	m, err := New(scalarFields(), 3, 0.9, 3, 3, 42)
	require.NoError(t, err)

	names := []string{FieldLogProb, FieldReward}
	for i := 1; i <= 5; i++ {
		err = m.Memorize([][]float64{{0.0}, {float64(i)}}, names)
		require.NoError(t, err)
	}

	// Capacity + 2 inserts leave exactly the 3 most recent records.
	require.Equal(t, 3, m.Len())
	require.Equal(t, []float64{3.0, 4.0, 5.0}, sampleAll(t, m))
}

func TestEmptyBufferError(t *testing.T) {
	m, err := New(scalarFields(), 10, 0.9, 4, 2, 42)
	require.NoError(t, err)

	_, err = m.Batches()
	require.Error(t, err)
	require.True(t, IsEmptyBuffer(err))
}

func TestCappedSample(t *testing.T) {
	m, err := New(scalarFields(), 10, 0.9, 5, 2, 42)
	require.NoError(t, err)

	names := []string{FieldLogProb, FieldReward}
	require.NoError(t, m.Memorize([][]float64{{0.0}, {1.0}}, names))
	require.NoError(t, m.Memorize([][]float64{{0.0}, {2.0}}, names))

	// Fewer records than nSamples: the draw is capped at Len().
	require.Equal(t, []float64{1.0, 2.0}, sampleAll(t, m))
}

func TestBatchGrouping(t *testing.T) {
	m, err := New(scalarFields(), 10, 0.9, 5, 2, 42)
	require.NoError(t, err)

	names := []string{FieldLogProb, FieldReward}
	for i := 0; i < 7; i++ {
		require.NoError(t, m.Memorize([][]float64{{0.0}, {1.0}}, names))
	}

	batches, err := m.Batches()
	require.NoError(t, err)
	require.Len(t, batches, 3)
	require.Equal(t, 2, batches[0].Len())
	require.Equal(t, 2, batches[1].Len())
	require.Equal(t, 1, batches[2].Len())
}

func TestSamplesWithoutReplacement(t *testing.T) {
	m, err := New(scalarFields(), 8, 0.9, 8, 8, 42)
	require.NoError(t, err)

	names := []string{FieldLogProb, FieldReward}
	for i := 0; i < 8; i++ {
		err = m.Memorize([][]float64{{0.0}, {float64(i)}}, names)
		require.NoError(t, err)
	}

	// Sampling the full buffer must return each record exactly once.
	want := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	require.Equal(t, want, sampleAll(t, m))
}

func TestMemorizeFieldMismatch(t *testing.T) {
	m, err := New(scalarFields(), 4, 0.9, 2, 2, 42)
	require.NoError(t, err)

	// Unknown field name
	err = m.Memorize([][]float64{{0.0}, {1.0}},
		[]string{FieldLogProb, "no_such_field"})
	require.Error(t, err)

	// Wrong value size
	err = m.Memorize([][]float64{{0.0, 0.0}, {1.0}},
		[]string{FieldLogProb, FieldReward})
	require.Error(t, err)

	// Missing field
	err = m.Memorize([][]float64{{0.0}}, []string{FieldReward})
	require.Error(t, err)
}

func TestMemorizeEpisode(t *testing.T) {
	m, err := New(scalarFields(), 2, 0.9, 2, 2, 42)
	require.NoError(t, err)

	episode, err := m.NewEpisode()
	require.NoError(t, err)

	names := []string{FieldLogProb, FieldReward}
	for i := 1; i <= 3; i++ {
		err = episode.Memorize([][]float64{{0.0}, {float64(i)}}, names)
		require.NoError(t, err)
	}

	require.NoError(t, m.MemorizeEpisode(episode))

	// Merging 3 records into capacity 2 evicts the oldest.
	require.Equal(t, 2, m.Len())
	require.Equal(t, []float64{2.0, 3.0}, sampleAll(t, m))
}

func TestInvalidConstruction(t *testing.T) {
	fields := scalarFields()

	_, err := New(fields, 0, 0.9, 2, 2, 42)
	require.Error(t, err)

	_, err = New(fields, 4, 0.0, 2, 2, 42)
	require.Error(t, err)

	_, err = New(fields, 4, 1.5, 2, 2, 42)
	require.Error(t, err)

	_, err = New([]Field{{Name: "a", Size: 1}, {Name: "a", Size: 1}},
		4, 0.9, 2, 2, 42)
	require.Error(t, err)
}
