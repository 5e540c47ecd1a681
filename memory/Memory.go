// Package memory implements the replay memory used by the learners in
// this module: a bounded ring buffer of named per-step records plus an
// ephemeral per-episode store.
package memory

import (
	"fmt"
	"math/rand"
)

// Memory is a fixed-capacity replay buffer of named per-step records.
//
// All fields at a given index describe the same time step. Records are
// stored in flat float64 arenas, one arena per field, indexed by an
// explicit insertion cursor. Once the buffer is full the cursor wraps
// and the oldest record is overwritten, so insertion order is not
// globally preserved past the capacity boundary.
type Memory struct {
	fields []Field
	index  map[string]int

	capacity  int
	gamma     float64
	nSamples  int
	batchSize int

	// data[i] is the arena for fields[i], holding capacity records of
	// fields[i].Size float64's each.
	data   [][]float64
	fill   int
	cursor int

	rng *rand.Rand
}

// New creates an empty Memory over the given fields.
//
// The capacity parameter bounds the number of records held; once
// reached, memorizing evicts the oldest record. Batches() draws
// nSamples records without replacement and groups them into batches
// of batchSize. The discount factor gamma is carried by the Memory so
// that episode stores created from it share the same discounting.
func New(fields []Field, capacity int, gamma float64, nSamples, batchSize int,
	seed int64) (*Memory, error) {
	index, err := validateFields(fields)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1, got %v", capacity)
	}
	if gamma <= 0 || gamma > 1 {
		return nil, fmt.Errorf("new: gamma must be in (0, 1], got %v", gamma)
	}
	if nSamples < 1 {
		return nil, fmt.Errorf("new: nSamples must be >= 1, got %v", nSamples)
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("new: batchSize must be >= 1, got %v",
			batchSize)
	}

	data := make([][]float64, len(fields))
	for i, field := range fields {
		data[i] = make([]float64, capacity*field.Size)
	}

	return &Memory{
		fields:    fields,
		index:     index,
		capacity:  capacity,
		gamma:     gamma,
		nSamples:  nSamples,
		batchSize: batchSize,
		data:      data,
		fill:      0,
		cursor:    0,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Fields returns the field declaration of the Memory.
func (m *Memory) Fields() []Field {
	return m.fields
}

// Gamma returns the discount factor carried by the Memory.
func (m *Memory) Gamma() float64 {
	return m.gamma
}

// Len returns the number of records currently held.
func (m *Memory) Len() int {
	return m.fill
}

// Capacity returns the maximum number of records the Memory can hold.
func (m *Memory) Capacity() int {
	return m.capacity
}

// BatchSize returns the size of the batches produced by Batches().
func (m *Memory) BatchSize() int {
	return m.batchSize
}

// NewEpisode returns an empty episode store sharing the Memory's field
// declaration and discount factor.
func (m *Memory) NewEpisode() (*Episode, error) {
	return NewEpisode(m.fields, m.gamma)
}

// Memorize appends one record, mapping values onto the declared fields
// according to fieldNames. If the Memory is at capacity, the oldest
// record is overwritten.
func (m *Memory) Memorize(values [][]float64, fieldNames []string) error {
	if err := checkValues(m.fields, m.index, values, fieldNames); err != nil {
		return fmt.Errorf("memorize: %v", err)
	}

	for i, name := range fieldNames {
		pos := m.index[name]
		size := m.fields[pos].Size
		start := m.cursor * size
		copy(m.data[pos][start:start+size], values[i])
	}

	m.cursor = (m.cursor + 1) % m.capacity
	if m.fill < m.capacity {
		m.fill++
	}
	return nil
}

// MemorizeEpisode merges an episode store into the Memory, oldest
// record first. The episode must declare the same fields as the
// Memory.
func (m *Memory) MemorizeEpisode(e *Episode) error {
	if len(e.fields) != len(m.fields) {
		return fmt.Errorf("memorizeepisode: field mismatch \n\twant(%v)"+
			"\n\thave(%v)", m.fields, e.fields)
	}
	for _, field := range e.fields {
		pos, ok := m.index[field.Name]
		if !ok || m.fields[pos].Size != field.Size {
			return fmt.Errorf("memorizeepisode: field mismatch \n\twant(%v)"+
				"\n\thave(%v)", m.fields, e.fields)
		}
	}

	names := e.fieldNames()
	for i := 0; i < e.Len(); i++ {
		if err := m.Memorize(e.record(i), names); err != nil {
			return fmt.Errorf("memorizeepisode: %v", err)
		}
	}
	return nil
}

// Batch is one mini-batch of sampled records. Each field is returned
// as a flat float64 slice aligned across the sampled indices.
type Batch struct {
	n    int
	data map[string][]float64
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return b.n
}

// Field returns the batched values of the named field. The slice holds
// Len() * Size values in record-major order.
func (b Batch) Field(name string) []float64 {
	return b.data[name]
}

// Batches samples records uniformly at random without replacement and
// groups them into mini-batches of at most BatchSize() records each.
//
// The number of records drawn is the minimum of nSamples and Len(), so
// an underfilled Memory yields a capped sample rather than an error.
// Sampling an empty Memory fails with an error satisfying
// IsEmptyBuffer.
func (m *Memory) Batches() ([]Batch, error) {
	if m.fill == 0 {
		return nil, &MemoryError{Op: "batches", Err: errEmptyBuffer}
	}

	n := m.nSamples
	if n > m.fill {
		n = m.fill
	}
	indices := m.rng.Perm(m.fill)[:n]

	batches := make([]Batch, 0, (n+m.batchSize-1)/m.batchSize)
	for start := 0; start < n; start += m.batchSize {
		stop := start + m.batchSize
		if stop > n {
			stop = n
		}
		batches = append(batches, m.gather(indices[start:stop]))
	}
	return batches, nil
}

// gather copies the records at the given arena indices into a Batch.
func (m *Memory) gather(indices []int) Batch {
	data := make(map[string][]float64, len(m.fields))
	for pos, field := range m.fields {
		values := make([]float64, len(indices)*field.Size)
		for i, index := range indices {
			start := index * field.Size
			copy(values[i*field.Size:(i+1)*field.Size],
				m.data[pos][start:start+field.Size])
		}
		data[field.Name] = values
	}
	return Batch{n: len(indices), data: data}
}
