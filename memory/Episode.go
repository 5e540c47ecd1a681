package memory

import (
	"fmt"

	"github.com/gammazero/deque"
)

// Episode is an ephemeral, unbounded store of the records collected
// during a single environment rollout. At the end of the rollout the
// episode is merged into a learner's persistent Memory and discarded.
//
// Unlike Memory, an Episode never evicts: it grows with the episode
// and keeps records strictly in insertion order, which is what the
// discounted-return transform requires.
type Episode struct {
	fields []Field
	index  map[string]int
	gamma  float64

	records *deque.Deque[[][]float64]
}

// NewEpisode creates an empty episode store over the given fields with
// discount factor gamma.
func NewEpisode(fields []Field, gamma float64) (*Episode, error) {
	index, err := validateFields(fields)
	if err != nil {
		return nil, fmt.Errorf("newepisode: %v", err)
	}
	if gamma <= 0 || gamma > 1 {
		return nil, fmt.Errorf("newepisode: gamma must be in (0, 1], "+
			"got %v", gamma)
	}

	return &Episode{
		fields:  fields,
		index:   index,
		gamma:   gamma,
		records: deque.New[[][]float64](),
	}, nil
}

// Fields returns the field declaration of the episode store.
func (e *Episode) Fields() []Field {
	return e.fields
}

// Len returns the number of records memorized so far.
func (e *Episode) Len() int {
	return e.records.Len()
}

// Memorize appends one record to the episode. The values parameter
// holds one value per field, ordered according to fieldNames. The
// value slices are copied, so callers may reuse their backing arrays.
func (e *Episode) Memorize(values [][]float64, fieldNames []string) error {
	if err := checkValues(e.fields, e.index, values, fieldNames); err != nil {
		return fmt.Errorf("memorize: %v", err)
	}

	record := make([][]float64, len(e.fields))
	for i, name := range fieldNames {
		pos := e.index[name]
		record[pos] = make([]float64, len(values[i]))
		copy(record[pos], values[i])
	}
	e.records.PushBack(record)
	return nil
}

// CumulReward replaces every raw reward r_t held by the episode with
// the discounted return G_t = r_t + γ·G_{t+1}, traversing the episode
// from its last step backward with terminal boundary G_T = 0. The
// transform is O(T) in the episode length.
func (e *Episode) CumulReward() error {
	pos, ok := e.index[FieldReward]
	if !ok {
		return fmt.Errorf("cumulreward: no %v field declared", FieldReward)
	}
	if e.fields[pos].Size != 1 {
		return fmt.Errorf("cumulreward: %v field must be scalar", FieldReward)
	}

	ret := 0.0
	for i := e.records.Len() - 1; i >= 0; i-- {
		record := e.records.At(i)
		ret = record[pos][0] + e.gamma*ret
		record[pos][0] = ret
	}
	return nil
}

// record returns the i'th record in insertion order.
func (e *Episode) record(i int) [][]float64 {
	return e.records.At(i)
}

// fieldNames returns the declared field names in declaration order.
func (e *Episode) fieldNames() []string {
	names := make([]string, len(e.fields))
	for i, field := range e.fields {
		names[i] = field.Name
	}
	return names
}
