package memory

import "fmt"

// Field declares one named slot of a record. Every record stores Size
// float64's for the field, so higher-dimensional data (e.g. state
// observations) must be flattened before memorizing.
type Field struct {
	Name string
	Size int
}

// Common field names used by the learners in this module.
const (
	FieldState    string = "state"
	FieldAction   string = "action"
	FieldReward   string = "reward"
	FieldNewState string = "new_state"
	FieldLogProb  string = "log_prob"
)

// validateFields ensures a field declaration is usable: at least one
// field, positive sizes, and no duplicate names. It returns an index
// from field name to its position in the declaration.
func validateFields(fields []Field) (map[string]int, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields declared")
	}

	index := make(map[string]int, len(fields))
	for i, field := range fields {
		if field.Size < 1 {
			return nil, fmt.Errorf("field %v must have size > 0, got %v",
				field.Name, field.Size)
		}
		if _, exists := index[field.Name]; exists {
			return nil, fmt.Errorf("duplicate field %v", field.Name)
		}
		index[field.Name] = i
	}
	return index, nil
}

// checkValues ensures that a record provides exactly the declared
// fields with correctly sized values. The fieldNames parameter gives
// the ordering of values, which need not be the declaration order.
func checkValues(fields []Field, index map[string]int, values [][]float64,
	fieldNames []string) error {
	if len(fieldNames) != len(fields) {
		return fmt.Errorf("invalid number of fields \n\twant(%v)"+
			"\n\thave(%v)", len(fields), len(fieldNames))
	}
	if len(values) != len(fieldNames) {
		return fmt.Errorf("invalid number of values \n\twant(%v)"+
			"\n\thave(%v)", len(fieldNames), len(values))
	}

	for i, name := range fieldNames {
		pos, ok := index[name]
		if !ok {
			return fmt.Errorf("unknown field %v", name)
		}
		if len(values[i]) != fields[pos].Size {
			return fmt.Errorf("invalid size for field %v \n\twant(%v)"+
				"\n\thave(%v)", name, fields[pos].Size, len(values[i]))
		}
	}
	return nil
}
