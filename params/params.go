// Package params defines the parameter map exchanged between workers and the
// coordinator: a named mapping of dense numeric tensors.
package params

// Tensor is a dense numeric tensor, flattened to a single dimension. The
// shape associated with a parameter name is a contract between workers; the
// coordinator only requires that lengths agree per name within a round.
type Tensor []float64

// Map is one worker's contribution for a round, keyed by parameter name.
type Map map[string]Tensor

// Clone returns a deep copy of the map. Tensors are copied, so mutating the
// clone never affects the original.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for name, t := range m {
		ct := make(Tensor, len(t))
		copy(ct, t)
		out[name] = ct
	}

	return out
}
