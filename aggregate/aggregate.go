// Package aggregate merges per-worker parameter maps into one global map
// using elementwise federated averaging.
package aggregate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/absmach/rendezvous/params"
)

var (
	ErrNoUpdates     = errors.New("no updates provided for aggregation")
	ErrKeyMismatch   = errors.New("updates do not share the same parameter names")
	ErrShapeMismatch = errors.New("tensor lengths differ for the same parameter name")
)

// ExcludeFunc reports whether a parameter name must be omitted from the
// aggregate entirely.
type ExcludeFunc func(name string) bool

// SubstringExclude excludes any parameter whose name contains one of the
// given substrings. Normalization-layer statistics (e.g. "bn" running
// estimates) are per-worker quantities and must never be averaged.
func SubstringExclude(substrs ...string) ExcludeFunc {
	return func(name string) bool {
		for _, s := range substrs {
			if s != "" && strings.Contains(name, s) {
				return true
			}
		}

		return false
	}
}

type Aggregator interface {
	Aggregate(updates []params.Map) (params.Map, error)
}

// FedAvg computes the elementwise arithmetic mean of every included
// parameter across all updates. It holds no state and is safe for concurrent
// use.
type FedAvg struct {
	exclude ExcludeFunc
}

func NewFedAvg(exclude ExcludeFunc) Aggregator {
	if exclude == nil {
		exclude = func(string) bool { return false }
	}

	return &FedAvg{exclude: exclude}
}

func (f *FedAvg) Aggregate(updates []params.Map) (params.Map, error) {
	if len(updates) == 0 {
		return nil, ErrNoUpdates
	}

	first := updates[0]
	for _, u := range updates[1:] {
		if len(u) != len(first) {
			return nil, ErrKeyMismatch
		}
		for name := range first {
			if _, ok := u[name]; !ok {
				return nil, fmt.Errorf("%w: missing %q", ErrKeyMismatch, name)
			}
		}
	}

	sums := make(params.Map, len(first))
	for name, t := range first {
		if f.exclude(name) {
			continue
		}
		s := make(params.Tensor, len(t))
		copy(s, t)
		sums[name] = s
	}

	for _, u := range updates[1:] {
		for name, s := range sums {
			t := u[name]
			if len(t) != len(s) {
				return nil, fmt.Errorf("%w: %q", ErrShapeMismatch, name)
			}
			for i, v := range t {
				s[i] += v
			}
		}
	}

	// Divide by the number of updates actually collected, not the configured
	// quorum target.
	n := float64(len(updates))
	for _, s := range sums {
		for i := range s {
			s[i] /= n
		}
	}

	return sums, nil
}
