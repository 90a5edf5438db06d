package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/rendezvous/params"
)

func TestFedAvgAggregate(t *testing.T) {
	tests := []struct {
		name     string
		exclude  ExcludeFunc
		updates  []params.Map
		expected params.Map
		err      error
	}{
		{
			name: "mean of two scalars",
			updates: []params.Map{
				{"a": {2.0}},
				{"a": {4.0}},
			},
			expected: params.Map{"a": {3.0}},
		},
		{
			name: "mean of vectors across three updates",
			updates: []params.Map{
				{"w": {1.0, 2.0}, "b": {0.0}},
				{"w": {2.0, 4.0}, "b": {3.0}},
				{"w": {3.0, 6.0}, "b": {6.0}},
			},
			expected: params.Map{"w": {2.0, 4.0}, "b": {3.0}},
		},
		{
			name:    "normalization statistics omitted",
			exclude: SubstringExclude("bn"),
			updates: []params.Map{
				{"conv1.weight": {1.0}, "bn.running_mean": {5.0}},
				{"conv1.weight": {3.0}, "bn.running_mean": {7.0}},
			},
			expected: params.Map{"conv1.weight": {2.0}},
		},
		{
			name:    "no updates",
			updates: nil,
			err:     ErrNoUpdates,
		},
		{
			name: "mismatched key sets",
			updates: []params.Map{
				{"a": {1.0}},
				{"b": {1.0}},
			},
			err: ErrKeyMismatch,
		},
		{
			name: "mismatched tensor lengths",
			updates: []params.Map{
				{"a": {1.0, 2.0}},
				{"a": {1.0}},
			},
			err: ErrShapeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewFedAvg(tt.exclude)
			got, err := agg.Aggregate(tt.updates)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFedAvgDividesByActualCount(t *testing.T) {
	// Three updates collected even if a quorum of two was configured: the
	// divisor must be the collected count.
	agg := NewFedAvg(nil)
	got, err := agg.Aggregate([]params.Map{
		{"a": {3.0}},
		{"a": {6.0}},
		{"a": {9.0}},
	})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, got["a"][0], 1e-12)
}

func TestFedAvgDoesNotMutateInputs(t *testing.T) {
	u1 := params.Map{"a": {2.0}}
	u2 := params.Map{"a": {4.0}}

	_, err := NewFedAvg(nil).Aggregate([]params.Map{u1, u2})
	require.NoError(t, err)

	assert.Equal(t, params.Tensor{2.0}, u1["a"])
	assert.Equal(t, params.Tensor{4.0}, u2["a"])
}

func TestFedAvgOrderIndependentWithinTolerance(t *testing.T) {
	updates := []params.Map{
		{"a": {0.1}},
		{"a": {0.2}},
		{"a": {0.3}},
		{"a": {0.4}},
	}
	reversed := []params.Map{updates[3], updates[2], updates[1], updates[0]}

	agg := NewFedAvg(nil)
	fwd, err := agg.Aggregate(updates)
	require.NoError(t, err)
	rev, err := agg.Aggregate(reversed)
	require.NoError(t, err)

	assert.True(t, math.Abs(fwd["a"][0]-rev["a"][0]) < 1e-12)
}
