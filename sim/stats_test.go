package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simul-sim/simul/sim/internal/testutil"
)

func TestSummarizeWaits(t *testing.T) {
	tests := []struct {
		name      string
		durations []DiscreteTime
		want      WaitStatistics
	}{
		{
			name: "empty",
			want: WaitStatistics{},
		},
		{
			name:      "single",
			durations: []DiscreteTime{4},
			want:      WaitStatistics{Count: 1, Mean: 4, P50: 4, P90: 4, P99: 4, Max: 4},
		},
		{
			name:      "unsorted input",
			durations: []DiscreteTime{7, 3, 5},
			want:      WaitStatistics{Count: 3, Mean: 5, P50: 5, P90: 7, P99: 7, Max: 7},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SummarizeWaits(tc.durations)
			assert.Equal(t, tc.want.Count, got.Count)
			assert.Equal(t, tc.want.Max, got.Max)
			testutil.AssertFloat64Equal(t, "mean", tc.want.Mean, got.Mean, 1e-9)
			testutil.AssertFloat64Equal(t, "p50", tc.want.P50, got.P50, 1e-9)
			testutil.AssertFloat64Equal(t, "p90", tc.want.P90, got.P90, 1e-9)
			testutil.AssertFloat64Equal(t, "p99", tc.want.P99, got.P99, 1e-9)
		})
	}
}

func TestSummarizeWaits_DoesNotModifyInput(t *testing.T) {
	in := []DiscreteTime{9, 1, 5}
	SummarizeWaits(in)
	assert.Equal(t, []DiscreteTime{9, 1, 5}, in)
}

func TestSimulation_WaitStatistics(t *testing.T) {
	// GIVEN the producer/consumer backlog scenario
	s := mustSimulation(t, producerConsumerParams(false))
	require.NoError(t, s.Run())

	// WHEN the consumer's waits are summarized
	got, ok := s.WaitStatistics("consumer")

	// THEN they reflect waits of 3, 5 and 7 ticks
	require.True(t, ok)
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, 5.0, got.Mean)
	assert.Equal(t, DiscreteTime(7), got.Max)

	_, ok = s.WaitStatistics("missing")
	assert.False(t, ok)
}
