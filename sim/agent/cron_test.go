package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simul-sim/simul/sim"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCronProducer_Activations(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		tick      time.Duration
		halt      sim.DiscreteTime
		wantTicks []sim.DiscreteTime
	}{
		{
			name:      "every five seconds at one second per tick",
			spec:      "*/5 * * * * *",
			tick:      time.Second,
			halt:      20,
			wantTicks: []sim.DiscreteTime{0, 5, 10, 15},
		},
		{
			name:      "hourly descriptor at one minute per tick",
			spec:      "@hourly",
			tick:      time.Minute,
			halt:      180,
			wantTicks: []sim.DiscreteTime{0, 60, 120},
		},
		{
			name:      "activations between ticks catch up",
			spec:      "*/5 * * * * *",
			tick:      10 * time.Second,
			halt:      3,
			wantTicks: []sim.DiscreteTime{0, 1, 1, 2, 2},
		},
		{
			name:      "five-field spec on the half hour",
			spec:      "30 * * * *",
			tick:      time.Minute,
			halt:      120,
			wantTicks: []sim.DiscreteTime{30, 90},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// GIVEN a cron producer mapped onto the simulation clock
			producer, err := NewCronProducer("sink", tc.spec, epoch, tc.tick)
			require.NoError(t, err)

			// WHEN the simulation runs
			s := run(t, tc.halt, named("cron", producer), named("sink", Sink{}))

			// THEN messages were produced on the expected ticks
			produced, _ := s.ProducedFor("cron")
			assert.Equal(t, tc.wantTicks, ticksOf(produced, true))
		})
	}
}

func TestCronProducer_PayloadIsActivationTime(t *testing.T) {
	producer, err := NewCronProducer("sink", "*/5 * * * * *", epoch, time.Second)
	require.NoError(t, err)

	s := run(t, 6, named("cron", producer), named("sink", Sink{}))

	produced, _ := s.ProducedFor("cron")
	require.Len(t, produced, 2)
	assert.Equal(t, epoch, produced[0].Payload)
	assert.Equal(t, epoch.Add(5*time.Second), produced[1].Payload)
}

func TestNewCronProducer_Invalid(t *testing.T) {
	_, err := NewCronProducer("sink", "not a schedule", epoch, time.Second)
	assert.Error(t, err)

	_, err = NewCronProducer("sink", "@hourly", epoch, 0)
	assert.Error(t, err)
}
