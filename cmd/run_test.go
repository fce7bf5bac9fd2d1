package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simul-sim/simul/sim"
)

func TestWriteCSV_QueueDepthAndIdleCycles(t *testing.T) {
	// GIVEN the finished producer/consumer run with both metrics enabled
	sc := mustLoad(t, "producer_consumer.yaml")
	s, err := runScenario(sc, 0)
	require.NoError(t, err)
	dir := t.TempDir()

	// WHEN both exports are written
	depthPath := filepath.Join(dir, "depth.csv")
	idlePath := filepath.Join(dir, "idle.csv")
	require.NoError(t, writeCSV(depthPath, s, sim.WriteQueueDepthCSV))
	require.NoError(t, writeCSV(idlePath, s, sim.WriteIdleCyclesCSV))

	// THEN the idle counts match the run and the depth series has one row per agent and tick
	idle, err := os.ReadFile(idlePath)
	require.NoError(t, err)
	assert.Equal(t, "agent,idle_cycles\nproducer,0\nconsumer,7\n", string(idle))

	depth, err := os.ReadFile(depthPath)
	require.NoError(t, err)
	assert.Contains(t, string(depth), "agent,tick,queue_depth\n")
	assert.Contains(t, string(depth), "consumer,9,7\n")
}

func TestWriteCSV_DisabledMetric_ReturnsError(t *testing.T) {
	// GIVEN a run without telemetry
	sc := mustLoad(t, "backlog_drain.yaml")
	s, err := runScenario(sc, 0)
	require.NoError(t, err)

	// WHEN an export is requested
	err = writeCSV(filepath.Join(t.TempDir(), "idle.csv"), s, sim.WriteIdleCyclesCSV)

	// THEN it fails with the disabled-metric error
	assert.ErrorIs(t, err, sim.ErrMetricDisabled)
}
