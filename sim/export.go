package sim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrMetricDisabled is returned when exporting a metric the simulation did not record.
var ErrMetricDisabled = errors.New("metric is disabled")

// WriteQueueDepthCSV writes the queue-depth telemetry as CSV with the header
// agent,tick,queue_depth. Rows are grouped by agent in processing order, then by tick.
func WriteQueueDepthCSV(w io.Writer, s *Simulation) error {
	if s.telemetry.QueueDepths == nil {
		return fmt.Errorf("queue depth: %w", ErrMetricDisabled)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"agent", "tick", "queue_depth"}); err != nil {
		return err
	}
	for _, a := range s.agents {
		for _, sample := range s.telemetry.QueueDepthSeries(a.Name) {
			row := []string{
				a.Name,
				strconv.FormatUint(uint64(sample.Tick), 10),
				strconv.Itoa(sample.Depth),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteIdleCyclesCSV writes the idle-cycle counters as CSV with the header
// agent,idle_cycles, one row per agent in processing order.
func WriteIdleCyclesCSV(w io.Writer, s *Simulation) error {
	if s.telemetry.IdleCycles == nil {
		return fmt.Errorf("idle cycles: %w", ErrMetricDisabled)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"agent", "idle_cycles"}); err != nil {
		return err
	}
	for _, a := range s.agents {
		n := s.telemetry.IdleCycles[a.Name]
		if err := cw.Write([]string{a.Name, strconv.FormatUint(n, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
