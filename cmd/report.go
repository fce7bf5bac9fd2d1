package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/simul-sim/simul/sim"
	"github.com/simul-sim/simul/sim/experiment"
	"github.com/simul-sim/simul/sim/trace"
)

// maxErrorWidth bounds error text in trial tables.
const maxErrorWidth = 48

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	bestStyle   = cellStyle.Foreground(lipgloss.Color("10"))
	failStyle   = cellStyle.Foreground(lipgloss.Color("9"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// numbers groups digits in large counts.
var numbers = message.NewPrinter(language.English)

// outputWidth returns the terminal width of stdout, or 0 when stdout is not a terminal.
func outputWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func newTable(headers ...string) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...)
	if w := outputWidth(); w > 0 {
		t = t.Width(w)
	}
	return t
}

func field(label string, value any) string {
	return fmt.Sprintf("%s %v", labelStyle.Render(label+":"), value)
}

// RenderRunReport summarizes a finished (or failed) simulation: clock, halt reason
// and one row per agent.
func RenderRunReport(name string, s *sim.Simulation) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Scenario "+name) + "\n")
	b.WriteString(field("Status", s.Status()) + "\n")
	b.WriteString(field("Time", numbers.Sprintf("%d", s.Time())) + "\n")
	b.WriteString(field("Ticks", numbers.Sprintf("%d", s.Ticks())) + "\n")
	switch {
	case s.Err() != nil:
		b.WriteString(field("Error", s.Err()) + "\n")
	case s.Interrupt() != nil:
		i := s.Interrupt()
		b.WriteString(field("Halt reason", fmt.Sprintf("%s (%s: %s)", s.HaltReason(), i.Agent, i.Reason)) + "\n")
	default:
		b.WriteString(field("Halt reason", s.HaltReason()) + "\n")
	}

	rows := make([][]string, 0, len(s.Agents()))
	for _, a := range s.Agents() {
		waits := sim.SummarizeWaits(waitDurations(s, a.Name))
		idle := "-"
		if n, ok := s.IdleCycles(a.Name); ok {
			idle = fmt.Sprint(n)
		}
		rows = append(rows, []string{
			a.Name,
			a.State.Mode.String(),
			numbers.Sprintf("%d", len(a.State.Produced)),
			numbers.Sprintf("%d", len(a.State.Consumed)),
			numbers.Sprintf("%d", a.State.Queue.Len()),
			idle,
			fmt.Sprintf("%.2f", waits.Mean),
			fmt.Sprintf("%.0f", waits.P90),
			fmt.Sprint(waits.Max),
		})
	}
	t := newTable("AGENT", "MODE", "PRODUCED", "CONSUMED", "BACKLOG", "IDLE", "MEAN WAIT", "P90 WAIT", "MAX WAIT").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Rows(rows...)
	b.WriteString(t.Render() + "\n")

	if st := s.Trace(); st != nil {
		summary := trace.Summarize(st)
		b.WriteString(field("Deliveries", summary.TotalDeliveries) + "\n")
		b.WriteString(field("Peak queue", fmt.Sprintf("%d (%s)", summary.PeakQueueDepth, summary.PeakQueueTarget)) + "\n")
	}
	return b.String()
}

func waitDurations(s *sim.Simulation, name string) []sim.DiscreteTime {
	samples := s.QueuedDurations(name)
	out := make([]sim.DiscreteTime, len(samples))
	for i, q := range samples {
		out[i] = q.Duration
	}
	return out
}

// RenderExperimentReport lists every trial of an experiment and highlights the best one.
func RenderExperimentReport(sc *Scenario, result experiment.SearchResult[float64]) string {
	spec := sc.Experiment
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Experiment %s: %s on %s.%s", sc.Name, spec.Strategy, spec.Agent, spec.Parameter)) + "\n")
	b.WriteString(field("Objective", spec.Objective) + "\n")
	b.WriteString(field("Trials", len(result.Trials)) + "\n")
	if spec.Strategy == StrategyAnnealing {
		b.WriteString(field("Accepted moves", result.Accepted) + "\n")
	}

	rows := make([][]string, 0, len(result.Trials))
	for _, tr := range result.Trials {
		score, outcome := fmt.Sprintf("%g", tr.Score), tr.HaltReason.String()
		if tr.Failed() {
			score = "-"
			outcome = truncate.StringWithTail(tr.Err.Error(), maxErrorWidth, "...")
		}
		rows = append(rows, []string{
			fmt.Sprint(tr.Index),
			fmt.Sprintf("%g", tr.Params),
			score,
			fmt.Sprint(tr.FinalTime),
			outcome,
		})
	}
	best := result.Best
	hasBest := best.RunID != uuid.Nil && !best.Failed()
	t := newTable("#", strings.ToUpper(spec.Parameter), "SCORE", "TIME", "OUTCOME").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow || row >= len(result.Trials):
				return headerStyle
			case result.Trials[row].Failed():
				return failStyle
			case hasBest && result.Trials[row].RunID == best.RunID:
				return bestStyle
			}
			return cellStyle
		}).
		Rows(rows...)
	b.WriteString(t.Render() + "\n")

	if hasBest {
		b.WriteString(field("Best", fmt.Sprintf("%s=%g score=%g time=%d", spec.Parameter, best.Params, best.Score, best.FinalTime)) + "\n")
	}
	return b.String()
}
