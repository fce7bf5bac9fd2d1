// Defines the Message record that models one unit of work or signal between agents.
// Tracks queued and completed time so queued durations can be analyzed after a run.

package sim

import "fmt"

// DiscreteTime is the simulation clock. One tick has no fixed real-world meaning;
// callers choose the mapping (e.g. one tick = one second).
type DiscreteTime uint64

// Message is routed from a source agent to a target agent.
// Messages are values: once produced they are never mutated, only copied
// into queues and histories.
type Message struct {
	Source string // Name of the agent that produced the message
	Target string // Name of the agent the message is routed to (required)

	QueuedTime    DiscreteTime // Tick at which the message was placed into a queue
	CompletedTime DiscreteTime // Tick at which the target consumed the message
	Completed     bool         // Whether CompletedTime is set

	Payload any // Free-form payload, opaque to the engine
}

// NewMessage creates a message queued at time t.
func NewMessage(t DiscreteTime, source, target string) Message {
	return Message{
		Source:     source,
		Target:     target,
		QueuedTime: t,
	}
}

// QueuedDuration returns how long the message waited in its target's queue.
// Returns 0 for messages that have not been consumed.
func (m Message) QueuedDuration() DiscreteTime {
	if !m.Completed || m.CompletedTime < m.QueuedTime {
		return 0
	}
	return m.CompletedTime - m.QueuedTime
}

func (m Message) String() string {
	if m.Completed {
		return fmt.Sprintf("Message: (%s -> %s, queued: %d, completed: %d)", m.Source, m.Target, m.QueuedTime, m.CompletedTime)
	}
	return fmt.Sprintf("Message: (%s -> %s, queued: %d)", m.Source, m.Target, m.QueuedTime)
}
