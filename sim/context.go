package sim

// AgentContext is handed to Agent.Process. It exposes the agent's queue as of the
// start of the tick, collects outgoing messages and carries control signals back
// to the engine. A context is only valid for the duration of one Process call.
type AgentContext struct {
	Name string       // Name of the agent being processed
	Time DiscreteTime // Current tick

	agent     *SimulationAgent
	outbox    []Message
	consumed  int
	interrupt *Interrupt
}

// Interrupt records an agent's request to halt the simulation at the end of a tick.
type Interrupt struct {
	Agent  string
	Reason string
	Tick   DiscreteTime
}

func (c *AgentContext) reset(a *SimulationAgent, now DiscreteTime) {
	c.Name = a.Name
	c.Time = now
	c.agent = a
	c.outbox = c.outbox[:0]
	c.consumed = 0
	c.interrupt = nil
}

// idle reports whether the agent neither consumed nor produced anything this tick.
func (c *AgentContext) idle() bool {
	return c.consumed == 0 && len(c.outbox) == 0 && c.interrupt == nil
}

// Len returns the number of messages waiting for the agent.
func (c *AgentContext) Len() int {
	return c.agent.State.Queue.Len()
}

// Peek returns the next waiting message without consuming it.
func (c *AgentContext) Peek() (Message, bool) {
	return c.agent.State.Queue.Peek()
}

// Dequeue consumes the next waiting message. The returned copy has CompletedTime
// set to the current tick and is appended to the agent's consumed history.
func (c *AgentContext) Dequeue() (Message, bool) {
	m, ok := c.agent.State.Queue.Dequeue()
	if !ok {
		return Message{}, false
	}
	m.CompletedTime = c.Time
	m.Completed = true
	c.agent.State.Consumed = append(c.agent.State.Consumed, m)
	c.consumed++
	return m, true
}

// Send produces a message to target. It is delivered at the end of the tick and
// becomes visible to the target on the next tick.
func (c *AgentContext) Send(target string, payload any) {
	m := NewMessage(c.Time, c.Name, target)
	m.Payload = payload
	c.outbox = append(c.outbox, m)
	c.agent.State.Produced = append(c.agent.State.Produced, m)
}

// Interrupt requests that the simulation halt at the end of this tick.
// It takes precedence over the halt check. Only the first call in a tick is kept.
func (c *AgentContext) Interrupt(reason string) {
	if c.interrupt != nil {
		return
	}
	c.interrupt = &Interrupt{Agent: c.Name, Reason: reason, Tick: c.Time}
}

// SleepUntil skips the agent on every tick before t. It has no effect when t is
// not after the next tick.
func (c *AgentContext) SleepUntil(t DiscreteTime) {
	if t <= c.Time+1 {
		return
	}
	c.agent.State.Mode = ModeAsleep
	c.agent.State.AsleepUntil = t
}

// SleepFor skips the agent for the next d-1 ticks, so it runs again at Time+d.
func (c *AgentContext) SleepFor(d DiscreteTime) {
	c.SleepUntil(c.Time + d)
}

// Die stops the agent from being processed for the rest of the run.
// Messages sent to it are still queued.
func (c *AgentContext) Die() {
	c.agent.State.Mode = ModeDead
}
