// Package sim provides the core discrete-time simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - message.go: the Message record routed between agents and its queued-duration bookkeeping
//   - agent.go: the Agent contract, agent modes (proactive, reactive, asleep, dead) and initializers
//   - context.go: the AgentContext handed to Agent.Process once per tick
//   - simulator.go: the tick loop, halt state machine and read-only queries
//
// # Tick Semantics
//
// One call to Simulation.Step executes one tick:
//  1. every agent, in the order it was supplied, is processed against the messages
//     queued for it at the start of the tick
//  2. the messages produced during the tick are routed into their targets' queues
//     (dispatch.go); they become visible on the next tick, never the current one
//  3. telemetry is sampled (telemetry.go), if enabled
//  4. an agent interrupt halts the simulation without advancing the clock;
//     otherwise the clock advances by one and the halt check is evaluated
//
// Ticks and agent processing are strictly sequential. Independent simulations share
// no state and may be run concurrently (see sim/experiment).
//
// # Sub-packages
//   - sim/agent/: ready-made behaviors (periodic, Poisson-distributed, cron-scheduled)
//   - sim/experiment/: repeated runs, Monte-Carlo and simulated-annealing search, trial store
//   - sim/trace/: optional routing trace recording
package sim
