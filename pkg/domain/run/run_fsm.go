package run

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// State constants for statekit integration. These must remain untyped
// string constants for statekit.StateID compatibility.
const (
	StateGenerating = "generating"
	StateValidating = "validating"
	StateRevising   = "revising"
	StateAccepted   = "accepted"
	StateCapped     = "capped"
	StateFailed     = "failed"
)

// Events driving the run machine.
const (
	EventGenerated = "generated"
	EventAccept    = "accept"
	EventRevise    = "revise"
	EventRevised   = "revised"
	EventCap       = "cap"
	EventFail      = "fail"
)

// RunContext carries state data.
type RunContext struct {
	RunID string
}

// StateMachine enforces the legal generate/validate/revise transitions
// for one convergence run. Both pipelines share the same shape; the
// diagram pipeline's "refining" phase maps onto the revising state.
type StateMachine struct {
	interpreter *statekit.Interpreter[RunContext]
}

// NewStateMachine builds a machine positioned at the generating state.
func NewStateMachine(runID string) (*StateMachine, error) {
	builder := statekit.NewMachine[RunContext]("convergence-run").
		WithInitial(statekit.StateID(StateGenerating)).
		WithContext(RunContext{RunID: runID})

	builder.State(StateGenerating).
		On(EventGenerated).Target(StateValidating).
		On(EventFail).Target(StateFailed).
		Done()

	builder.State(StateValidating).
		On(EventAccept).Target(StateAccepted).
		On(EventRevise).Target(StateRevising).
		On(EventCap).Target(StateCapped).
		On(EventFail).Target(StateFailed).
		Done()

	builder.State(StateRevising).
		On(EventRevised).Target(StateValidating).
		On(EventFail).Target(StateFailed).
		Done()

	builder.State(StateAccepted).Done()
	builder.State(StateCapped).Done()
	builder.State(StateFailed).Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build run state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StateMachine{interpreter: interpreter}, nil
}

// Transition attempts to move the run to a new state.
func (sm *StateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before == after {
		return fmt.Errorf("event %q is not allowed in the %q state", event, before)
	}
	return nil
}

// Current returns the machine's current state.
func (sm *StateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// Terminal reports whether the run has reached a terminal state.
func (sm *StateMachine) Terminal() bool {
	switch sm.Current() {
	case StateAccepted, StateCapped, StateFailed:
		return true
	}
	return false
}
