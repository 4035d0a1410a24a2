package run

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle states of a weaving run. Untyped string constants for
// statekit.StateID compatibility.
const (
	StateIdle       = "idle"
	StateConnecting = "connecting"
	StateRunning    = "running"
	StateDone       = "done"
)

// Lifecycle events.
const (
	EventConnect = "connect"
	EventBegin   = "begin"
	EventAbort   = "abort"
	EventFinish  = "finish"
)

type machineContext struct {
	RunID string
}

// StateMachine enforces the idle → connecting → running → done
// lifecycle. A connection failure aborts straight from connecting to
// done; there is no path back out of done.
type StateMachine struct {
	interpreter *statekit.Interpreter[machineContext]
}

func NewStateMachine(runID string) (*StateMachine, error) {
	builder := statekit.NewMachine[machineContext]("weave-run").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(machineContext{RunID: runID})

	builder.State(StateIdle).
		On(EventConnect).Target(StateConnecting).
		Done()

	builder.State(StateConnecting).
		On(EventBegin).Target(StateRunning).
		On(EventAbort).Target(StateDone).
		Done()

	builder.State(StateRunning).
		On(EventFinish).Target(StateDone).
		On(EventAbort).Target(StateDone).
		Done()

	builder.State(StateDone).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build run state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StateMachine{interpreter: interpreter}, nil
}

// Transition sends a lifecycle event. An event that is not valid for
// the current state leaves the state unchanged and returns an error.
func (sm *StateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := sm.Current()

	if before == after {
		return fmt.Errorf("event %q is not valid in state %q", event, before)
	}
	return nil
}

func (sm *StateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}
