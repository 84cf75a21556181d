package services

import (
	"context"
	"fmt"
	"log/slog"
)

// State is one stage of a report submission lifecycle.
type State string

const (
	StateValidating  State = "VALIDATING"
	StateNormalizing State = "NORMALIZING"
	StateRendering   State = "RENDERING"
	StatePersisting  State = "PERSISTING"
	StateCleaningUp  State = "CLEANING_UP"
	StateCommitted   State = "COMMITTED"
	StateRejected    State = "REJECTED"
	StateFailed      State = "FAILED"
)

// transitions is the single source of truth for legal lifecycle moves.
// Create and update share it; delete uses the persisting/cleanup tail.
var transitions = map[State][]State{
	StateValidating:  {StateNormalizing, StateRejected},
	StateNormalizing: {StateRendering, StatePersisting, StateRejected},
	StateRendering:   {StatePersisting, StateFailed},
	StatePersisting:  {StateCleaningUp, StateCommitted, StateFailed},
	StateCleaningUp:  {StateCommitted},
}

// lifecycle tracks one submission through its states and logs each move.
type lifecycle struct {
	state  State
	op     string
	logger *slog.Logger
}

func newLifecycle(op string, logger *slog.Logger) *lifecycle {
	return &lifecycle{state: StateValidating, op: op, logger: logger}
}

// to advances the lifecycle. An illegal move is a programming error and
// panics so it cannot be shipped silently.
func (l *lifecycle) to(ctx context.Context, next State) {
	for _, allowed := range transitions[l.state] {
		if allowed == next {
			l.logger.DebugContext(ctx, "Lifecycle transition",
				"operation", l.op,
				"from", string(l.state),
				"state", string(next))
			l.state = next
			return
		}
	}
	panic(fmt.Sprintf("illegal lifecycle transition %s -> %s in %s", l.state, next, l.op))
}
