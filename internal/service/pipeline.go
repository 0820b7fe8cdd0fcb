package service

import (
	"fmt"
	"log/slog"

	"github.com/brightside-studio/backend/internal/model"
)

// State is a stage of one submission.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StatePersisting State = "persisting"
	StateNotifying  State = "notifying"
	StateDone       State = "done"
	StateError      State = "error"
)

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StatePersisting, StateError},
	StatePersisting: {StateNotifying, StateError},
	StateNotifying:  {StateDone},
}

// CanTransition reports whether from -> to is an edge of the submission
// state machine. Done and Error are terminal.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// pipeline tracks the state of one Submit call.
type pipeline struct {
	form  model.FormKind
	state State
}

func newPipeline(form model.FormKind) *pipeline {
	return &pipeline{form: form, state: StateIdle}
}

// to moves the pipeline to next. An illegal edge is a bug in Submit.
func (p *pipeline) to(next State) {
	if !CanTransition(p.state, next) {
		panic(fmt.Sprintf("contact pipeline: illegal transition %s -> %s", p.state, next))
	}
	slog.Debug("contact pipeline", "form", p.form, "from", p.state, "to", next)
	p.state = next
}
