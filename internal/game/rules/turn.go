package rules

import (
	"fmt"
	"slices"
)

// TurnState is a state of the turn engine.
type TurnState int

const (
	StateAwaitingMove TurnState = iota
	StateValidating
	StateExecuting
	StateAwaitingMutationChoice
	StateTurnComplete
	StateTerminal
)

var turnStateNames = map[TurnState]string{
	StateAwaitingMove:           "AWAITING_MOVE",
	StateValidating:             "VALIDATING",
	StateExecuting:              "EXECUTING",
	StateAwaitingMutationChoice: "AWAITING_MUTATION_CHOICE",
	StateTurnComplete:           "TURN_COMPLETE",
	StateTerminal:               "TERMINAL",
}

func (s TurnState) String() string {
	if name, ok := turnStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE_%d", int(s))
}

// AcceptsInput reports whether external requests may be handled in s.
func (s TurnState) AcceptsInput() bool {
	return s == StateAwaitingMove || s == StateAwaitingMutationChoice
}

// transitions lists the legal successors of every state. Terminal is
// reachable from the input states because a clock can run out between turns.
var transitions = map[TurnState][]TurnState{
	StateAwaitingMove:           {StateValidating, StateTerminal},
	StateValidating:             {StateExecuting, StateAwaitingMove},
	StateExecuting:              {StateAwaitingMutationChoice, StateTurnComplete},
	StateAwaitingMutationChoice: {StateTurnComplete, StateTerminal},
	StateTurnComplete:           {StateAwaitingMove, StateTerminal},
	StateTerminal:               nil,
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to TurnState) bool {
	return slices.Contains(transitions[from], to)
}

// TurnManager tracks the ply counter and turn state of one game.
type TurnManager struct {
	// First moves on ply zero.
	First Team
	Ply   int
	State TurnState
}

// NewTurnManager starts at ply zero awaiting a move from first.
func NewTurnManager(first Team) *TurnManager {
	return &TurnManager{First: first, State: StateAwaitingMove}
}

// ActiveTeam returns the team whose turn it is.
func (tm *TurnManager) ActiveTeam() Team {
	return TeamForPly(tm.First, tm.Ply)
}

// Transition moves to the given state or reports an illegal edge.
func (tm *TurnManager) Transition(to TurnState) error {
	if !CanTransition(tm.State, to) {
		return fmt.Errorf("illegal turn transition %s -> %s", tm.State, to)
	}
	tm.State = to
	return nil
}

// CompleteTurn enters TurnComplete and advances the ply.
func (tm *TurnManager) CompleteTurn() error {
	if err := tm.Transition(StateTurnComplete); err != nil {
		return err
	}
	tm.Ply++
	return nil
}

// Terminate forces the terminal state from any non-terminal state.
func (tm *TurnManager) Terminate() {
	tm.State = StateTerminal
}

// Clone copies the manager.
func (tm *TurnManager) Clone() *TurnManager {
	out := *tm
	return &out
}
