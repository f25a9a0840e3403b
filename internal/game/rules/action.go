package rules

import (
	"fmt"
	"slices"
	"sort"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// Movement relocates one piece.
type Movement struct {
	From        board.Square
	To          board.Square
	Orientation board.Orientation
}

// SideEffect is a secondary Movement of another piece performed as part of
// an Action, such as the rook's hop during castling.
type SideEffect struct {
	PieceID  string
	Movement Movement
}

// Action is one legal move of a piece.
type Action struct {
	Movement    Movement
	Path        []board.Square
	Captures    []board.Square
	Threats     []board.Square
	SideEffects []SideEffect
	// Pattern is the pattern that produced the action, nil for actions that
	// are not pattern driven (castling).
	Pattern *Pattern
	Source  BehaviorKind
}

// IsCapture reports whether the action removes at least one piece.
func (a Action) IsCapture() bool {
	return len(a.Captures) > 0
}

// PassesThrough reports whether sq lies on the action's path.
func (a Action) PassesThrough(sq board.Square) bool {
	return slices.Contains(a.Path, sq)
}

func (a Action) String() string {
	s := fmt.Sprintf("%s-%s", a.Movement.From, a.Movement.To)
	if a.IsCapture() {
		s += fmt.Sprintf("x%v", a.Captures)
	}
	return s
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	out := a
	out.Path = clonePath(a.Path)
	out.Captures = clonePath(a.Captures)
	out.Threats = clonePath(a.Threats)
	if a.SideEffects != nil {
		out.SideEffects = make([]SideEffect, len(a.SideEffects))
		copy(out.SideEffects, a.SideEffects)
	}
	if a.Pattern != nil {
		p := a.Pattern.Clone()
		out.Pattern = &p
	}
	return out
}

// Actions holds at most one Action per selectable square. The key is the
// square the player picks: the landing square for moving actions and the
// target square for captures at range.
type Actions map[board.Square]Action

// CollisionPolicy decides which proposal survives when two behaviors offer
// an action on the same square.
type CollisionPolicy int

const (
	// LastWins keeps the proposal from the behavior evaluated last.
	LastWins CollisionPolicy = iota
	// FirstWins keeps the first proposal.
	FirstWins
)

// ParseCollisionPolicy accepts "last-wins" and "first-wins".
func ParseCollisionPolicy(name string) (CollisionPolicy, error) {
	switch name {
	case "", "last-wins", "overwrite":
		return LastWins, nil
	case "first-wins", "keep":
		return FirstWins, nil
	}
	return LastWins, fmt.Errorf("unknown collision policy %q", name)
}

// Merge folds other into a and returns the squares both maps proposed.
func (a Actions) Merge(other Actions, policy CollisionPolicy) []board.Square {
	var collisions []board.Square
	for sq, action := range other {
		if _, exists := a[sq]; exists {
			collisions = append(collisions, sq)
			if policy == FirstWins {
				continue
			}
		}
		a[sq] = action
	}
	sortSquares(collisions)
	return collisions
}

// Squares returns the keys in deterministic order.
func (a Actions) Squares() []board.Square {
	out := make([]board.Square, 0, len(a))
	for sq := range a {
		out = append(out, sq)
	}
	sortSquares(out)
	return out
}

// Threats unions the attacked squares of every action.
func (a Actions) Threats() []board.Square {
	seen := make(map[board.Square]struct{})
	for _, action := range a {
		for _, sq := range action.Threats {
			seen[sq] = struct{}{}
		}
	}
	out := make([]board.Square, 0, len(seen))
	for sq := range seen {
		out = append(out, sq)
	}
	sortSquares(out)
	return out
}

// Equal compares two action maps by landing squares, captures and side effects.
func (a Actions) Equal(o Actions) bool {
	if len(a) != len(o) {
		return false
	}
	for sq, x := range a {
		y, ok := o[sq]
		if !ok {
			return false
		}
		if x.Movement != y.Movement || !slices.Equal(x.Captures, y.Captures) ||
			!slices.Equal(x.Path, y.Path) || !slices.Equal(x.SideEffects, y.SideEffects) {
			return false
		}
	}
	return true
}

// Clone deep-copies the map.
func (a Actions) Clone() Actions {
	if a == nil {
		return nil
	}
	out := make(Actions, len(a))
	for sq, action := range a {
		out[sq] = action.Clone()
	}
	return out
}

func sortSquares(squares []board.Square) {
	sort.Slice(squares, func(i, j int) bool { return squares[i].Less(squares[j]) })
}
