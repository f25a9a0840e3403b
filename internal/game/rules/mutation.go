package rules

import (
	"fmt"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// MutationTrigger selects when a mutation becomes available.
type MutationTrigger int

const (
	// OnLocalRank triggers when the piece lands on the given local rank.
	OnLocalRank MutationTrigger = iota
	// OnCapture triggers when the piece captured at least one piece.
	OnCapture
)

// MutationCondition is the trigger of a Mutation.
type MutationCondition struct {
	Trigger MutationTrigger
	Rank    int
}

// LocalRank is the promotion-zone condition.
func LocalRank(rank int) MutationCondition {
	return MutationCondition{Trigger: OnLocalRank, Rank: rank}
}

// Mutation transforms a piece into one of Options once Condition holds.
type Mutation struct {
	Condition MutationCondition
	Required  bool
	Options   []PieceDefinition
	ToRoyal   bool
}

// Holds reports whether the condition is met by p after performing action.
func (m *Mutation) Holds(g board.Geometry, p *Piece, action Action) bool {
	if m == nil || len(m.Options) == 0 {
		return false
	}
	switch m.Condition.Trigger {
	case OnCapture:
		return action.IsCapture()
	default:
		return g.LocalRank(p.Position, p.Orientation) == m.Condition.Rank
	}
}

// Option looks up an option by identity.
func (m *Mutation) Option(identity string) (PieceDefinition, bool) {
	if m == nil {
		return PieceDefinition{}, false
	}
	for _, def := range m.Options {
		if def.Identity == identity {
			return def, true
		}
	}
	return PieceDefinition{}, false
}

// Identities lists the option identities in declaration order.
func (m *Mutation) Identities() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.Options))
	for i, def := range m.Options {
		out[i] = def.Identity
	}
	return out
}

func (m *Mutation) String() string {
	if m == nil {
		return "<none>"
	}
	return fmt.Sprintf("mutation(required=%t, options=%v)", m.Required, m.Identities())
}
