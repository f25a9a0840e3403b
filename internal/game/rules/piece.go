package rules

import (
	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// PieceDefinition is the declarative template a piece is created or
// mutated from.
type PieceDefinition struct {
	Identity  string
	Behaviors Behaviors
	Mutation  *Mutation
	Royal     bool
}

// Piece is a piece on the board.
type Piece struct {
	ID          string
	Identity    string
	Team        Team
	Position    board.Square
	Orientation board.Orientation
	Behaviors   Behaviors
	Mutation    *Mutation
	Royal       bool
	// Moves counts completed moves, side effects included.
	Moves int
	// CastlingDisabled is set the first time the piece or its castling
	// partner moves and is never cleared.
	CastlingDisabled bool

	// Actions is the cache filled by the last recomputation.
	Actions Actions
	// Dirty marks a piece whose position or behaviors changed since its
	// Actions were computed.
	Dirty bool

	footprint map[board.Square]struct{}
}

// NewPiece instantiates def for team on square.
func NewPiece(id string, def PieceDefinition, team Team, square board.Square) *Piece {
	return &Piece{
		ID:          id,
		Identity:    def.Identity,
		Team:        team,
		Position:    square,
		Orientation: team.Orientation(),
		Behaviors:   def.Behaviors,
		Mutation:    def.Mutation,
		Royal:       def.Royal,
		Dirty:       true,
	}
}

// Mover returns the view behaviors compute against.
func (p *Piece) Mover() Mover {
	return Mover{ID: p.ID, Position: p.Position, Orientation: p.Orientation, Team: p.Team}
}

// Occupant returns the view other pieces see of p.
func (p *Piece) Occupant() Occupant {
	return Occupant{
		PieceID:          p.ID,
		Team:             p.Team,
		Identity:         p.Identity,
		Royal:            p.Royal,
		EnPassant:        p.Behaviors.Has(BehaviorEnPassant),
		CastlingDisabled: p.CastlingDisabled,
		Patterns:         p.Behaviors.Patterns(),
	}
}

// Compute recomputes the piece's actions against ctx and stores them.
func (p *Piece) Compute(base *Context) Actions {
	ctx := base.ForPiece()
	actions := p.Behaviors.Actions(ctx, p.Mover())
	p.Actions = actions
	p.footprint = ctx.Footprint()
	p.Dirty = false
	return actions
}

// Affected reports whether a change on any of squares can alter the
// piece's cached actions.
func (p *Piece) Affected(squares []board.Square) bool {
	if p.Dirty || p.footprint == nil {
		return true
	}
	for _, sq := range squares {
		if _, ok := p.footprint[sq]; ok {
			return true
		}
	}
	return false
}

// Become replaces the piece's identity and behaviors with def.
func (p *Piece) Become(def PieceDefinition, royal bool) {
	p.Identity = def.Identity
	p.Behaviors = def.Behaviors
	p.Mutation = def.Mutation
	p.Royal = royal || def.Royal
	p.Dirty = true
}

// Clone deep-copies the mutable state of the piece. Behaviors and mutation
// descriptors are immutable once created and are shared.
func (p *Piece) Clone() *Piece {
	out := *p
	out.Actions = p.Actions.Clone()
	if p.footprint != nil {
		out.footprint = make(map[board.Square]struct{}, len(p.footprint))
		for sq := range p.footprint {
			out.footprint[sq] = struct{}{}
		}
	}
	return &out
}
