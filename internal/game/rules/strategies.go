package rules

import (
	"slices"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// PatternBehavior offers the union of its patterns' actions. Later patterns
// overwrite earlier ones on the same square.
type PatternBehavior struct {
	Patterns []Pattern
}

func (PatternBehavior) Kind() BehaviorKind { return BehaviorPattern }

func (b PatternBehavior) Actions(ctx *Context, m Mover) Actions {
	out := make(Actions)
	for _, p := range b.Patterns {
		out.Merge(p.Search(ctx, m), LastWins)
	}
	return out
}

func (b PatternBehavior) DependsOnHistory() bool {
	for _, p := range b.Patterns {
		if p.DependsOnHistory() {
			return true
		}
	}
	return false
}

// EnPassantPattern is the orthodox en-passant capture: one step diagonally
// forward onto a square the last mover passed over.
func EnPassantPattern() Pattern {
	return Leaper(board.OneDim(1, board.SymDiagonalForward)).WithCapture(InPassing())
}

// EnPassantBehavior both marks a piece as capturable in passing and lets it
// capture other such pieces. Only pieces carrying the behavior themselves
// can be taken this way.
type EnPassantBehavior struct {
	// Patterns overrides EnPassantPattern when non-empty.
	Patterns []Pattern
}

func (EnPassantBehavior) Kind() BehaviorKind     { return BehaviorEnPassant }
func (EnPassantBehavior) DependsOnHistory() bool { return true }

func (b EnPassantBehavior) Actions(ctx *Context, m Mover) Actions {
	out := make(Actions)
	if ctx.LastAction == nil {
		return out
	}
	ctx.touch(ctx.LastAction.Movement.To)

	patterns := b.Patterns
	if len(patterns) == 0 {
		patterns = []Pattern{EnPassantPattern()}
	}
	for _, p := range patterns {
		for sq, action := range p.Search(ctx, m) {
			if !b.capturesEnPassantPiece(ctx, action) {
				continue
			}
			action.Source = BehaviorEnPassant
			out[sq] = action
		}
	}
	return out
}

func (EnPassantBehavior) capturesEnPassantPiece(ctx *Context, action Action) bool {
	if len(action.Captures) == 0 {
		return false
	}
	for _, sq := range action.Captures {
		if o, ok := ctx.Occupancy[sq]; !ok || !o.EnPassant {
			return false
		}
	}
	return true
}

// RelayBehavior lets its holder borrow the patterns of friendly pieces it
// can reach with Reach whose identity is listed in Identities (an empty list
// accepts every identity).
type RelayBehavior struct {
	Identities []string
	// Reach defaults to the eight adjacent squares.
	Reach []Pattern
}

// AdjacentReach is the default relay reach.
func AdjacentReach() Pattern {
	return Leaper(board.OneDim(1, board.SymRadial))
}

func (RelayBehavior) Kind() BehaviorKind     { return BehaviorRelay }
func (RelayBehavior) DependsOnHistory() bool { return true }

func (b RelayBehavior) Actions(ctx *Context, m Mover) Actions {
	out := make(Actions)
	reach := b.Reach
	if len(reach) == 0 {
		reach = []Pattern{AdjacentReach()}
	}

	seen := make(map[string]struct{})
	for _, r := range reach {
		for _, st := range r.Scanner.scan(ctx.Geometry, ctx.Occupancy, m.Position, m.Orientation, m.Team, nil, ctx.touch) {
			donor, ok := ctx.Occupancy[st.Target]
			if !ok || donor.Team != m.Team || donor.PieceID == m.ID {
				continue
			}
			if _, done := seen[donor.PieceID]; done {
				continue
			}
			if len(b.Identities) > 0 && !slices.Contains(b.Identities, donor.Identity) {
				continue
			}
			seen[donor.PieceID] = struct{}{}
			for _, p := range donor.Patterns {
				for sq, action := range p.Search(ctx, m) {
					action.Source = BehaviorRelay
					out[sq] = action
				}
			}
		}
	}
	return out
}

// MimicBehavior replays the pattern of the last action from the mimic's
// own square. Identities, when non-empty, restricts which movers are copied.
type MimicBehavior struct {
	Identities []string
}

func (MimicBehavior) Kind() BehaviorKind     { return BehaviorMimic }
func (MimicBehavior) DependsOnHistory() bool { return true }

func (b MimicBehavior) Actions(ctx *Context, m Mover) Actions {
	out := make(Actions)
	last := ctx.LastAction
	if last == nil || last.Pattern == nil {
		return out
	}
	if len(b.Identities) > 0 {
		mover, ok := ctx.Occupancy[last.Movement.To]
		if !ok || !slices.Contains(b.Identities, mover.Identity) {
			return out
		}
	}
	for sq, action := range last.Pattern.Search(ctx, m) {
		action.Source = BehaviorMimic
		out[sq] = action
	}
	return out
}

// CastlingOption is one castling move: the holder goes to KingTo while the
// partner standing on Partner goes to PartnerTo.
type CastlingOption struct {
	Partner   board.Square
	PartnerID string
	KingTo    board.Square
	PartnerTo board.Square
	// Clear must be empty apart from the two castling pieces.
	Clear []board.Square
}

// CastlingBehavior is held by the royal piece. Each option is available
// while neither the holder nor the partner has been disabled by moving.
type CastlingBehavior struct {
	Options []CastlingOption
}

func (CastlingBehavior) Kind() BehaviorKind     { return BehaviorCastling }
func (CastlingBehavior) DependsOnHistory() bool { return true }

func (b CastlingBehavior) Actions(ctx *Context, m Mover) Actions {
	out := make(Actions)
	if self, ok := ctx.Occupancy[m.Position]; ok && self.CastlingDisabled {
		return out
	}
	for _, opt := range b.Options {
		if action, ok := b.option(ctx, m, opt); ok {
			out[opt.KingTo] = action
		}
	}
	return out
}

func (b CastlingBehavior) option(ctx *Context, m Mover, opt CastlingOption) (Action, bool) {
	ctx.touch(opt.Partner)
	partner, ok := ctx.Occupancy[opt.Partner]
	if !ok || partner.Team != m.Team || partner.CastlingDisabled {
		return Action{}, false
	}
	if opt.PartnerID != "" && partner.PieceID != opt.PartnerID {
		return Action{}, false
	}

	free := func(sq board.Square) bool {
		ctx.touch(sq)
		if !ctx.Geometry.InBounds(sq) {
			return false
		}
		o, occupied := ctx.Occupancy[sq]
		return !occupied || o.PieceID == m.ID || o.PieceID == partner.PieceID
	}
	for _, sq := range opt.Clear {
		if !free(sq) {
			return Action{}, false
		}
	}
	if !free(opt.KingTo) || !free(opt.PartnerTo) {
		return Action{}, false
	}

	if ctx.Options.CastlingSafePath && ctx.Attacked != nil {
		for _, sq := range kingPath(m.Position, opt.KingTo) {
			if ctx.Attacked(m.Team.Next(), sq) {
				return Action{}, false
			}
		}
	}

	return Action{
		Movement: Movement{From: m.Position, To: opt.KingTo, Orientation: m.Orientation},
		Path:     pathBetween(m.Position, opt.KingTo),
		SideEffects: []SideEffect{{
			PieceID:  partner.PieceID,
			Movement: Movement{From: opt.Partner, To: opt.PartnerTo, Orientation: m.Orientation},
		}},
		Source: BehaviorCastling,
	}, true
}

// kingPath lists origin, every square between, and the destination.
func kingPath(from, to board.Square) []board.Square {
	out := []board.Square{from}
	out = append(out, pathBetween(from, to)...)
	if to != from {
		out = append(out, to)
	}
	return out
}

// pathBetween lists the squares strictly between two squares on a line.
func pathBetween(from, to board.Square) []board.Square {
	step := to.Delta(from).Unit()
	if step.IsZero() {
		return nil
	}
	var out []board.Square
	for sq := from.Offset(step); sq != to; sq = sq.Offset(step) {
		out = append(out, sq)
	}
	return out
}
