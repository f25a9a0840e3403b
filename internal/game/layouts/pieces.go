// Package layouts provides piece catalogs and starting positions.
package layouts

import (
	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

// Identities of the orthodox pieces.
const (
	Pawn   = "pawn"
	Knight = "knight"
	Bishop = "bishop"
	Rook   = "rook"
	Queen  = "queen"
	King   = "king"
)

// PromotionRank is the local rank pawns promote on.
const PromotionRank = 8

func KnightPatterns() []rules.Pattern {
	return []rules.Pattern{
		rules.Leaper(board.TwoDim(1, 2, board.LeapAll)).WithCapture(rules.Displacement()),
	}
}

func BishopPatterns() []rules.Pattern {
	return []rules.Pattern{
		rules.Rider(board.OneDim(1, board.SymDiagonal), 0).WithCapture(rules.Displacement()),
	}
}

func RookPatterns() []rules.Pattern {
	return []rules.Pattern{
		rules.Rider(board.OneDim(1, board.SymOrthogonal), 0).WithCapture(rules.Displacement()),
	}
}

func QueenPatterns() []rules.Pattern {
	return []rules.Pattern{
		rules.Rider(board.OneDim(1, board.SymRadial), 0).WithCapture(rules.Displacement()),
	}
}

func KingPatterns() []rules.Pattern {
	return []rules.Pattern{
		rules.Leaper(board.OneDim(1, board.SymRadial)).WithCapture(rules.Displacement()),
	}
}

// PawnPatterns are the orthodox pawn moves without en passant: one step
// forward, two from the second rank, and a diagonal capture.
func PawnPatterns() []rules.Pattern {
	forward := board.OneDim(1, board.SymForward)
	return []rules.Pattern{
		rules.Leaper(forward),
		rules.Rider(forward, 2).FromLocalRank(2),
		rules.Leaper(board.OneDim(1, board.SymDiagonalForward)).WithCapture(rules.OnlyDisplacement()),
	}
}

// Catalog builds piece definitions. Extra behaviors are attached to every
// definition it produces, which is how relay variants are expressed.
type Catalog struct {
	// Extra maps an identity to additional behaviors for that piece.
	Extra map[string][]rules.Behavior
}

func (c Catalog) define(identity string, patterns []rules.Pattern, extra ...rules.Behavior) rules.PieceDefinition {
	list := []rules.Behavior{rules.PatternBehavior{Patterns: patterns}}
	list = append(list, extra...)
	list = append(list, c.Extra[identity]...)
	return rules.PieceDefinition{Identity: identity, Behaviors: rules.NewBehaviors(list...)}
}

func (c Catalog) Knight() rules.PieceDefinition { return c.define(Knight, KnightPatterns()) }
func (c Catalog) Bishop() rules.PieceDefinition { return c.define(Bishop, BishopPatterns()) }
func (c Catalog) Rook() rules.PieceDefinition   { return c.define(Rook, RookPatterns()) }
func (c Catalog) Queen() rules.PieceDefinition  { return c.define(Queen, QueenPatterns()) }

// King is royal and castles with the rooks in the corners of its home rank.
func (c Catalog) King(castling rules.CastlingBehavior) rules.PieceDefinition {
	def := c.define(King, KingPatterns(), castling)
	def.Royal = true
	return def
}

// Pawn captures en passant and must promote on the last rank.
func (c Catalog) Pawn() rules.PieceDefinition {
	def := c.define(Pawn, PawnPatterns(), rules.EnPassantBehavior{})
	def.Mutation = &rules.Mutation{
		Condition: rules.LocalRank(PromotionRank),
		Required:  true,
		Options:   []rules.PieceDefinition{c.Queen(), c.Rook(), c.Bishop(), c.Knight()},
	}
	return def
}

// ByIdentity returns the definition for an orthodox identity. Kings get
// castling for the given home rank.
func (c Catalog) ByIdentity(identity string, homeRank int) (rules.PieceDefinition, bool) {
	switch identity {
	case Pawn:
		return c.Pawn(), true
	case Knight:
		return c.Knight(), true
	case Bishop:
		return c.Bishop(), true
	case Rook:
		return c.Rook(), true
	case Queen:
		return c.Queen(), true
	case King:
		return c.King(OrthodoxCastling(homeRank)), true
	}
	return rules.PieceDefinition{}, false
}

// OrthodoxCastling returns both castling options for a king on the e-file of
// the given 0-based rank of an 8x8 board.
func OrthodoxCastling(rank int) rules.CastlingBehavior {
	sq := func(file int) board.Square { return board.Sq(file, rank) }
	return rules.CastlingBehavior{Options: []rules.CastlingOption{
		{Partner: sq(7), KingTo: sq(6), PartnerTo: sq(5), Clear: []board.Square{sq(5), sq(6)}},
		{Partner: sq(0), KingTo: sq(2), PartnerTo: sq(3), Clear: []board.Square{sq(1), sq(2), sq(3)}},
	}}
}
