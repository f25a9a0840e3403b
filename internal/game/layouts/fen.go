package layouts

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/dylhunn/dragontoothmg"
	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

// StartFEN is the orthodox starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// FromFEN builds a classical game from a FEN string. Castling rights are
// honored; the en-passant field is ignored because the game starts with no
// last action.
func FromFEN(fen string) (spec game.GameSpec, err error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return game.GameSpec{}, fmt.Errorf("%w: malformed FEN %q", game.ErrInvalidSetup, fen)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed FEN %q: %v", game.ErrInvalidSetup, fen, r)
		}
	}()
	b := dragontoothmg.ParseFen(fen)

	spec = game.GameSpec{Geometry: board.Chessboard(), FirstTeam: rules.White}
	if !b.Wtomove {
		spec.FirstTeam = rules.Black
	}

	catalog := Catalog{}
	castle := fields[2]
	for _, side := range []struct {
		team rules.Team
		bbs  dragontoothmg.Bitboards
	}{{rules.White, b.White}, {rules.Black, b.Black}} {
		back, _ := homeRanks(side.team)
		for _, set := range []struct {
			identity string
			bb       uint64
		}{
			{Pawn, side.bbs.Pawns},
			{Knight, side.bbs.Knights},
			{Bishop, side.bbs.Bishops},
			{Rook, side.bbs.Rooks},
			{Queen, side.bbs.Queens},
			{King, side.bbs.Kings},
		} {
			for bb := set.bb; bb != 0; bb &= bb - 1 {
				sq := squareOf(uint8(bits.TrailingZeros64(bb)))
				def, _ := catalog.ByIdentity(set.identity, back)
				spec.Pieces = append(spec.Pieces, game.PieceSpec{
					Definition:       def,
					Square:           sq,
					Team:             side.team,
					CastlingDisabled: !castlingAllowed(castle, side.team, set.identity, sq, back),
				})
			}
		}
	}
	return spec, nil
}

// squareOf converts a dragontoothmg square index (a1 = 0, h8 = 63).
func squareOf(index uint8) board.Square {
	return board.Sq(int(index%8), int(index/8))
}

// castlingAllowed reports whether the FEN castling field still lets the
// piece on sq take part in castling.
func castlingAllowed(field string, team rules.Team, identity string, sq board.Square, back int) bool {
	king, queen := "K", "Q"
	if team == rules.Black {
		king, queen = "k", "q"
	}
	switch identity {
	case King:
		return sq == board.Sq(4, back) && (strings.Contains(field, king) || strings.Contains(field, queen))
	case Rook:
		switch sq {
		case board.Sq(7, back):
			return strings.Contains(field, king)
		case board.Sq(0, back):
			return strings.Contains(field, queen)
		}
	}
	return false
}

// OrthodoxMoves lists the legal moves dragontoothmg finds in a position as
// from/to square pairs, promotions collapsed.
func OrthodoxMoves(fen string) (moves map[board.Square][]board.Square, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: malformed FEN %q: %v", game.ErrInvalidSetup, fen, r)
		}
	}()
	b := dragontoothmg.ParseFen(fen)
	moves = make(map[board.Square][]board.Square)
	seen := make(map[[2]board.Square]bool)
	for _, m := range b.GenerateLegalMoves() {
		from, to := squareOf(m.From()), squareOf(m.To())
		if seen[[2]board.Square{from, to}] {
			continue
		}
		seen[[2]board.Square{from, to}] = true
		moves[from] = append(moves[from], to)
	}
	return moves, nil
}
