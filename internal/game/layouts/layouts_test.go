package layouts

import (
	"testing"

	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// assertMatchesOrthodox compares the actions of every piece of the side to
// move with dragontoothmg's legal moves. Only positions without checks or
// pins are used, where pseudo-legal and legal moves coincide.
func assertMatchesOrthodox(t *testing.T, fen string, opts game.Options) {
	t.Helper()

	spec, err := FromFEN(fen)
	require.NoError(t, err)
	engine := game.NewEngine(zaptest.NewLogger(t), opts)
	gameID, err := engine.InitializeGame(spec)
	require.NoError(t, err)

	want, err := OrthodoxMoves(fen)
	require.NoError(t, err)

	view, err := engine.View(gameID)
	require.NoError(t, err)
	for _, p := range view.Pieces {
		if p.Team != spec.FirstTeam {
			continue
		}
		assert.ElementsMatch(t, want[p.Square], p.Actions, "%s on %s", p.Identity, p.Square)
	}
}

func TestClassicalOpeningMatchesOrthodox(t *testing.T) {
	assertMatchesOrthodox(t, StartFEN, game.Options{})
}

func TestCastlingPositionMatchesOrthodox(t *testing.T) {
	fen := "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	assertMatchesOrthodox(t, fen, game.Options{})
	assertMatchesOrthodox(t, fen, game.Options{CastlingSafePath: true})
}

func TestFromFENCastlingRights(t *testing.T) {
	spec, err := FromFEN("r3k2r/8/8/8/8/8/8/R3K2R b Kq - 0 1")
	require.NoError(t, err)
	assert.Equal(t, rules.Black, spec.FirstTeam)

	disabled := map[string]bool{}
	for _, p := range spec.Pieces {
		disabled[p.Square.String()] = p.CastlingDisabled
	}
	assert.False(t, disabled["e1"])
	assert.False(t, disabled["h1"])
	assert.True(t, disabled["a1"])
	assert.False(t, disabled["e8"])
	assert.False(t, disabled["a8"])
	assert.True(t, disabled["h8"])
}

func TestFromFENRejectsGarbage(t *testing.T) {
	_, err := FromFEN("not a fen")
	assert.ErrorIs(t, err, game.ErrInvalidSetup)
}

func TestLayoutsAreWellFormed(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			spec, err := ByName(name)
			require.NoError(t, err)
			assert.Len(t, spec.Pieces, 32)

			engine := game.NewEngine(zaptest.NewLogger(t), game.Options{})
			_, err = engine.InitializeGame(spec)
			require.NoError(t, err)
		})
	}
	_, err := ByName("nope")
	assert.ErrorIs(t, err, game.ErrInvalidSetup)
}

func TestKnightRelayLetsPawnsBorrowKnightMoves(t *testing.T) {
	engine := game.NewEngine(zaptest.NewLogger(t), game.Options{})
	gameID, err := engine.InitializeGame(KnightRelay())
	require.NoError(t, err)

	// The d2 pawn stands next to neither knight; the a2 pawn is next to b1.
	a2, ok, err := engine.PieceAt(gameID, board.MustParseSquare("a2"))
	require.NoError(t, err)
	require.True(t, ok)
	actions, err := engine.Actions(gameID, a2)
	require.NoError(t, err)
	assert.Contains(t, actions, board.MustParseSquare("b4"))
	assert.Equal(t, rules.BehaviorRelay, actions[board.MustParseSquare("b4")].Source)

	d2, ok, err := engine.PieceAt(gameID, board.MustParseSquare("d2"))
	require.NoError(t, err)
	require.True(t, ok)
	actions, err = engine.Actions(gameID, d2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []board.Square{board.MustParseSquare("d3"), board.MustParseSquare("d4")}, actions.Squares())
}
