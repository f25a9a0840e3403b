package game_test

import (
	"testing"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/layouts"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	t      *testing.T
	engine *game.Engine
	gameID string
	events []rules.Event
}

func newHarness(t *testing.T, spec game.GameSpec, opts game.Options) *harness {
	t.Helper()
	h := &harness{t: t, engine: game.NewEngine(zaptest.NewLogger(t), opts)}
	h.engine.SetNotificationHandler(func(e rules.Event) { h.events = append(h.events, e) })
	id, err := h.engine.InitializeGame(spec)
	require.NoError(t, err)
	h.gameID = id
	return h
}

func fromFEN(t *testing.T, fen string) game.GameSpec {
	t.Helper()
	spec, err := layouts.FromFEN(fen)
	require.NoError(t, err)
	return spec
}

func sq(s string) board.Square { return board.MustParseSquare(s) }

func (h *harness) pieceOn(square string) string {
	h.t.Helper()
	id, ok, err := h.engine.PieceAt(h.gameID, sq(square))
	require.NoError(h.t, err)
	require.True(h.t, ok, "no piece on %s", square)
	return id
}

func (h *harness) try(from, to string) error {
	id, ok, err := h.engine.PieceAt(h.gameID, sq(from))
	if err != nil {
		return err
	}
	if !ok {
		return game.ErrUnknownPiece
	}
	return h.engine.RequestTurn(h.gameID, game.TurnRequest{PieceID: id, Destination: sq(to)})
}

func (h *harness) move(from, to string) {
	h.t.Helper()
	require.NoError(h.t, h.try(from, to), "%s-%s", from, to)
}

func (h *harness) view() *game.GameView {
	h.t.Helper()
	v, err := h.engine.View(h.gameID)
	require.NoError(h.t, err)
	return v
}

func (h *harness) actionsOf(square string) []board.Square {
	h.t.Helper()
	actions, err := h.engine.Actions(h.gameID, h.pieceOn(square))
	require.NoError(h.t, err)
	return actions.Squares()
}

func (h *harness) checksum() string {
	h.t.Helper()
	s, err := h.engine.Snapshot(h.gameID)
	require.NoError(h.t, err)
	sum, err := s.ComputeChecksum()
	require.NoError(h.t, err)
	return sum.Hash
}

func (h *harness) count(eventType rules.EventType) int {
	n := 0
	for _, e := range h.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// boardActions maps each occupied square to its piece's actions, which is
// comparable across engines that assign different piece IDs.
func boardActions(v *game.GameView) map[board.Square][]board.Square {
	out := make(map[board.Square][]board.Square, len(v.Pieces))
	for _, p := range v.Pieces {
		out[p.Square] = p.Actions
	}
	return out
}

func TestInitializeGameValidatesSetup(t *testing.T) {
	engine := game.NewEngine(zaptest.NewLogger(t), game.Options{})
	catalog := layouts.Catalog{}

	_, err := engine.InitializeGame(game.GameSpec{})
	assert.ErrorIs(t, err, game.ErrInvalidSetup)

	_, err = engine.InitializeGame(game.GameSpec{
		Geometry: board.Chessboard(),
		Pieces: []game.PieceSpec{
			{Definition: catalog.Rook(), Square: sq("a1")},
			{Definition: catalog.Rook(), Square: sq("a1"), Team: rules.Black},
		},
	})
	assert.ErrorIs(t, err, game.ErrInvalidSetup)

	_, err = engine.InitializeGame(game.GameSpec{
		Geometry: board.Chessboard(),
		Pieces:   []game.PieceSpec{{Definition: catalog.Rook(), Square: board.Sq(8, 0)}},
	})
	assert.ErrorIs(t, err, game.ErrInvalidSetup)

	_, err = engine.View("missing")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestInitializeGameEmitsStartAndActions(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{})
	require.NotEmpty(t, h.events)
	assert.Equal(t, rules.EventGameStarted, h.events[0].Type)
	assert.Equal(t, 32, h.count(rules.EventActionsUpdated))

	v := h.view()
	assert.Equal(t, 0, v.Ply)
	assert.Equal(t, rules.White, v.Active)
	assert.Equal(t, rules.StateAwaitingMove.String(), v.State)
}

func TestRejectedRequestsLeaveStateUnchanged(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{})
	before := h.checksum()
	events := len(h.events)

	err := h.try("e7", "e5")
	assert.ErrorIs(t, err, game.ErrWrongTurn)

	err = h.try("e2", "e5")
	assert.ErrorIs(t, err, game.ErrInvalidMove)

	err = h.engine.RequestTurn(h.gameID, game.TurnRequest{PieceID: "ghost", Destination: sq("e4")})
	assert.ErrorIs(t, err, game.ErrUnknownPiece)

	err = h.engine.RequestTurn(h.gameID, game.TurnRequest{PieceID: h.pieceOn("e2"), Destination: sq("e4"), Mutation: "queen"})
	assert.ErrorIs(t, err, game.ErrMutationOptionInvalid)

	err = h.engine.ResolveMutation(h.gameID, h.pieceOn("e2"), "queen")
	assert.ErrorIs(t, err, game.ErrNoPendingMutation)

	assert.Equal(t, before, h.checksum())
	assert.Len(t, h.events, events, "rejected requests emit nothing")
	assert.Equal(t, rules.StateAwaitingMove.String(), h.view().State)
}

func TestTurnCompletesAndAlternates(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{})
	h.events = nil

	pawn := h.pieceOn("e2")
	h.move("e2", "e4")

	v := h.view()
	assert.Equal(t, 1, v.Ply)
	assert.Equal(t, rules.Black, v.Active)
	assert.Equal(t, "e2-e4", v.LastAction)
	assert.Equal(t, pawn, h.pieceOn("e4"))

	require.NotEmpty(t, h.events)
	assert.Equal(t, rules.EventTurnCompleted, h.events[0].Type)
	assert.Equal(t, 1, h.events[0].Ply)
	assert.Positive(t, h.count(rules.EventActionsUpdated))

	history, err := h.engine.History(h.gameID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, layouts.Pawn, history[0].Identity)
	assert.Equal(t, rules.White, history[0].Team)

	assert.ErrorIs(t, h.try("d2", "d4"), game.ErrWrongTurn)
}

func TestEnPassantOnlyImmediately(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{})
	h.move("e2", "e4")
	h.move("a7", "a6")
	h.move("e4", "e5")
	h.move("d7", "d5")

	assert.Contains(t, h.actionsOf("e5"), sq("d6"))
	h.events = nil
	victim := h.pieceOn("d5")
	h.move("e5", "d6")

	_, stillThere, err := h.engine.PieceAt(h.gameID, sq("d5"))
	require.NoError(t, err)
	assert.False(t, stillThere)
	require.Equal(t, 1, h.count(rules.EventPieceCaptured))
	for _, e := range h.events {
		if e.Type == rules.EventPieceCaptured {
			assert.Equal(t, victim, e.PieceID)
			assert.Equal(t, sq("d5"), e.Square)
		}
	}

	late := newHarness(t, layouts.Classical(), game.Options{})
	late.move("e2", "e4")
	late.move("a7", "a6")
	late.move("e4", "e5")
	late.move("d7", "d5")
	late.move("h2", "h3")
	late.move("h7", "h6")
	assert.NotContains(t, late.actionsOf("e5"), sq("d6"))
	assert.ErrorIs(t, late.try("e5", "d6"), game.ErrInvalidMove)
}

func TestCastlingMovesBothPieces(t *testing.T) {
	h := newHarness(t, fromFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"), game.Options{})
	assert.Subset(t, h.actionsOf("e1"), []board.Square{sq("g1"), sq("c1")})

	king, rook := h.pieceOn("e1"), h.pieceOn("h1")
	h.move("e1", "g1")
	assert.Equal(t, king, h.pieceOn("g1"))
	assert.Equal(t, rook, h.pieceOn("f1"))

	h.move("e8", "c8")
	v := h.view()
	assert.Equal(t, layouts.King, v.Pieces[indexOf(v, sq("c8"))].Identity)
	assert.Equal(t, layouts.Rook, v.Pieces[indexOf(v, sq("d8"))].Identity)
	assert.Equal(t, -1, indexOf(v, sq("a8")))
}

func indexOf(v *game.GameView, square board.Square) int {
	for i, p := range v.Pieces {
		if p.Square == square {
			return i
		}
	}
	return -1
}

func TestCastlingDisabledAfterPartnerMoves(t *testing.T) {
	h := newHarness(t, fromFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"), game.Options{})
	h.move("h1", "h2")
	h.move("a8", "a7")
	h.move("h2", "h1")
	h.move("a7", "a8")

	actions := h.actionsOf("e1")
	assert.NotContains(t, actions, sq("g1"))
	assert.Contains(t, actions, sq("c1"))
	assert.NotContains(t, h.actionsOf("e8"), sq("c8"))
	assert.Contains(t, h.actionsOf("e8"), sq("g8"))
}

func TestCastlingSafePath(t *testing.T) {
	// The black rook on f8 attacks f1, which the king must cross to g1.
	fen := "4kr2/8/8/8/8/8/8/R3K2R w KQ - 0 1"
	lax := newHarness(t, fromFEN(t, fen), game.Options{})
	assert.Contains(t, lax.actionsOf("e1"), sq("g1"))

	strict := newHarness(t, fromFEN(t, fen), game.Options{CastlingSafePath: true})
	assert.NotContains(t, strict.actionsOf("e1"), sq("g1"))
	assert.Contains(t, strict.actionsOf("e1"), sq("c1"))
}

const promotionFEN = "7k/P7/8/8/8/8/8/K7 w - - 0 1"

func TestRequiredPromotionWaitsForChoice(t *testing.T) {
	h := newHarness(t, fromFEN(t, promotionFEN), game.Options{})
	pawn := h.pieceOn("a7")
	h.events = nil

	h.move("a7", "a8")
	v := h.view()
	assert.Equal(t, rules.StateAwaitingMutationChoice.String(), v.State)
	assert.Equal(t, 0, v.Ply)
	require.NotNil(t, v.Mutation)
	assert.True(t, v.Mutation.Required)
	assert.ElementsMatch(t, []string{layouts.Queen, layouts.Rook, layouts.Bishop, layouts.Knight}, v.Mutation.Options)
	assert.Equal(t, 1, h.count(rules.EventMutationRequired))
	assert.Zero(t, h.count(rules.EventTurnCompleted))

	// Anything but the pending choice is ambiguous.
	err := h.engine.RequestTurn(h.gameID, game.TurnRequest{PieceID: pawn, Destination: sq("a8")})
	assert.ErrorIs(t, err, game.ErrAmbiguousMutation)
	err = h.engine.RequestTurn(h.gameID, game.TurnRequest{PieceID: h.pieceOn("h8"), Destination: sq("g8"), Mutation: "queen"})
	assert.ErrorIs(t, err, game.ErrAmbiguousMutation)
	err = h.engine.ResolveMutation(h.gameID, pawn, layouts.King)
	assert.ErrorIs(t, err, game.ErrMutationOptionInvalid)
	assert.Equal(t, rules.StateAwaitingMutationChoice.String(), h.view().State)

	require.NoError(t, h.engine.ResolveMutation(h.gameID, pawn, layouts.Queen))
	v = h.view()
	assert.Equal(t, 1, v.Ply)
	assert.Equal(t, layouts.Queen, v.Pieces[indexOf(v, sq("a8"))].Identity)
	assert.Nil(t, v.Mutation)
	assert.Equal(t, 1, h.count(rules.EventMutationApplied))

	history, err := h.engine.History(h.gameID)
	require.NoError(t, err)
	assert.Equal(t, layouts.Queen, history[0].Mutation)
}

func TestPromotionChoiceInRequest(t *testing.T) {
	h := newHarness(t, fromFEN(t, promotionFEN), game.Options{})
	pawn := h.pieceOn("a7")

	err := h.engine.RequestTurn(h.gameID, game.TurnRequest{PieceID: pawn, Destination: sq("a8"), Mutation: "dragon"})
	assert.ErrorIs(t, err, game.ErrMutationOptionInvalid)
	assert.Equal(t, pawn, h.pieceOn("a7"))

	require.NoError(t, h.engine.RequestTurn(h.gameID, game.TurnRequest{PieceID: pawn, Destination: sq("a8"), Mutation: layouts.Knight}))
	v := h.view()
	assert.Equal(t, layouts.Knight, v.Pieces[indexOf(v, sq("a8"))].Identity)
	assert.ElementsMatch(t, []board.Square{sq("b6"), sq("c7")}, v.Pieces[indexOf(v, sq("a8"))].Actions)
}

func mutationSpec(mutation *rules.Mutation) game.GameSpec {
	catalog := layouts.Catalog{}
	climber := rules.PieceDefinition{
		Identity:  "climber",
		Behaviors: rules.NewBehaviors(rules.PatternBehavior{Patterns: []rules.Pattern{rules.Leaper(board.OneDim(1, board.SymForward))}}),
		Mutation:  mutation,
	}
	return game.GameSpec{
		Geometry: board.Chessboard(),
		Pieces: []game.PieceSpec{
			{Definition: climber, Square: sq("a7"), Team: rules.White},
			{Definition: catalog.King(rules.CastlingBehavior{}), Square: sq("h1"), Team: rules.White},
			{Definition: catalog.King(rules.CastlingBehavior{}), Square: sq("h8"), Team: rules.Black},
		},
	}
}

func TestRequiredSingleOptionMutatesAutomatically(t *testing.T) {
	h := newHarness(t, mutationSpec(&rules.Mutation{
		Condition: rules.LocalRank(8),
		Required:  true,
		Options:   []rules.PieceDefinition{layouts.Catalog{}.Rook()},
	}), game.Options{})

	h.move("a7", "a8")
	v := h.view()
	assert.Equal(t, 1, v.Ply)
	assert.Equal(t, layouts.Rook, v.Pieces[indexOf(v, sq("a8"))].Identity)
}

func TestOptionalMutationStaysOpenForOneTurn(t *testing.T) {
	spec := mutationSpec(&rules.Mutation{
		Condition: rules.LocalRank(8),
		Options:   []rules.PieceDefinition{layouts.Catalog{}.Queen()},
	})

	t.Run("accepted late", func(t *testing.T) {
		h := newHarness(t, spec, game.Options{})
		climber := h.pieceOn("a7")
		h.move("a7", "a8")
		assert.Equal(t, 1, h.count(rules.EventMutationOffered))
		v := h.view()
		assert.Equal(t, rules.StateAwaitingMove.String(), v.State)
		require.NotNil(t, v.Mutation)
		assert.False(t, v.Mutation.Required)

		require.NoError(t, h.engine.ResolveMutation(h.gameID, climber, layouts.Queen))
		v = h.view()
		assert.Equal(t, layouts.Queen, v.Pieces[indexOf(v, sq("a8"))].Identity)
		assert.Equal(t, rules.Black, v.Active, "a late mutation does not use a turn")

		history, err := h.engine.History(h.gameID)
		require.NoError(t, err)
		assert.Equal(t, layouts.Queen, history[0].Mutation)
	})

	t.Run("expired", func(t *testing.T) {
		h := newHarness(t, spec, game.Options{})
		climber := h.pieceOn("a7")
		h.move("a7", "a8")
		h.move("h8", "g8")
		err := h.engine.ResolveMutation(h.gameID, climber, layouts.Queen)
		assert.ErrorIs(t, err, game.ErrNoPendingMutation)
		assert.Equal(t, "climber", h.view().Pieces[indexOf(h.view(), sq("a8"))].Identity)
	})
}

func TestRoyalCaptureEndsGameOnce(t *testing.T) {
	h := newHarness(t, fromFEN(t, "4k3/8/8/8/8/8/4R3/K7 w - - 0 1"), game.Options{})
	h.move("e2", "e8")

	v := h.view()
	require.NotNil(t, v.Winner)
	assert.Equal(t, rules.White, *v.Winner)
	assert.Equal(t, rules.StateTerminal.String(), v.State)
	assert.Equal(t, 1, h.count(rules.EventGameOver))

	assert.ErrorIs(t, h.try("a1", "a2"), game.ErrGameOver)
	assert.ErrorIs(t, h.engine.Tick(h.gameID, time.Second), game.ErrGameOver)
	assert.ErrorIs(t, h.engine.Resign(h.gameID, rules.Black), game.ErrGameOver)
	assert.Equal(t, 1, h.count(rules.EventGameOver))
}

func TestRoyalCaptureByPromotingPawnEndsGame(t *testing.T) {
	spec := fromFEN(t, "7k/6P1/8/8/8/8/8/K7 w - - 0 1")
	spec.Clock = &game.ClockConfig{Duration: time.Minute}
	h := newHarness(t, spec, game.Options{})

	h.move("g7", "h8")
	v := h.view()
	assert.Equal(t, rules.StateTerminal.String(), v.State)
	require.NotNil(t, v.Winner)
	assert.Equal(t, rules.White, *v.Winner)
	assert.Nil(t, v.Mutation)
	assert.Zero(t, h.count(rules.EventMutationRequired))
	assert.Equal(t, 1, h.count(rules.EventGameOver))

	assert.ErrorIs(t, h.engine.Tick(h.gameID, 2*time.Minute), game.ErrGameOver)
	assert.ErrorIs(t, h.engine.Resign(h.gameID, rules.White), game.ErrGameOver)
	assert.Equal(t, rules.White, *h.view().Winner)
	assert.Zero(t, h.count(rules.EventClockFlagged))
}

func TestMutationGrantingRoyaltyCountsForWin(t *testing.T) {
	spec := mutationSpec(&rules.Mutation{
		Condition: rules.LocalRank(8),
		Required:  true,
		ToRoyal:   true,
		Options:   []rules.PieceDefinition{layouts.Catalog{}.Rook()},
	})
	spec.Pieces = append(spec.Pieces, game.PieceSpec{Definition: layouts.Catalog{}.Rook(), Square: sq("a1"), Team: rules.Black})
	spec.WinCondition = game.WinCondition{Kind: game.WinRoyalCapture}
	h := newHarness(t, spec, game.Options{})

	h.move("a7", "a8")
	v := h.view()
	assert.True(t, v.Pieces[indexOf(v, sq("a8"))].Royal)
	assert.Nil(t, v.Winner)

	h.move("a1", "a8")
	v = h.view()
	require.NotNil(t, v.Winner, "losing a royal gained by mutation loses the game")
	assert.Equal(t, rules.Black, *v.Winner)
}

func TestPieceAtUnknownGame(t *testing.T) {
	engine := game.NewEngine(zaptest.NewLogger(t), game.Options{})
	_, found, err := engine.PieceAt("missing", sq("e1"))
	assert.ErrorIs(t, err, game.ErrGameNotFound)
	assert.False(t, found)

	h := newHarness(t, layouts.Classical(), game.Options{})
	_, found, err = h.engine.PieceAt(h.gameID, sq("e4"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRaceToRank(t *testing.T) {
	spec := fromFEN(t, "8/4K3/8/8/8/8/8/k7 w - - 0 1")
	spec.WinCondition = game.WinCondition{Kind: game.WinRaceToRank, Rank: 8}
	h := newHarness(t, spec, game.Options{})

	h.move("e7", "d8")
	v := h.view()
	require.NotNil(t, v.Winner)
	assert.Equal(t, rules.White, *v.Winner)
}

func TestRaceToRegion(t *testing.T) {
	spec := fromFEN(t, "8/8/8/8/3K4/8/8/k7 w - - 0 1")
	spec.WinCondition = game.WinCondition{Kind: game.WinRaceToRegion, Region: []board.Square{sq("e5"), sq("d5")}}
	h := newHarness(t, spec, game.Options{})

	h.move("d4", "c4")
	assert.Nil(t, h.view().Winner)
	h.move("a1", "a2")
	h.move("c4", "d5")
	require.NotNil(t, h.view().Winner)
	assert.Equal(t, rules.White, *h.view().Winner)
}

func TestClockIncrementAndFlag(t *testing.T) {
	spec := layouts.Classical()
	spec.Clock = &game.ClockConfig{Duration: 10 * time.Second, Increment: 2 * time.Second}
	h := newHarness(t, spec, game.Options{})

	require.NoError(t, h.engine.Tick(h.gameID, 3*time.Second))
	assert.Equal(t, 7*time.Second, h.view().Clocks[rules.White])
	assert.Equal(t, 10*time.Second, h.view().Clocks[rules.Black])

	h.move("e2", "e4")
	assert.Equal(t, 9*time.Second, h.view().Clocks[rules.White])

	require.NoError(t, h.engine.Tick(h.gameID, 4*time.Second))
	assert.Equal(t, 9*time.Second, h.view().Clocks[rules.White], "paused clock ignores ticks")
	assert.Equal(t, 6*time.Second, h.view().Clocks[rules.Black])

	require.NoError(t, h.engine.Tick(h.gameID, 6*time.Second))
	v := h.view()
	require.NotNil(t, v.Winner)
	assert.Equal(t, rules.White, *v.Winner)
	assert.Equal(t, 1, h.count(rules.EventClockFlagged))
	assert.Equal(t, 1, h.count(rules.EventGameOver))
}

func TestResign(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{})
	require.NoError(t, h.engine.Resign(h.gameID, rules.White))
	require.NotNil(t, h.view().Winner)
	assert.Equal(t, rules.Black, *h.view().Winner)
}

// A short game touching captures, en passant and castling.
var scriptedGame = [][2]string{
	{"e2", "e4"}, {"d7", "d5"},
	{"e4", "d5"}, {"c7", "c5"},
	{"d5", "c6"}, {"b7", "c6"},
	{"g1", "f3"}, {"c8", "g4"},
	{"f1", "e2"}, {"g4", "f3"},
	{"e1", "g1"}, {"d8", "d2"},
}

func TestIncrementalRecomputeMatchesFull(t *testing.T) {
	full := newHarness(t, layouts.SuperRelay(), game.Options{FullRecompute: true})
	incremental := newHarness(t, layouts.SuperRelay(), game.Options{ParallelRecompute: true})

	for _, m := range scriptedGame {
		errFull := full.try(m[0], m[1])
		errIncremental := incremental.try(m[0], m[1])
		require.Equal(t, errFull == nil, errIncremental == nil, "%s-%s", m[0], m[1])
		if errFull != nil {
			continue
		}
		assert.Equal(t, boardActions(full.view()), boardActions(incremental.view()), "after %s-%s", m[0], m[1])
	}
}

func cannonSpec(t *testing.T) game.GameSpec {
	spec := fromFEN(t, "7k/8/8/8/8/R7/8/7K w - - 0 1")
	cannon := rules.PieceDefinition{
		Identity: "cannon",
		Behaviors: rules.NewBehaviors(rules.PatternBehavior{Patterns: []rules.Pattern{
			rules.Hopper(board.OneDim(1, board.SymOrthogonal), rules.TargetAny, 0),
		}}),
	}
	spec.Pieces = append(spec.Pieces, game.PieceSpec{Definition: cannon, Square: sq("a1"), Team: rules.White})
	return spec
}

func TestIncrementalRecomputeTracksHopperScreen(t *testing.T) {
	full := newHarness(t, cannonSpec(t), game.Options{FullRecompute: true})
	incremental := newHarness(t, cannonSpec(t), game.Options{})
	assert.Contains(t, incremental.actionsOf("a1"), sq("a5"))

	// Moving the screen away leaves the cannon nothing to jump on the a-file.
	for _, m := range [][2]string{{"a3", "b3"}, {"h8", "g8"}} {
		full.move(m[0], m[1])
		incremental.move(m[0], m[1])
		assert.Equal(t, boardActions(full.view()), boardActions(incremental.view()), "after %s-%s", m[0], m[1])
	}
	assert.NotContains(t, incremental.actionsOf("a1"), sq("a5"))
	assert.ErrorIs(t, incremental.try("a1", "a5"), game.ErrInvalidMove)
}

func TestScriptedClassicalGame(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{ParallelRecompute: true})
	for _, m := range scriptedGame {
		h.move(m[0], m[1])
	}
	v := h.view()
	assert.Equal(t, len(scriptedGame), v.Ply)
	assert.Equal(t, layouts.King, v.Pieces[indexOf(v, sq("g1"))].Identity)
	assert.Equal(t, layouts.Rook, v.Pieces[indexOf(v, sq("f1"))].Identity)
	assert.Equal(t, layouts.Queen, v.Pieces[indexOf(v, sq("d2"))].Identity)
	assert.Equal(t, -1, indexOf(v, sq("c5")))
	assert.Len(t, v.Pieces, 32-5)
}

func TestSubscribeReceivesEventsInOrder(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{})
	var got []rules.EventType
	_, err := h.engine.Subscribe(h.gameID, func(e rules.Event) { got = append(got, e.Type) })
	require.NoError(t, err)

	h.move("e2", "e4")
	require.NotEmpty(t, got)
	assert.Equal(t, rules.EventTurnCompleted, got[0])
	for _, typ := range got[1:] {
		assert.Equal(t, rules.EventActionsUpdated, typ)
	}

	_, err = h.engine.Subscribe("missing", func(rules.Event) {})
	assert.ErrorIs(t, err, game.ErrGameNotFound)
}

func TestEndGameForgetsGame(t *testing.T) {
	h := newHarness(t, layouts.Classical(), game.Options{})
	assert.Equal(t, []string{h.gameID}, h.engine.GameIDs())
	require.NoError(t, h.engine.EndGame(h.gameID))
	assert.Empty(t, h.engine.GameIDs())
	assert.ErrorIs(t, h.engine.EndGame(h.gameID), game.ErrGameNotFound)
}
