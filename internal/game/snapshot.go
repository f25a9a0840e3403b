package game

import (
	"encoding/gob"
	"fmt"
	"sort"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

// SnapshotVersion is bumped whenever GameSnapshot changes shape.
const SnapshotVersion = 1

func init() {
	gob.Register(board.Rect{})
}

// GameSnapshot is a complete, self-contained copy of one game. It is used
// for request rollback, replays and persistence.
type GameSnapshot struct {
	Version       int
	GameID        string
	Geometry      board.Geometry
	Pieces        []*rules.Piece
	Turn          rules.TurnManager
	History       []rules.HistoryEntry
	LastAction    *rules.Action
	Clocks        map[rules.Team]Clock
	Win           WinCondition
	InitialRoyals map[rules.Team]int
	Winner        *rules.Team
	Pending       *PendingMutation
	Offer         *PendingMutation
	StartedAt     time.Time
	Timestamp     time.Time
}

func (g *gameState) capture() *GameSnapshot {
	s := &GameSnapshot{
		Version:       SnapshotVersion,
		GameID:        g.id,
		Geometry:      g.geometry,
		Pieces:        make([]*rules.Piece, 0, len(g.pieces)),
		Turn:          *g.turn.Clone(),
		History:       g.history.Clone().Entries,
		Win:           g.win,
		InitialRoyals: make(map[rules.Team]int, len(g.initialRoyals)),
		Clocks:        make(map[rules.Team]Clock, len(g.clocks)),
		Pending:       clonePending(g.pending),
		Offer:         clonePending(g.offer),
		StartedAt:     g.startedAt,
		Timestamp:     time.Now(),
	}
	for _, p := range g.sortedPieces() {
		s.Pieces = append(s.Pieces, p.Clone())
	}
	if g.lastAction != nil {
		last := g.lastAction.Clone()
		s.LastAction = &last
	}
	for team, c := range g.clocks {
		s.Clocks[team] = *c
	}
	for team, n := range g.initialRoyals {
		s.InitialRoyals[team] = n
	}
	if g.winner != nil {
		winner := *g.winner
		s.Winner = &winner
	}
	return s
}

// restore overwrites g with s. The snapshot itself is left untouched.
func (g *gameState) restore(s *GameSnapshot) {
	g.geometry = s.Geometry
	g.pieces = make(map[string]*rules.Piece, len(s.Pieces))
	g.at = make(map[board.Square]string, len(s.Pieces))
	for _, p := range s.Pieces {
		c := p.Clone()
		g.pieces[c.ID] = c
		g.at[c.Position] = c.ID
	}
	turn := s.Turn
	g.turn = &turn
	g.history = (&rules.ActionHistory{Entries: s.History}).Clone()
	g.lastAction = nil
	if s.LastAction != nil {
		last := s.LastAction.Clone()
		g.lastAction = &last
	}
	g.clocks = make(map[rules.Team]*Clock, len(s.Clocks))
	for team, c := range s.Clocks {
		g.clocks[team] = c.Clone()
	}
	g.win = s.Win
	g.initialRoyals = make(map[rules.Team]int, len(s.InitialRoyals))
	for team, n := range s.InitialRoyals {
		g.initialRoyals[team] = n
	}
	g.winner = nil
	if s.Winner != nil {
		winner := *s.Winner
		g.winner = &winner
	}
	g.pending = clonePending(s.Pending)
	g.offer = clonePending(s.Offer)
	g.startedAt = s.StartedAt
}

func clonePending(p *PendingMutation) *PendingMutation {
	if p == nil {
		return nil
	}
	out := *p
	out.Action = p.Action.Clone()
	out.Options = append([]string(nil), p.Options...)
	out.Changed = append([]board.Square(nil), p.Changed...)
	return &out
}

// Snapshot captures the current state of a game.
func (e *Engine) Snapshot(gameID string) (*GameSnapshot, error) {
	var s *GameSnapshot
	err := e.withGame(gameID, func(g *gameState) error {
		s = g.capture()
		return nil
	})
	return s, err
}

// RestoreGame hosts a game rebuilt from a snapshot under the snapshot's ID.
// Every piece's actions are recomputed.
func (e *Engine) RestoreGame(s *GameSnapshot) (string, error) {
	if s == nil || s.Geometry == nil {
		return "", fmt.Errorf("%w: empty snapshot", ErrInvalidSetup)
	}
	if s.Version != SnapshotVersion {
		return "", fmt.Errorf("%w: snapshot version %d, want %d", ErrInvalidSetup, s.Version, SnapshotVersion)
	}

	g := &gameState{id: s.GameID, bus: rules.NewEventBus()}
	g.restore(s)
	for _, p := range g.pieces {
		p.Dirty = true
	}

	e.mu.Lock()
	if _, exists := e.games[g.id]; exists {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: game %s already exists", ErrInvalidSetup, g.id)
	}
	e.games[g.id] = g
	e.mu.Unlock()

	err := e.withGame(g.id, func(g *gameState) error {
		e.recompute(g, nil)
		return nil
	})
	return g.id, err
}

func sortedTeams[V any](m map[rules.Team]V) []rules.Team {
	teams := make([]rules.Team, 0, len(m))
	for team := range m {
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	return teams
}
