package game

import (
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

// PieceView is the client-facing state of one piece.
type PieceView struct {
	ID          string            `json:"id"`
	Identity    string            `json:"identity"`
	Team        rules.Team        `json:"team"`
	Square      board.Square      `json:"square"`
	Orientation board.Orientation `json:"orientation"`
	Royal       bool              `json:"royal"`
	Moves       int               `json:"moves"`
	Actions     []board.Square    `json:"actions"`
}

// MutationView describes a pending or offered mutation.
type MutationView struct {
	PieceID  string   `json:"piece_id"`
	Options  []string `json:"options"`
	Required bool     `json:"required"`
}

// GameView is a read-only summary of a game for clients.
type GameView struct {
	GameID     string                       `json:"game_id"`
	Width      int                          `json:"width"`
	Height     int                          `json:"height"`
	Ply        int                          `json:"ply"`
	State      string                       `json:"state"`
	Active     rules.Team                   `json:"active"`
	Winner     *rules.Team                  `json:"winner,omitempty"`
	Pieces     []PieceView                  `json:"pieces"`
	Clocks     map[rules.Team]time.Duration `json:"clocks,omitempty"`
	Mutation   *MutationView                `json:"mutation,omitempty"`
	LastAction string                       `json:"last_action,omitempty"`
}

// View summarizes a game.
func (e *Engine) View(gameID string) (*GameView, error) {
	var view *GameView
	err := e.withGame(gameID, func(g *gameState) error {
		view = g.view()
		return nil
	})
	return view, err
}

func (g *gameState) view() *GameView {
	size := g.geometry.Size()
	v := &GameView{
		GameID: g.id,
		Width:  size.X,
		Height: size.Y,
		Ply:    g.turn.Ply,
		State:  g.turn.State.String(),
		Active: g.turn.ActiveTeam(),
		Pieces: make([]PieceView, 0, len(g.pieces)),
	}
	if g.winner != nil {
		winner := *g.winner
		v.Winner = &winner
	}
	for _, p := range g.sortedPieces() {
		v.Pieces = append(v.Pieces, PieceView{
			ID:          p.ID,
			Identity:    p.Identity,
			Team:        p.Team,
			Square:      p.Position,
			Orientation: p.Orientation,
			Royal:       p.Royal,
			Moves:       p.Moves,
			Actions:     p.Actions.Squares(),
		})
	}
	if len(g.clocks) > 0 {
		v.Clocks = make(map[rules.Team]time.Duration, len(g.clocks))
		for team, c := range g.clocks {
			v.Clocks[team] = c.Remaining()
		}
	}
	switch {
	case g.pending != nil:
		v.Mutation = &MutationView{PieceID: g.pending.PieceID, Options: g.pending.Options, Required: true}
	case g.offer != nil:
		v.Mutation = &MutationView{PieceID: g.offer.PieceID, Options: g.offer.Options}
	}
	if g.lastAction != nil {
		v.LastAction = g.lastAction.String()
	}
	return v
}

// Pieces lists the pieces of a game.
func (e *Engine) Pieces(gameID string) ([]PieceView, error) {
	view, err := e.View(gameID)
	if err != nil {
		return nil, err
	}
	return view.Pieces, nil
}

// GameRecord is the summary of a finished game handed to archives.
type GameRecord struct {
	GameID    string
	StartedAt time.Time
	Width     int
	Height    int
	Win       WinCondition
	Winner    *rules.Team
	History   []rules.HistoryEntry
}

// Record returns the archive summary of a game.
func (e *Engine) Record(gameID string) (*GameRecord, error) {
	var rec *GameRecord
	err := e.withGame(gameID, func(g *gameState) error {
		size := g.geometry.Size()
		rec = &GameRecord{
			GameID:    g.id,
			StartedAt: g.startedAt,
			Width:     size.X,
			Height:    size.Y,
			Win:       g.win,
			History:   g.history.Clone().Entries,
		}
		if g.winner != nil {
			winner := *g.winner
			rec.Winner = &winner
		}
		return nil
	})
	return rec, err
}
