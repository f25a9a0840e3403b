package server

import (
	"encoding/json"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

// Inbound message types.
const (
	MsgInitGame        = "init_game"
	MsgRequestTurn     = "request_turn"
	MsgResolveMutation = "resolve_mutation"
	MsgTick            = "tick"
	MsgResign          = "resign"
	MsgSubscribe       = "subscribe"
	MsgView            = "view"
)

// Outbound message types. Engine events are forwarded with type "event".
const (
	MsgGameCreated = "game_created"
	MsgGameState   = "game_state"
	MsgEvent       = "event"
	MsgError       = "error"
	MsgOK          = "ok"
)

// WSMessage is the envelope for every frame in both directions.
type WSMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Type   string `json:"type"`
	GameID string `json:"game_id,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// InitGameRequest starts a game from a named layout or a FEN string.
type InitGameRequest struct {
	Layout       string `json:"layout,omitempty"`
	FEN          string `json:"fen,omitempty"`
	WinCondition string `json:"win_condition,omitempty"`
	// Clock and Increment are Go duration strings ("5m", "3s").
	Clock     string `json:"clock,omitempty"`
	Increment string `json:"increment,omitempty"`
}

// TurnMessage moves a piece, identified by ID or by its square.
type TurnMessage struct {
	PieceID  string `json:"piece_id,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to"`
	Mutation string `json:"mutation,omitempty"`
}

type MutationMessage struct {
	PieceID  string `json:"piece_id"`
	Identity string `json:"identity"`
}

type TickMessage struct {
	Elapsed string `json:"elapsed"`
}

type ResignMessage struct {
	Team rules.Team `json:"team"`
}

type ErrorMessage struct {
	Request string `json:"request"`
	Error   string `json:"error"`
}

// ActionView is the wire form of an action.
type ActionView struct {
	From        board.Square   `json:"from"`
	To          board.Square   `json:"to"`
	Captures    []board.Square `json:"captures,omitempty"`
	SideEffects []MoveView     `json:"side_effects,omitempty"`
	Source      string         `json:"source,omitempty"`
}

type MoveView struct {
	PieceID string       `json:"piece_id"`
	From    board.Square `json:"from"`
	To      board.Square `json:"to"`
}

// EventView is the wire form of an engine event.
type EventView struct {
	Kind      rules.EventType `json:"kind"`
	PieceID   string          `json:"piece_id,omitempty"`
	Team      rules.Team      `json:"team"`
	Ply       int             `json:"ply"`
	Action    *ActionView     `json:"action,omitempty"`
	Actions   []board.Square  `json:"actions,omitempty"`
	Options   []string        `json:"options,omitempty"`
	Mutated   string          `json:"mutated,omitempty"`
	Winner    *rules.Team     `json:"winner,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func actionView(a rules.Action) *ActionView {
	v := &ActionView{
		From:     a.Movement.From,
		To:       a.Movement.To,
		Captures: a.Captures,
		Source:   string(a.Source),
	}
	for _, se := range a.SideEffects {
		v.SideEffects = append(v.SideEffects, MoveView{
			PieceID: se.PieceID,
			From:    se.Movement.From,
			To:      se.Movement.To,
		})
	}
	return v
}

func eventView(ev rules.Event) EventView {
	v := EventView{
		Kind:      ev.Type,
		PieceID:   ev.PieceID,
		Team:      ev.Team,
		Ply:       ev.Ply,
		Options:   ev.Options,
		Mutated:   ev.Mutated,
		Winner:    ev.Winner,
		Timestamp: ev.Timestamp,
	}
	if ev.Action != nil {
		v.Action = actionView(*ev.Action)
	}
	if ev.Type == rules.EventActionsUpdated {
		v.Actions = ev.Actions.Squares()
	}
	return v
}

func encode(msgType, gameID string, data any) []byte {
	payload, err := json.Marshal(outbound{Type: msgType, GameID: gameID, Data: data})
	if err != nil {
		payload, _ = json.Marshal(outbound{Type: MsgError, GameID: gameID, Data: ErrorMessage{Request: msgType, Error: err.Error()}})
	}
	return payload
}

func parseDuration(text string) (time.Duration, error) {
	if text == "" {
		return 0, nil
	}
	return time.ParseDuration(text)
}
