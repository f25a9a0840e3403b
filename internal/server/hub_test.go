package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type frame struct {
	Type   string          `json:"type"`
	GameID string          `json:"game_id"`
	Data   json.RawMessage `json:"data"`
}

func (f frame) event(t *testing.T) EventView {
	t.Helper()
	var ev EventView
	require.NoError(t, json.Unmarshal(f.Data, &ev))
	return ev
}

type testServer struct {
	hub *Hub
	url string
}

func newTestServer(t *testing.T, opts HubOptions) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine := game.NewEngine(logger, game.Options{})
	hub := NewHub(engine, logger, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{hub: hub, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, gameID string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgType, GameID: gameID, Data: raw}))
}

// readUntil returns every frame up to and including the first one for which
// match is true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(frame) bool) []frame {
	t.Helper()
	var frames []frame
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		frames = append(frames, f)
		if match(f) {
			return frames
		}
	}
}

func ofType(msgType string) func(frame) bool {
	return func(f frame) bool { return f.Type == msgType }
}

func eventKinds(t *testing.T, frames []frame) []rules.EventType {
	var kinds []rules.EventType
	for _, f := range frames {
		if f.Type == MsgEvent {
			kinds = append(kinds, f.event(t).Kind)
		}
	}
	return kinds
}

func createGame(t *testing.T, conn *websocket.Conn, req InitGameRequest) (string, []frame) {
	t.Helper()
	send(t, conn, MsgInitGame, "", req)
	frames := readUntil(t, conn, ofType(MsgGameCreated))
	gameID := frames[len(frames)-1].GameID
	require.NotEmpty(t, gameID)
	return gameID, frames
}

func TestInitGameStreamsStartEvents(t *testing.T) {
	srv := newTestServer(t, HubOptions{Layout: "classical"})
	conn := srv.dial(t)

	gameID, frames := createGame(t, conn, InitGameRequest{})
	kinds := eventKinds(t, frames)
	require.NotEmpty(t, kinds)
	assert.Equal(t, rules.EventGameStarted, kinds[0])
	assert.Equal(t, 32, strings.Count(joinKinds(kinds), string(rules.EventActionsUpdated)))

	state := readUntil(t, conn, ofType(MsgGameState))
	var view game.GameView
	require.NoError(t, json.Unmarshal(state[len(state)-1].Data, &view))
	assert.Equal(t, gameID, view.GameID)
	assert.Len(t, view.Pieces, 32)
	assert.Equal(t, rules.White, view.Active)
}

func joinKinds(kinds []rules.EventType) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, " ")
}

func TestRequestTurnBroadcastsToSubscribers(t *testing.T) {
	srv := newTestServer(t, HubOptions{})
	white := srv.dial(t)
	black := srv.dial(t)

	gameID, _ := createGame(t, white, InitGameRequest{Layout: "classical"})
	readUntil(t, white, ofType(MsgGameState))

	send(t, black, MsgSubscribe, gameID, nil)
	readUntil(t, black, ofType(MsgGameState))

	send(t, white, MsgRequestTurn, gameID, TurnMessage{From: "e2", To: "e4"})
	frames := readUntil(t, white, ofType(MsgOK))
	assert.Contains(t, eventKinds(t, frames), rules.EventTurnCompleted)

	seen := readUntil(t, black, func(f frame) bool {
		return f.Type == MsgEvent && f.event(t).Kind == rules.EventTurnCompleted
	})
	completed := seen[len(seen)-1].event(t)
	require.NotNil(t, completed.Action)
	assert.Equal(t, "e2", completed.Action.From.String())
	assert.Equal(t, "e4", completed.Action.To.String())

	// White may not move twice.
	send(t, white, MsgRequestTurn, gameID, TurnMessage{From: "d2", To: "d4"})
	errs := readUntil(t, white, ofType(MsgError))
	var msg ErrorMessage
	require.NoError(t, json.Unmarshal(errs[len(errs)-1].Data, &msg))
	assert.Equal(t, MsgRequestTurn, msg.Request)
	assert.Contains(t, msg.Error, game.ErrWrongTurn.Error())

	send(t, black, MsgRequestTurn, gameID, TurnMessage{From: "e7", To: "e5"})
	readUntil(t, black, ofType(MsgOK))
	readUntil(t, white, func(f frame) bool {
		return f.Type == MsgEvent && f.event(t).Kind == rules.EventTurnCompleted
	})
}

func TestResignEndsGame(t *testing.T) {
	srv := newTestServer(t, HubOptions{})
	conn := srv.dial(t)
	gameID, _ := createGame(t, conn, InitGameRequest{FEN: "4k3/8/8/8/8/8/8/4K3 w - - 0 1"})

	send(t, conn, MsgResign, gameID, ResignMessage{Team: rules.White})
	frames := readUntil(t, conn, func(f frame) bool {
		return f.Type == MsgEvent && f.event(t).Kind == rules.EventGameOver
	})
	over := frames[len(frames)-1].event(t)
	require.NotNil(t, over.Winner)
	assert.Equal(t, rules.Black, *over.Winner)

	send(t, conn, MsgRequestTurn, gameID, TurnMessage{From: "e1", To: "e2"})
	errs := readUntil(t, conn, ofType(MsgError))
	assert.Contains(t, string(errs[len(errs)-1].Data), game.ErrGameOver.Error())
}

func TestTickAllFlagsExpiredClock(t *testing.T) {
	srv := newTestServer(t, HubOptions{Clock: &game.ClockConfig{Duration: time.Second}})
	conn := srv.dial(t)
	_, _ = createGame(t, conn, InitGameRequest{})

	srv.hub.TickAll(2 * time.Second)
	frames := readUntil(t, conn, func(f frame) bool {
		return f.Type == MsgEvent && f.event(t).Kind == rules.EventGameOver
	})
	kinds := eventKinds(t, frames)
	assert.Contains(t, kinds, rules.EventClockFlagged)

	over := frames[len(frames)-1].event(t)
	require.NotNil(t, over.Winner)
	assert.Equal(t, rules.Black, *over.Winner)
}

func TestRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, HubOptions{})
	conn := srv.dial(t)

	tests := []struct {
		name    string
		msgType string
		gameID  string
		data    any
		want    string
	}{
		{"unknown type", "castle_everything", "", nil, "unknown message type"},
		{"unknown layout", MsgInitGame, "", InitGameRequest{Layout: "hexagonal"}, game.ErrInvalidSetup.Error()},
		{"bad clock", MsgInitGame, "", InitGameRequest{Clock: "forever"}, "clock"},
		{"race without target", MsgInitGame, "", InitGameRequest{WinCondition: "race-to-rank"}, "needs a target"},
		{"missing game", MsgView, "nope", nil, game.ErrGameNotFound.Error()},
		{"subscribe missing game", MsgSubscribe, "nope", nil, game.ErrGameNotFound.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.msgType, tt.gameID, tt.data)
			frames := readUntil(t, conn, ofType(MsgError))
			var msg ErrorMessage
			require.NoError(t, json.Unmarshal(frames[len(frames)-1].Data, &msg))
			assert.Equal(t, tt.msgType, msg.Request)
			assert.Contains(t, msg.Error, tt.want)
		})
	}
}

func TestMalformedFrameIsReported(t *testing.T) {
	srv := newTestServer(t, HubOptions{})
	conn := srv.dial(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	frames := readUntil(t, conn, ofType(MsgError))
	assert.Contains(t, string(frames[0].Data), "malformed message")
}

func TestForwardDoesNotBlockOnFullOutbox(t *testing.T) {
	engine := game.NewEngine(zaptest.NewLogger(t), game.Options{})
	hub := NewHub(engine, zaptest.NewLogger(t), HubOptions{})

	// Nothing drains the outbox until Run starts.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(hub.outbox)+10; i++ {
			hub.Forward(rules.NewEvent(rules.EventActionsUpdated, "g1", "p1"))
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Forward blocked on a full outbox")
	}
	assert.Len(t, hub.outbox, cap(hub.outbox))
}
