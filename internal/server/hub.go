// Package server exposes the game engine over websocket JSON messages.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/layouts"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HubOptions carries the defaults applied to init_game requests.
type HubOptions struct {
	Layout string
	Clock  *game.ClockConfig
}

// delivery is a frame queued for one client, or for every subscriber of
// gameID when client is nil.
type delivery struct {
	client  *Client
	gameID  string
	payload []byte
}

// Hub routes client requests to the engine and engine events back to the
// clients subscribed to each game.
type Hub struct {
	engine *game.Engine
	logger *zap.Logger
	opts   HubOptions

	// clients is owned by the run loop.
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbox     chan delivery
	done       chan struct{}

	mu          sync.RWMutex
	subscribers map[string]map[*Client]bool
}

// NewHub creates a hub and installs it as the engine's notification handler.
func NewHub(engine *game.Engine, logger *zap.Logger, opts HubOptions) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		engine:      engine,
		logger:      logger,
		opts:        opts,
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		outbox:      make(chan delivery, 256),
		done:        make(chan struct{}),
		subscribers: make(map[string]map[*Client]bool),
	}
	engine.SetNotificationHandler(h.Forward)
	return h
}

// Run serves the hub until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.String("client_id", client.id))

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				h.logger.Debug("client unregistered", zap.String("client_id", client.id))
			}

		case d := <-h.outbox:
			if d.client != nil {
				if h.clients[d.client] {
					h.send(d.client, d.payload)
				}
				continue
			}
			for _, client := range h.subscribersOf(d.gameID) {
				if h.clients[client] {
					h.send(client, d.payload)
				}
			}
		}
	}
}

func (h *Hub) send(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("dropping slow client", zap.String("client_id", client.id))
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)

	h.mu.Lock()
	for gameID, subs := range h.subscribers {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscribers, gameID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) subscribe(gameID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscribers[gameID]
	if !ok {
		subs = make(map[*Client]bool)
		h.subscribers[gameID] = subs
	}
	subs[client] = true
}

func (h *Hub) unsubscribe(gameID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[gameID], client)
}

func (h *Hub) subscribersOf(gameID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.subscribers[gameID]))
	for client := range h.subscribers[gameID] {
		out = append(out, client)
	}
	return out
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.outbox <- d:
	case <-h.done:
	}
}

// Forward queues an engine event for the subscribers of its game. NewHub
// installs it as the notification handler, so it never blocks: when the
// outbox is full the event is dropped and clients catch up from the next
// game_state frame.
func (h *Hub) Forward(ev rules.Event) {
	d := delivery{gameID: ev.GameID, payload: encode(MsgEvent, ev.GameID, eventView(ev))}
	select {
	case h.outbox <- d:
	case <-h.done:
	default:
		h.logger.Warn("dropping event, hub outbox full",
			zap.String("game_id", ev.GameID),
			zap.String("event", string(ev.Type)),
		)
	}
}

func (h *Hub) reply(client *Client, msgType, gameID string, data any) {
	h.enqueue(delivery{client: client, payload: encode(msgType, gameID, data)})
}

func (h *Hub) replyError(client *Client, msg WSMessage, err error) {
	h.logger.Debug("request rejected",
		zap.String("client_id", client.id),
		zap.String("type", msg.Type),
		zap.String("game_id", msg.GameID),
		zap.Error(err),
	)
	h.reply(client, MsgError, msg.GameID, ErrorMessage{Request: msg.Type, Error: err.Error()})
}

// publishState sends the game's current view to all of its subscribers.
func (h *Hub) publishState(gameID string) {
	view, err := h.engine.View(gameID)
	if err != nil {
		h.logger.Warn("failed to build game view", zap.String("game_id", gameID), zap.Error(err))
		return
	}
	h.enqueue(delivery{gameID: gameID, payload: encode(MsgGameState, gameID, view)})
}

// TickAll advances the active clock of every running game.
func (h *Hub) TickAll(elapsed time.Duration) {
	for _, gameID := range h.engine.GameIDs() {
		if err := h.engine.Tick(gameID, elapsed); err != nil && !errors.Is(err, game.ErrGameOver) && !errors.Is(err, game.ErrGameNotFound) {
			h.logger.Warn("clock tick failed", zap.String("game_id", gameID), zap.Error(err))
		}
	}
}

// ServeHTTP upgrades the connection and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 256),
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (h *Hub) handleMessage(client *Client, msg WSMessage) {
	var err error
	switch msg.Type {
	case MsgInitGame:
		err = h.handleInitGame(client, msg)
	case MsgRequestTurn:
		err = h.handleRequestTurn(client, msg)
	case MsgResolveMutation:
		err = h.handleResolveMutation(client, msg)
	case MsgTick:
		err = h.handleTick(client, msg)
	case MsgResign:
		err = h.handleResign(client, msg)
	case MsgSubscribe:
		err = h.handleSubscribe(client, msg)
	case MsgView:
		var view *game.GameView
		if view, err = h.engine.View(msg.GameID); err == nil {
			h.reply(client, MsgGameState, msg.GameID, view)
		}
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err != nil {
		h.replyError(client, msg, err)
	}
}

func decode(msg WSMessage, into any) error {
	if len(msg.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg.Data, into); err != nil {
		return fmt.Errorf("malformed %s payload: %w", msg.Type, err)
	}
	return nil
}

func (h *Hub) handleInitGame(client *Client, msg WSMessage) error {
	var req InitGameRequest
	if err := decode(msg, &req); err != nil {
		return err
	}

	var spec game.GameSpec
	var err error
	if req.FEN != "" {
		spec, err = layouts.FromFEN(req.FEN)
	} else {
		layout := req.Layout
		if layout == "" {
			layout = h.opts.Layout
		}
		spec, err = layouts.ByName(layout)
	}
	if err != nil {
		return err
	}

	if req.WinCondition != "" {
		kind, err := game.ParseWinKind(req.WinCondition)
		if err != nil {
			return err
		}
		if kind != game.WinRoyalCapture && kind != game.WinRoyalCaptureAll {
			return fmt.Errorf("%w: win condition %s needs a target", game.ErrInvalidSetup, kind)
		}
		spec.WinCondition = game.WinCondition{Kind: kind}
	}

	clock, err := parseDuration(req.Clock)
	if err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	increment, err := parseDuration(req.Increment)
	if err != nil {
		return fmt.Errorf("increment: %w", err)
	}
	switch {
	case clock > 0:
		spec.Clock = &game.ClockConfig{Duration: clock, Increment: increment}
	case h.opts.Clock != nil:
		cfg := *h.opts.Clock
		spec.Clock = &cfg
	}

	// Subscribe before the game exists so the creator sees its start events.
	spec.ID = uuid.NewString()
	h.subscribe(spec.ID, client)
	gameID, err := h.engine.InitializeGame(spec)
	if err != nil {
		h.unsubscribe(spec.ID, client)
		return err
	}

	h.logger.Info("game created over websocket",
		zap.String("client_id", client.id),
		zap.String("game_id", gameID),
		zap.String("layout", req.Layout),
		zap.Bool("fen", req.FEN != ""),
	)
	h.reply(client, MsgGameCreated, gameID, map[string]string{"game_id": gameID})
	h.publishState(gameID)
	return nil
}

func (h *Hub) handleRequestTurn(client *Client, msg WSMessage) error {
	var req TurnMessage
	if err := decode(msg, &req); err != nil {
		return err
	}
	to, err := board.ParseSquare(req.To)
	if err != nil {
		return err
	}
	pieceID := req.PieceID
	if pieceID == "" {
		from, err := board.ParseSquare(req.From)
		if err != nil {
			return err
		}
		id, ok, err := h.engine.PieceAt(msg.GameID, from)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no piece on %s", game.ErrUnknownPiece, from)
		}
		pieceID = id
	}

	if err := h.engine.RequestTurn(msg.GameID, game.TurnRequest{
		PieceID:     pieceID,
		Destination: to,
		Mutation:    req.Mutation,
	}); err != nil {
		return err
	}
	h.reply(client, MsgOK, msg.GameID, map[string]string{"request": msg.Type})
	h.publishState(msg.GameID)
	return nil
}

func (h *Hub) handleResolveMutation(client *Client, msg WSMessage) error {
	var req MutationMessage
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := h.engine.ResolveMutation(msg.GameID, req.PieceID, req.Identity); err != nil {
		return err
	}
	h.reply(client, MsgOK, msg.GameID, map[string]string{"request": msg.Type})
	h.publishState(msg.GameID)
	return nil
}

func (h *Hub) handleTick(client *Client, msg WSMessage) error {
	var req TickMessage
	if err := decode(msg, &req); err != nil {
		return err
	}
	elapsed, err := parseDuration(req.Elapsed)
	if err != nil {
		return fmt.Errorf("elapsed: %w", err)
	}
	if err := h.engine.Tick(msg.GameID, elapsed); err != nil {
		return err
	}
	h.reply(client, MsgOK, msg.GameID, map[string]string{"request": msg.Type})
	return nil
}

func (h *Hub) handleResign(client *Client, msg WSMessage) error {
	var req ResignMessage
	if err := decode(msg, &req); err != nil {
		return err
	}
	if err := h.engine.Resign(msg.GameID, req.Team); err != nil {
		return err
	}
	h.reply(client, MsgOK, msg.GameID, map[string]string{"request": msg.Type})
	h.publishState(msg.GameID)
	return nil
}

func (h *Hub) handleSubscribe(client *Client, msg WSMessage) error {
	view, err := h.engine.View(msg.GameID)
	if err != nil {
		return err
	}
	h.subscribe(msg.GameID, client)
	h.reply(client, MsgGameState, msg.GameID, view)
	return nil
}
