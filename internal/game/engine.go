package game

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options tune engine behavior for every game it hosts.
type Options struct {
	// Collision decides which behavior wins when two propose the same square.
	Collision rules.CollisionPolicy
	// CastlingSafePath rejects castling through attacked squares.
	CastlingSafePath bool
	// ParallelRecompute spreads action recomputation over goroutines.
	ParallelRecompute bool
	// FullRecompute disables the footprint filter and recomputes every piece
	// after every turn.
	FullRecompute bool
}

// PieceSpec places one piece at game setup.
type PieceSpec struct {
	Definition rules.PieceDefinition
	Square     board.Square
	Team       rules.Team
	// Orientation overrides the team's default facing.
	Orientation *board.Orientation
	// CastlingDisabled starts the piece as if it had already moved.
	CastlingDisabled bool
}

// GameSpec describes a game to initialize.
type GameSpec struct {
	// ID is optional; a random one is assigned when empty.
	ID           string
	Geometry     board.Geometry
	Pieces       []PieceSpec
	WinCondition WinCondition
	Clock        *ClockConfig
	FirstTeam    rules.Team
}

// TurnRequest asks to move PieceID to Destination.
type TurnRequest struct {
	PieceID     string
	Destination board.Square
	// Mutation optionally names the identity to mutate into.
	Mutation string
}

// PendingMutation is a mutation waiting for, or open to, a choice.
type PendingMutation struct {
	PieceID  string
	Key      board.Square
	Action   rules.Action
	Options  []string
	Required bool
	Ply      int
	Changed  []board.Square
}

// NotificationHandler receives engine events after the game lock is
// released, in emission order. Handlers must not block.
type NotificationHandler func(event rules.Event)

// gameState is the mutable state of one game.
type gameState struct {
	id            string
	geometry      board.Geometry
	pieces        map[string]*rules.Piece
	at            map[board.Square]string
	turn          *rules.TurnManager
	history       *rules.ActionHistory
	lastAction    *rules.Action
	clocks        map[rules.Team]*Clock
	win           WinCondition
	// initialRoyals counts each team's royal pieces at setup, adjusted when
	// a mutation grants or removes royalty. Captures do not change it.
	initialRoyals map[rules.Team]int
	winner        *rules.Team
	pending       *PendingMutation
	offer         *PendingMutation
	bus           *rules.EventBus
	outbox        []rules.Event
	startedAt     time.Time
	mu            sync.Mutex
}

// Engine hosts any number of independent games.
type Engine struct {
	logger              *zap.Logger
	opts                Options
	mu                  sync.RWMutex
	games               map[string]*gameState
	notificationHandler NotificationHandler
	replays             *ReplayRecorder
}

// NewEngine creates an engine. A nil logger disables logging.
func NewEngine(logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger: logger,
		opts:   opts,
		games:  make(map[string]*gameState),
	}
}

// SetNotificationHandler sets the handler for game events.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

// SetReplayRecorder enables replay recording for games started afterwards.
func (e *Engine) SetReplayRecorder(recorder *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replays = recorder
}

// Subscribe registers a listener on one game's event bus.
func (e *Engine) Subscribe(gameID string, listener rules.Listener) (int, error) {
	g, err := e.game(gameID)
	if err != nil {
		return -1, err
	}
	return g.bus.Subscribe(listener), nil
}

func (e *Engine) game(gameID string) (*gameState, error) {
	e.mu.RLock()
	g, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return g, nil
}

// withGame runs fn under the game lock and delivers the events it emitted
// once the lock is released.
func (e *Engine) withGame(gameID string, fn func(g *gameState) error) error {
	g, err := e.game(gameID)
	if err != nil {
		return err
	}
	g.mu.Lock()
	err = fn(g)
	events := g.outbox
	g.outbox = nil
	g.mu.Unlock()

	e.deliver(g, events)
	return err
}

// atomically snapshots g before fn and restores it if fn fails.
func (e *Engine) atomically(g *gameState, op string, fn func() error) error {
	bookmark := g.capture()
	outboxLen := len(g.outbox)
	if err := fn(); err != nil {
		g.restore(bookmark)
		g.outbox = g.outbox[:outboxLen]
		e.logger.Debug("rejected request, state restored",
			zap.String("game_id", g.id),
			zap.String("op", op),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (e *Engine) deliver(g *gameState, events []rules.Event) {
	if len(events) == 0 {
		return
	}
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()

	for _, event := range events {
		g.bus.Publish(event)
		if handler != nil {
			handler(event)
		}
	}
}

func (g *gameState) emit(event rules.Event) {
	event.GameID = g.id
	if event.Ply == 0 {
		event.Ply = g.turn.Ply
	}
	g.outbox = append(g.outbox, event)
}

// InitializeGame creates a game from spec and returns its ID.
func (e *Engine) InitializeGame(spec GameSpec) (string, error) {
	g, err := e.newGameState(spec)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	if _, exists := e.games[g.id]; exists {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: game %s already exists", ErrInvalidSetup, g.id)
	}
	e.games[g.id] = g
	replays := e.replays
	e.mu.Unlock()

	err = e.withGame(g.id, func(g *gameState) error {
		g.emit(rules.NewEvent(rules.EventGameStarted, g.id, ""))
		e.recompute(g, nil)
		if replays != nil {
			replays.StartRecording(g.id)
			replays.RecordState(g.id, g.capture())
		}
		return nil
	})

	e.logger.Info("game initialized",
		zap.String("game_id", g.id),
		zap.Int("pieces", len(g.pieces)),
		zap.String("win_condition", g.win.Kind.String()),
		zap.Bool("clock", len(g.clocks) > 0),
	)
	return g.id, err
}

func (e *Engine) newGameState(spec GameSpec) (*gameState, error) {
	if spec.Geometry == nil {
		return nil, fmt.Errorf("%w: missing board geometry", ErrInvalidSetup)
	}
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	g := &gameState{
		id:            id,
		geometry:      spec.Geometry,
		pieces:        make(map[string]*rules.Piece, len(spec.Pieces)),
		at:            make(map[board.Square]string, len(spec.Pieces)),
		turn:          rules.NewTurnManager(spec.FirstTeam),
		history:       &rules.ActionHistory{},
		win:           spec.WinCondition,
		initialRoyals: make(map[rules.Team]int),
		clocks:        make(map[rules.Team]*Clock),
		bus:           rules.NewEventBus(),
		startedAt:     time.Now(),
	}

	for i, ps := range spec.Pieces {
		if !spec.Geometry.InBounds(ps.Square) {
			return nil, fmt.Errorf("%w: piece %d (%s) outside the board at %s", ErrInvalidSetup, i, ps.Definition.Identity, ps.Square)
		}
		if other, taken := g.at[ps.Square]; taken {
			return nil, fmt.Errorf("%w: %s already holds piece %s", ErrInvalidSetup, ps.Square, other)
		}
		p := rules.NewPiece(uuid.NewString(), ps.Definition, ps.Team, ps.Square)
		if ps.Orientation != nil {
			p.Orientation = *ps.Orientation
		}
		p.CastlingDisabled = ps.CastlingDisabled
		g.pieces[p.ID] = p
		g.at[p.Position] = p.ID
		if p.Royal {
			g.initialRoyals[p.Team]++
		}
	}
	g.bindCastlingPartners()

	if spec.Clock != nil {
		for _, team := range []rules.Team{rules.White, rules.Black} {
			g.clocks[team] = NewClock(*spec.Clock)
		}
		g.clocks[spec.FirstTeam].Unpause()
	}
	return g, nil
}

// bindCastlingPartners pins every castling option to the piece that stands
// on its partner square at setup.
func (g *gameState) bindCastlingPartners() {
	for _, p := range g.pieces {
		cb, ok := p.Behaviors.Castling()
		if !ok {
			continue
		}
		bound := rules.CastlingBehavior{Options: make([]rules.CastlingOption, 0, len(cb.Options))}
		for _, opt := range cb.Options {
			partnerID, ok := g.at[opt.Partner]
			if !ok || g.pieces[partnerID].Team != p.Team {
				continue
			}
			opt.PartnerID = partnerID
			bound.Options = append(bound.Options, opt)
		}
		p.Behaviors = p.Behaviors.Replace(bound)
	}
}

// RequestTurn validates and plays one move.
func (e *Engine) RequestTurn(gameID string, req TurnRequest) error {
	return e.withGame(gameID, func(g *gameState) error {
		switch g.turn.State {
		case rules.StateTerminal:
			return fmt.Errorf("%w: game %s", ErrGameOver, g.id)
		case rules.StateAwaitingMutationChoice:
			p := g.pending
			if req.Mutation == "" || req.PieceID != p.PieceID || req.Destination != p.Key {
				return fmt.Errorf("%w: piece %s must choose one of %v", ErrAmbiguousMutation, p.PieceID, p.Options)
			}
			return e.atomically(g, "resolve_mutation", func() error {
				return e.resolvePending(g, req.Mutation)
			})
		}
		return e.atomically(g, "request_turn", func() error {
			return e.playTurn(g, req)
		})
	})
}

func (e *Engine) playTurn(g *gameState, req TurnRequest) error {
	if err := g.turn.Transition(rules.StateValidating); err != nil {
		return err
	}
	piece, ok := g.pieces[req.PieceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPiece, req.PieceID)
	}
	if active := g.turn.ActiveTeam(); piece.Team != active {
		return fmt.Errorf("%w: %s to move, piece %s is %s", ErrWrongTurn, active, piece.ID, piece.Team)
	}
	action, ok := piece.Actions[req.Destination]
	if !ok {
		return fmt.Errorf("%w: %s cannot reach %s", ErrInvalidMove, piece.Identity, req.Destination)
	}
	action = action.Clone()

	if err := g.turn.Transition(rules.StateExecuting); err != nil {
		return err
	}
	changed, err := e.execute(g, piece, action)
	if err != nil {
		return err
	}

	mutation := piece.Mutation
	if !mutation.Holds(g.geometry, piece, action) {
		if req.Mutation != "" {
			return fmt.Errorf("%w: %s has no mutation available", ErrMutationOptionInvalid, piece.ID)
		}
		return e.completeTurn(g, piece, action, "", changed, nil)
	}

	pending := &PendingMutation{
		PieceID:  piece.ID,
		Key:      req.Destination,
		Action:   action,
		Options:  mutation.Identities(),
		Required: mutation.Required,
		Ply:      g.turn.Ply,
		Changed:  changed,
	}
	switch {
	case req.Mutation != "":
		def, ok := mutation.Option(req.Mutation)
		if !ok {
			return fmt.Errorf("%w: %q not in %v", ErrMutationOptionInvalid, req.Mutation, pending.Options)
		}
		g.mutate(piece, def, mutation.ToRoyal)
		return e.completeTurn(g, piece, action, def.Identity, changed, nil)

	case mutation.Required && len(mutation.Options) == 1:
		def := mutation.Options[0]
		g.mutate(piece, def, mutation.ToRoyal)
		return e.completeTurn(g, piece, action, def.Identity, changed, nil)

	case mutation.Required:
		// A move that already decides the game ends it without waiting
		// for a choice.
		if _, over := g.win.evaluate(g, piece.Team); over {
			return e.completeTurn(g, piece, action, "", changed, nil)
		}
		if err := g.turn.Transition(rules.StateAwaitingMutationChoice); err != nil {
			return err
		}
		g.pending = pending
		ev := rules.NewEvent(rules.EventMutationRequired, g.id, piece.ID)
		ev.Team = piece.Team
		ev.Action = &pending.Action
		ev.Options = pending.Options
		g.emit(ev)
		e.logger.Debug("mutation choice required",
			zap.String("game_id", g.id),
			zap.String("piece_id", piece.ID),
			zap.Strings("options", pending.Options),
		)
		return nil

	default:
		return e.completeTurn(g, piece, action, "", changed, pending)
	}
}

// execute applies captures, the movement and every side effect.
func (e *Engine) execute(g *gameState, piece *rules.Piece, action rules.Action) ([]board.Square, error) {
	changed := []board.Square{action.Movement.From, action.Movement.To}

	var victims []*rules.Piece
	for _, sq := range action.Captures {
		id, ok := g.at[sq]
		if !ok || id == piece.ID {
			return nil, fmt.Errorf("%w: nothing to capture on %s", ErrInvalidMove, sq)
		}
		victims = append(victims, g.pieces[id])
		changed = append(changed, sq)
	}

	type relocation struct {
		piece *rules.Piece
		to    rules.Movement
	}
	moves := []relocation{{piece: piece, to: action.Movement}}
	for _, se := range action.SideEffects {
		p, ok := g.pieces[se.PieceID]
		if !ok || p.Position != se.Movement.From {
			return nil, fmt.Errorf("%w: side effect piece %s", ErrUnknownPiece, se.PieceID)
		}
		moves = append(moves, relocation{piece: p, to: se.Movement})
		changed = append(changed, se.Movement.From, se.Movement.To)
	}

	for _, v := range victims {
		g.remove(v)
		ev := rules.NewEvent(rules.EventPieceCaptured, g.id, v.ID)
		ev.Team = v.Team
		ev.Square = v.Position
		g.emit(ev)
		e.logger.Debug("piece captured",
			zap.String("game_id", g.id),
			zap.String("piece_id", v.ID),
			zap.String("identity", v.Identity),
			zap.Stringer("square", v.Position),
		)
	}

	// Lift every moving piece before placing any so side effects may land
	// on a square another mover just vacated.
	for _, m := range moves {
		delete(g.at, m.piece.Position)
	}
	for _, m := range moves {
		if other, taken := g.at[m.to.To]; taken {
			return nil, fmt.Errorf("%w: %s is occupied by %s", ErrInvalidMove, m.to.To, other)
		}
		m.piece.Position = m.to.To
		m.piece.Orientation = m.to.Orientation
		m.piece.Moves++
		m.piece.Dirty = true
		g.at[m.to.To] = m.piece.ID
		g.disableCastling(m.piece)
	}
	return changed, nil
}

// disableCastling is the post-move rule: a piece that moved can no longer
// castle or be castled with, and neither can its partners.
// mutate turns p into def and keeps the team's royal count in step when
// the piece gains or loses royalty.
func (g *gameState) mutate(p *rules.Piece, def rules.PieceDefinition, toRoyal bool) {
	wasRoyal := p.Royal
	p.Become(def, toRoyal)
	switch {
	case p.Royal && !wasRoyal:
		g.initialRoyals[p.Team]++
	case !p.Royal && wasRoyal:
		g.initialRoyals[p.Team]--
	}
}

func (g *gameState) disableCastling(p *rules.Piece) {
	p.CastlingDisabled = true
	if cb, ok := p.Behaviors.Castling(); ok {
		for _, opt := range cb.Options {
			if partner, ok := g.pieces[opt.PartnerID]; ok {
				partner.CastlingDisabled = true
			}
		}
	}
}

func (g *gameState) remove(p *rules.Piece) {
	delete(g.pieces, p.ID)
	if g.at[p.Position] == p.ID {
		delete(g.at, p.Position)
	}
}

func (e *Engine) completeTurn(g *gameState, piece *rules.Piece, action rules.Action, mutated string, changed []board.Square, offer *PendingMutation) error {
	mover := piece.Team
	ply := g.turn.Ply
	if err := g.turn.CompleteTurn(); err != nil {
		return err
	}

	g.history.Append(rules.HistoryEntry{
		Ply:      ply,
		PieceID:  piece.ID,
		Identity: piece.Identity,
		Team:     mover,
		Action:   action.Clone(),
		Mutation: mutated,
	})
	last := action.Clone()
	g.lastAction = &last
	g.pending = nil
	g.offer = offer
	g.switchClocks(mover)

	ev := rules.NewEvent(rules.EventTurnCompleted, g.id, piece.ID)
	ev.Ply = ply + 1
	ev.Team = mover
	ev.Action = &last
	ev.Mutated = mutated
	g.emit(ev)
	if mutated != "" {
		applied := rules.NewEvent(rules.EventMutationApplied, g.id, piece.ID)
		applied.Team = mover
		applied.Mutated = mutated
		g.emit(applied)
	}
	if offer != nil {
		offered := rules.NewEvent(rules.EventMutationOffered, g.id, piece.ID)
		offered.Team = mover
		offered.Options = offer.Options
		g.emit(offered)
	}

	e.recompute(g, changed)

	e.logger.Debug("turn completed",
		zap.String("game_id", g.id),
		zap.Int("ply", ply),
		zap.String("piece_id", piece.ID),
		zap.Stringer("action", action),
		zap.String("mutation", mutated),
	)

	if winner, over := g.win.evaluate(g, mover); over {
		e.finish(g, winner, "win condition met")
		return nil
	}
	if err := g.turn.Transition(rules.StateAwaitingMove); err != nil {
		return err
	}
	e.recordReplay(g)
	return nil
}

func (g *gameState) switchClocks(mover rules.Team) {
	if len(g.clocks) == 0 {
		return
	}
	g.clocks[mover].Pause()
	g.clocks[mover.Next()].Unpause()
}

// finish makes the game terminal. GameOver is emitted at most once.
func (e *Engine) finish(g *gameState, winner rules.Team, reason string) {
	if g.winner != nil {
		return
	}
	g.turn.Terminate()
	g.winner = &winner
	g.pending = nil
	g.offer = nil
	for _, c := range g.clocks {
		c.Running = false
	}

	ev := rules.NewEvent(rules.EventGameOver, g.id, "")
	ev.Winner = &winner
	ev.Team = winner
	g.emit(ev)
	e.recordReplay(g)

	e.logger.Info("game over",
		zap.String("game_id", g.id),
		zap.Stringer("winner", winner),
		zap.String("reason", reason),
		zap.Int("ply", g.turn.Ply),
	)
}

func (e *Engine) recordReplay(g *gameState) {
	e.mu.RLock()
	replays := e.replays
	e.mu.RUnlock()
	if replays != nil {
		replays.RecordState(g.id, g.capture())
	}
}

// resolvePending answers a required mutation and completes the turn.
func (e *Engine) resolvePending(g *gameState, identity string) error {
	p := g.pending
	piece, ok := g.pieces[p.PieceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPiece, p.PieceID)
	}
	mutation := piece.Mutation
	def, ok := mutation.Option(identity)
	if !ok {
		return fmt.Errorf("%w: %q not in %v", ErrMutationOptionInvalid, identity, p.Options)
	}
	g.mutate(piece, def, mutation.ToRoyal)
	return e.completeTurn(g, piece, p.Action, def.Identity, p.Changed, nil)
}

// ResolveMutation answers a pending required mutation, or a still-open
// optional one offered on the previous turn.
func (e *Engine) ResolveMutation(gameID, pieceID, identity string) error {
	return e.withGame(gameID, func(g *gameState) error {
		if g.turn.State == rules.StateTerminal {
			return fmt.Errorf("%w: game %s", ErrGameOver, g.id)
		}
		if p := g.pending; p != nil {
			if p.PieceID != pieceID {
				return fmt.Errorf("%w: pending mutation belongs to %s", ErrAmbiguousMutation, p.PieceID)
			}
			return e.atomically(g, "resolve_mutation", func() error {
				return e.resolvePending(g, identity)
			})
		}
		if o := g.offer; o != nil && o.PieceID == pieceID {
			return e.atomically(g, "late_mutation", func() error {
				return e.applyOffer(g, o, identity)
			})
		}
		return fmt.Errorf("%w for piece %s", ErrNoPendingMutation, pieceID)
	})
}

func (e *Engine) applyOffer(g *gameState, o *PendingMutation, identity string) error {
	piece, ok := g.pieces[o.PieceID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPiece, o.PieceID)
	}
	mutation := piece.Mutation
	def, ok := mutation.Option(identity)
	if !ok {
		return fmt.Errorf("%w: %q not in %v", ErrMutationOptionInvalid, identity, o.Options)
	}
	g.mutate(piece, def, mutation.ToRoyal)
	g.offer = nil
	if o.Ply < g.history.Len() {
		g.history.Entries[o.Ply].Mutation = def.Identity
	}

	applied := rules.NewEvent(rules.EventMutationApplied, g.id, piece.ID)
	applied.Team = piece.Team
	applied.Mutated = def.Identity
	g.emit(applied)

	e.recompute(g, []board.Square{piece.Position})
	if winner, over := g.win.evaluate(g, piece.Team); over {
		e.finish(g, winner, "win condition met")
	}
	return nil
}

// Tick advances the running clock. Running out of time ends the game in
// favor of the opponent.
func (e *Engine) Tick(gameID string, elapsed time.Duration) error {
	return e.withGame(gameID, func(g *gameState) error {
		if g.turn.State == rules.StateTerminal {
			return fmt.Errorf("%w: game %s", ErrGameOver, g.id)
		}
		if len(g.clocks) == 0 {
			return nil
		}
		active := g.turn.ActiveTeam()
		clock := g.clocks[active]
		clock.Tick(elapsed)
		if clock.Flagged() {
			ev := rules.NewEvent(rules.EventClockFlagged, g.id, "")
			ev.Team = active
			g.emit(ev)
			e.finish(g, active.Next(), "flag fall")
		}
		return nil
	})
}

// Resign ends the game in favor of team's opponent.
func (e *Engine) Resign(gameID string, team rules.Team) error {
	return e.withGame(gameID, func(g *gameState) error {
		if g.turn.State == rules.StateTerminal {
			return fmt.Errorf("%w: game %s", ErrGameOver, g.id)
		}
		e.finish(g, team.Next(), "resignation")
		return nil
	})
}

// Actions returns a copy of a piece's current actions.
func (e *Engine) Actions(gameID, pieceID string) (rules.Actions, error) {
	var out rules.Actions
	err := e.withGame(gameID, func(g *gameState) error {
		p, ok := g.pieces[pieceID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPiece, pieceID)
		}
		out = p.Actions.Clone()
		return nil
	})
	return out, err
}

// PieceAt returns the ID of the piece on sq. found is false for an empty
// square; err is set only when the game does not exist.
func (e *Engine) PieceAt(gameID string, sq board.Square) (id string, found bool, err error) {
	err = e.withGame(gameID, func(g *gameState) error {
		id, found = g.at[sq]
		return nil
	})
	return id, found, err
}

// History returns a copy of the completed turns.
func (e *Engine) History(gameID string) ([]rules.HistoryEntry, error) {
	var out []rules.HistoryEntry
	err := e.withGame(gameID, func(g *gameState) error {
		out = g.history.Clone().Entries
		return nil
	})
	return out, err
}

// GameIDs lists hosted games in sorted order.
func (e *Engine) GameIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EndGame tears a game down and forgets it.
func (e *Engine) EndGame(gameID string) error {
	e.mu.Lock()
	_, exists := e.games[gameID]
	delete(e.games, gameID)
	replays := e.replays
	e.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if replays != nil && replays.IsRecording(gameID) {
		if err := replays.SaveReplay(gameID); err != nil {
			e.logger.Warn("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	e.logger.Info("game ended", zap.String("game_id", gameID))
	return nil
}

func (g *gameState) sortedPieces() []*rules.Piece {
	out := make([]*rules.Piece, 0, len(g.pieces))
	for _, p := range g.pieces {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
