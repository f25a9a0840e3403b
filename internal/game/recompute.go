package game

import (
	"runtime"
	"sync"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// baseContext freezes the board for one recomputation pass.
func (e *Engine) baseContext(g *gameState) *rules.Context {
	occupancy := make(rules.Occupancy, len(g.pieces))
	for _, p := range g.pieces {
		occupancy[p.Position] = p.Occupant()
	}
	ctx := &rules.Context{
		Geometry:   g.geometry,
		Occupancy:  occupancy,
		LastAction: g.lastAction,
		Options: rules.Options{
			Collision:        e.opts.Collision,
			CastlingSafePath: e.opts.CastlingSafePath,
		},
		OnCollision: func(m rules.Mover, sq board.Square) {
			e.logger.Debug("behaviors proposed the same square",
				zap.String("game_id", g.id),
				zap.String("piece_id", m.ID),
				zap.Stringer("square", sq),
			)
		},
	}
	if e.opts.CastlingSafePath {
		ctx.Attacked = threatIndex(ctx, g.sortedPieces())
	}
	return ctx
}

// threatIndex returns a lookup over the squares each team's patterns
// threaten. The index is built on first use.
func threatIndex(ctx *rules.Context, pieces []*rules.Piece) func(by rules.Team, sq board.Square) bool {
	type attacker struct {
		mover    rules.Mover
		patterns []rules.Pattern
	}
	attackers := make([]attacker, 0, len(pieces))
	for _, p := range pieces {
		attackers = append(attackers, attacker{mover: p.Mover(), patterns: p.Behaviors.Patterns()})
	}

	var once sync.Once
	var attacked map[rules.Team]map[board.Square]struct{}
	return func(by rules.Team, sq board.Square) bool {
		once.Do(func() {
			attacked = make(map[rules.Team]map[board.Square]struct{})
			for _, a := range attackers {
				set, ok := attacked[a.mover.Team]
				if !ok {
					set = make(map[board.Square]struct{})
					attacked[a.mover.Team] = set
				}
				for _, pattern := range a.patterns {
					for _, target := range pattern.Threats(ctx, a.mover) {
						set[target] = struct{}{}
					}
				}
			}
		})
		_, ok := attacked[by][sq]
		return ok
	}
}

// recompute refreshes the actions of every piece a change on the given
// squares can affect, or of every piece when changed is nil.
func (e *Engine) recompute(g *gameState, changed []board.Square) {
	base := e.baseContext(g)
	full := changed == nil || e.opts.FullRecompute

	var targets []*rules.Piece
	for _, p := range g.sortedPieces() {
		if full || p.Affected(changed) || p.Behaviors.DependsOnHistory() {
			targets = append(targets, p)
		}
	}

	if e.opts.ParallelRecompute && len(targets) > 1 {
		var eg errgroup.Group
		eg.SetLimit(runtime.GOMAXPROCS(0))
		for _, p := range targets {
			eg.Go(func() error {
				p.Compute(base)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for _, p := range targets {
			p.Compute(base)
		}
	}

	for _, p := range targets {
		ev := rules.NewEvent(rules.EventActionsUpdated, g.id, p.ID)
		ev.Team = p.Team
		ev.Square = p.Position
		ev.Actions = p.Actions.Clone()
		g.emit(ev)
	}

	e.logger.Debug("recomputed actions",
		zap.String("game_id", g.id),
		zap.Int("recomputed", len(targets)),
		zap.Int("pieces", len(g.pieces)),
		zap.Bool("full", full),
	)
}
