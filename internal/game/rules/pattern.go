package rules

import (
	"slices"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// Pattern is a declarative movement rule: a scanner plus capture rules and
// constraints on where it may be used from and what it may target.
type Pattern struct {
	Scanner Scanner
	Capture *CaptureRules
	// FromRank restricts the pattern to pieces standing on this local rank
	// (1-based, 0 means any rank).
	FromRank int
	// Forbidden removes absolute destination squares from the result.
	Forbidden []board.Square
}

// Leaper builds a pattern that only evaluates the landing square of each step.
func Leaper(step board.Step) Pattern {
	return Pattern{Scanner: Scanner{Step: step, Range: 1}}
}

// Rider builds a pattern that walks until blocked, at most rng steps
// (0 means to the board edge).
func Rider(step board.Step, rng int) Pattern {
	return Pattern{Scanner: Scanner{Step: step, Range: rng}}
}

// Hopper builds a pattern that must jump one piece of kind over before
// landing, like a cannon or grasshopper.
func Hopper(step board.Step, over TargetKind, afterHop int) Pattern {
	return Pattern{Scanner: Scanner{Step: step, Mode: ScanHop, HopOver: over, AfterHop: afterHop}}
}

// WithCapture returns a copy of p using the given capture rules.
func (p Pattern) WithCapture(c *CaptureRules) Pattern {
	p.Capture = c
	return p
}

// FromLocalRank returns a copy of p usable only from the given local rank.
func (p Pattern) FromLocalRank(rank int) Pattern {
	p.FromRank = rank
	return p
}

// ForbidTargets returns a copy of p that never lands on squares.
func (p Pattern) ForbidTargets(squares ...board.Square) Pattern {
	p.Forbidden = append(clonePath(p.Forbidden), squares...)
	return p
}

// Clone deep-copies the pattern.
func (p Pattern) Clone() Pattern {
	out := p
	if p.Capture != nil {
		c := *p.Capture
		out.Capture = &c
	}
	out.Forbidden = clonePath(p.Forbidden)
	return out
}

// DependsOnHistory reports whether the pattern's result changes with the
// last action even when occupancy stays the same.
func (p Pattern) DependsOnHistory() bool {
	return p.Capture != nil && p.Capture.Kind == CaptureInPassing
}

// Search computes the actions available to m through this pattern.
func (p Pattern) Search(ctx *Context, m Mover) Actions {
	actions := make(Actions)
	if p.FromRank > 0 && ctx.Geometry.LocalRank(m.Position, m.Orientation) != p.FromRank {
		return actions
	}

	var extend func(Occupant) bool
	if p.Capture != nil && p.Capture.Kind == CaptureByOvertake {
		target := p.Capture.Target
		extend = func(o Occupant) bool { return target.Matches(m.Team, o.Team) }
	}

	used := p.Clone()
	for _, st := range p.Scanner.scan(ctx.Geometry, ctx.Occupancy, m.Position, m.Orientation, m.Team, extend, ctx.touch) {
		if slices.Contains(p.Forbidden, st.Target) {
			continue
		}
		action, key, ok := p.actionFor(ctx, m, st)
		if !ok {
			continue
		}
		action.Pattern = &used
		action.Source = BehaviorPattern
		actions[key] = action
	}
	return actions
}

// actionFor classifies one scan target.
func (p Pattern) actionFor(ctx *Context, m Mover, st ScanTarget) (Action, board.Square, bool) {
	occupant, occupied := ctx.Occupancy[st.Target]
	action := Action{
		Movement: Movement{From: m.Position, To: st.Target, Orientation: m.Orientation},
		Path:     st.Path,
	}

	rules := p.Capture
	if rules == nil {
		return action, st.Target, !occupied
	}
	capturable := occupied && rules.Target.Matches(m.Team, occupant.Team)

	switch rules.Kind {
	case CaptureByDisplacement:
		action.Threats = []board.Square{st.Target}
		if occupied {
			if !capturable {
				return Action{}, st.Target, false
			}
			action.Captures = []board.Square{st.Target}
			return action, st.Target, true
		}

	case CaptureAtRange:
		action.Threats = []board.Square{st.Target}
		if occupied {
			if !capturable {
				return Action{}, st.Target, false
			}
			action.Movement.To = m.Position
			action.Captures = []board.Square{st.Target}
			return action, st.Target, true
		}

	case CaptureByOvertake:
		if occupied {
			return Action{}, st.Target, false
		}
		jumped := st.Target.Offset(st.Direction.Unit().Neg())
		ctx.touch(jumped)
		if jumped != m.Position {
			if o, ok := ctx.Occupancy[jumped]; ok && rules.Target.Matches(m.Team, o.Team) {
				action.Captures = []board.Square{jumped}
				action.Threats = []board.Square{jumped}
				return action, st.Target, true
			}
		}

	case CaptureInPassing:
		if occupied {
			return Action{}, st.Target, false
		}
		if last := ctx.LastAction; last != nil && last.PassesThrough(st.Target) {
			landed := last.Movement.To
			if o, ok := ctx.Occupancy[landed]; ok && rules.Target.Matches(m.Team, o.Team) {
				action.Captures = []board.Square{landed}
				action.Threats = []board.Square{landed}
				return action, st.Target, true
			}
		}
	}

	if rules.must() {
		return Action{}, st.Target, false
	}
	return action, st.Target, true
}

// Threats lists the squares the pattern attacks from m's position whether
// or not an enemy currently stands there.
func (p Pattern) Threats(ctx *Context, m Mover) []board.Square {
	if p.Capture == nil {
		return nil
	}
	if p.FromRank > 0 && ctx.Geometry.LocalRank(m.Position, m.Orientation) != p.FromRank {
		return nil
	}
	var out []board.Square
	for _, st := range p.Scanner.Scan(ctx.Geometry, ctx.Occupancy, m.Position, m.Orientation, m.Team) {
		if slices.Contains(p.Forbidden, st.Target) {
			continue
		}
		switch p.Capture.Kind {
		case CaptureByDisplacement, CaptureAtRange:
			out = append(out, st.Target)
		case CaptureByOvertake:
			if _, occupied := ctx.Occupancy[st.Target]; occupied {
				out = append(out, st.Target)
			}
		}
	}
	return out
}
