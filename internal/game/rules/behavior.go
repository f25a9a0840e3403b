package rules

import (
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// BehaviorKind names a movement strategy. The declaration order below is
// the order strategies are evaluated and merged in.
type BehaviorKind string

const (
	BehaviorPattern   BehaviorKind = "PATTERN"
	BehaviorEnPassant BehaviorKind = "EN_PASSANT"
	BehaviorRelay     BehaviorKind = "RELAY"
	BehaviorMimic     BehaviorKind = "MIMIC"
	BehaviorCastling  BehaviorKind = "CASTLING"
)

var behaviorOrder = map[BehaviorKind]int{
	BehaviorPattern:   0,
	BehaviorEnPassant: 1,
	BehaviorRelay:     2,
	BehaviorMimic:     3,
	BehaviorCastling:  4,
}

// Mover is the acting piece as seen by a behavior.
type Mover struct {
	ID          string
	Position    board.Square
	Orientation board.Orientation
	Team        Team
}

// Options are engine-level switches that change how behaviors resolve.
type Options struct {
	Collision CollisionPolicy
	// CastlingSafePath forbids castling from, through or onto an attacked square.
	CastlingSafePath bool
}

// Context is the frozen view of a game a behavior computes against. A base
// context is shared read-only; ForPiece derives the per-piece copy that
// records which squares the computation looked at.
type Context struct {
	Geometry   board.Geometry
	Occupancy  Occupancy
	LastAction *Action
	// Attacked reports whether any piece of team by attacks sq. It may be nil.
	Attacked func(by Team, sq board.Square) bool
	Options  Options

	footprint map[board.Square]struct{}
	// OnCollision is invoked for every square two behaviors both proposed.
	OnCollision func(m Mover, sq board.Square)
}

// ForPiece returns a copy of ctx with a fresh footprint.
func (ctx *Context) ForPiece() *Context {
	c := *ctx
	c.footprint = make(map[board.Square]struct{})
	return &c
}

func (ctx *Context) touch(sq board.Square) {
	if ctx.footprint != nil {
		ctx.footprint[sq] = struct{}{}
	}
}

// Footprint returns the squares whose occupancy influenced the computation.
func (ctx *Context) Footprint() map[board.Square]struct{} {
	return ctx.footprint
}

// Behavior is one movement strategy of a piece.
type Behavior interface {
	Kind() BehaviorKind
	// Actions returns the actions the strategy offers m. An unmet
	// precondition yields an empty map, never an error.
	Actions(ctx *Context, m Mover) Actions
	// DependsOnHistory reports whether the result may change when only the
	// last action changed.
	DependsOnHistory() bool
}

// Behaviors is an ordered set of strategies.
type Behaviors []Behavior

// NewBehaviors sorts the strategies into evaluation order.
func NewBehaviors(list ...Behavior) Behaviors {
	out := make(Behaviors, 0, len(list))
	for _, b := range list {
		if b != nil {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return behaviorOrder[out[i].Kind()] < behaviorOrder[out[j].Kind()]
	})
	return out
}

// Actions evaluates every strategy in order and merges the results with the
// context's collision policy.
func (bs Behaviors) Actions(ctx *Context, m Mover) Actions {
	out := make(Actions)
	for _, b := range bs {
		collisions := out.Merge(b.Actions(ctx, m), ctx.Options.Collision)
		if ctx.OnCollision != nil {
			for _, sq := range collisions {
				ctx.OnCollision(m, sq)
			}
		}
	}
	return out
}

// DependsOnHistory reports whether any strategy depends on the last action.
func (bs Behaviors) DependsOnHistory() bool {
	for _, b := range bs {
		if b.DependsOnHistory() {
			return true
		}
	}
	return false
}

// Patterns returns the patterns declared by PatternBehavior strategies, the
// set a relay may borrow.
func (bs Behaviors) Patterns() []Pattern {
	var out []Pattern
	for _, b := range bs {
		if pb, ok := b.(PatternBehavior); ok {
			out = append(out, pb.Patterns...)
		}
	}
	return out
}

// Has reports whether a strategy of the given kind is present.
func (bs Behaviors) Has(kind BehaviorKind) bool {
	for _, b := range bs {
		if b.Kind() == kind {
			return true
		}
	}
	return false
}

// Castling returns the castling strategy, if any.
func (bs Behaviors) Castling() (CastlingBehavior, bool) {
	for _, b := range bs {
		if cb, ok := b.(CastlingBehavior); ok {
			return cb, true
		}
	}
	return CastlingBehavior{}, false
}

// Replace returns a copy of bs with the first strategy of b's kind replaced
// by b, or b appended when none exists.
func (bs Behaviors) Replace(b Behavior) Behaviors {
	out := make(Behaviors, 0, len(bs)+1)
	replaced := false
	for _, existing := range bs {
		if !replaced && existing.Kind() == b.Kind() {
			out = append(out, b)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, b)
	}
	return NewBehaviors(out...)
}

func (bs Behaviors) String() string {
	kinds := make([]BehaviorKind, len(bs))
	for i, b := range bs {
		kinds[i] = b.Kind()
	}
	return fmt.Sprint(kinds)
}

func init() {
	gob.Register(PatternBehavior{})
	gob.Register(EnPassantBehavior{})
	gob.Register(RelayBehavior{})
	gob.Register(MimicBehavior{})
	gob.Register(CastlingBehavior{})
}
