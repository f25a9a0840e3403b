package rules

import (
	"fmt"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// ScanMode controls how a scan reacts to occupied squares.
type ScanMode int

const (
	// ScanWalk stops at, and includes, the first occupied square.
	ScanWalk ScanMode = iota
	// ScanPierce ignores occupancy entirely.
	ScanPierce
	// ScanHop emits nothing until it has jumped over one occupant, then
	// walks as ScanWalk.
	ScanHop
)

var scanModeNames = map[ScanMode]string{
	ScanWalk:   "WALK",
	ScanPierce: "PIERCE",
	ScanHop:    "HOP",
}

func (m ScanMode) String() string {
	if name, ok := scanModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SCAN_MODE_%d", int(m))
}

// Occupant is the read-only view of a piece that other pieces' movement
// computations are allowed to see.
type Occupant struct {
	PieceID          string
	Team             Team
	Identity         string
	Royal            bool
	EnPassant        bool
	CastlingDisabled bool
	Patterns         []Pattern
}

// Occupancy maps squares to the piece standing on them.
type Occupancy map[board.Square]Occupant

// Scanner walks a Step from an origin.
type Scanner struct {
	Step board.Step
	// Range caps the number of steps; 1 makes a leaper, 0 an unbounded rider.
	Range int
	Mode  ScanMode
	// HopOver selects which occupants a ScanHop scan may jump.
	HopOver TargetKind
	// AfterHop caps the steps taken after the hop (0 means unlimited).
	AfterHop int
}

// ScanTarget is one candidate destination together with the squares passed
// over to reach it.
type ScanTarget struct {
	Target    board.Square
	Path      []board.Square
	Direction board.Vector
}

// IsLeaper reports whether only the landing square of each step matters.
func (s Scanner) IsLeaper() bool {
	return s.Range == 1
}

// Scan enumerates candidate destinations from origin in a deterministic order.
func (s Scanner) Scan(g board.Geometry, occ Occupancy, origin board.Square, o board.Orientation, team Team) []ScanTarget {
	return s.scan(g, occ, origin, o, team, nil, nil)
}

// scan is Scan with two optional hooks. When a walk stops on an occupant for
// which extendPast returns true, the square directly behind it is emitted
// too. visit is called for every square whose occupancy was read, including
// the squares a hop crosses before its screen and the screen itself.
func (s Scanner) scan(g board.Geometry, occ Occupancy, origin board.Square, o board.Orientation, team Team, extendPast func(Occupant) bool, visit func(board.Square)) []ScanTarget {
	if visit == nil {
		visit = func(board.Square) {}
	}
	var out []ScanTarget
	for _, dir := range s.Step.Expand(o) {
		ray := g.Scan(origin, dir)
		switch s.Mode {
		case ScanPierce:
			out = s.pierce(ray, dir, visit, out)
		case ScanHop:
			out = s.hop(ray, dir, occ, team, visit, out)
		default:
			out = s.walk(ray, dir, occ, extendPast, visit, out)
		}
	}
	return out
}

func (s Scanner) inRange(steps int) bool {
	return s.Range <= 0 || steps <= s.Range
}

func (s Scanner) walk(ray *board.Ray, dir board.Vector, occ Occupancy, extendPast func(Occupant) bool, visit func(board.Square), out []ScanTarget) []ScanTarget {
	var path []board.Square
	for steps := 1; s.inRange(steps); steps++ {
		sq, ok := ray.Next()
		if !ok {
			break
		}
		visit(sq)
		out = append(out, ScanTarget{Target: sq, Path: clonePath(path), Direction: dir})
		occupant, occupied := occ[sq]
		if occupied {
			if extendPast != nil && extendPast(occupant) {
				if next, ok := ray.Next(); ok {
					visit(next)
					out = append(out, ScanTarget{Target: next, Path: append(clonePath(path), sq), Direction: dir})
				}
			}
			break
		}
		path = append(path, sq)
	}
	return out
}

func (s Scanner) pierce(ray *board.Ray, dir board.Vector, visit func(board.Square), out []ScanTarget) []ScanTarget {
	var path []board.Square
	for steps := 1; s.inRange(steps); steps++ {
		sq, ok := ray.Next()
		if !ok {
			break
		}
		visit(sq)
		out = append(out, ScanTarget{Target: sq, Path: clonePath(path), Direction: dir})
		path = append(path, sq)
	}
	return out
}

func (s Scanner) hop(ray *board.Ray, dir board.Vector, occ Occupancy, team Team, visit func(board.Square), out []ScanTarget) []ScanTarget {
	var path []board.Square
	hopped := false
	after := 0
	for steps := 1; s.inRange(steps); steps++ {
		sq, ok := ray.Next()
		if !ok {
			break
		}
		if s.AfterHop > 0 && hopped && after >= s.AfterHop {
			break
		}
		visit(sq)
		occupant, occupied := occ[sq]
		if !hopped {
			if occupied {
				if !s.HopOver.Matches(team, occupant.Team) {
					break
				}
				hopped = true
			}
			path = append(path, sq)
			continue
		}

		after++
		out = append(out, ScanTarget{Target: sq, Path: clonePath(path), Direction: dir})
		if occupied {
			break
		}
		path = append(path, sq)
	}
	return out
}

func clonePath(path []board.Square) []board.Square {
	if len(path) == 0 {
		return nil
	}
	out := make([]board.Square, len(path))
	copy(out, path)
	return out
}
