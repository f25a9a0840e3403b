package board

import (
	"fmt"
	"math/bits"
	"strings"
)

// Direction is one of the eight directions a one-dimensional step can be
// taken in, relative to the piece's orientation.
type Direction uint8

const (
	DirRight Direction = 1 << iota
	DirForwardRight
	DirForward
	DirForwardLeft
	DirLeft
	DirBackwardLeft
	DirBackward
	DirBackwardRight
)

// Symmetry is a set of Directions.
type Symmetry uint8

// Named direction sets for one-dimensional steps.
const (
	SymForward          = Symmetry(DirForward)
	SymBackward         = Symmetry(DirBackward)
	SymHorizontal       = Symmetry(DirLeft | DirRight)
	SymVertical         = Symmetry(DirForward | DirBackward)
	SymOrthogonal       = SymHorizontal | SymVertical
	SymDiagonalForward  = Symmetry(DirForwardLeft | DirForwardRight)
	SymDiagonalBackward = Symmetry(DirBackwardLeft | DirBackwardRight)
	SymDiagonal         = SymDiagonalForward | SymDiagonalBackward
	SymRadial           = SymOrthogonal | SymDiagonal
)

// directionOrder fixes the expansion order so that results are reproducible.
var directionOrder = []Direction{
	DirRight, DirForwardRight, DirForward, DirForwardLeft,
	DirLeft, DirBackwardLeft, DirBackward, DirBackwardRight,
}

var directionNames = map[Direction]string{
	DirRight:         "R",
	DirForwardRight:  "FR",
	DirForward:       "F",
	DirForwardLeft:   "FL",
	DirLeft:          "L",
	DirBackwardLeft:  "BL",
	DirBackward:      "B",
	DirBackwardRight: "BR",
}

// scaled returns the local vector of d with length r along each moving axis.
func (d Direction) scaled(r int) Vector {
	switch d {
	case DirRight:
		return V(r, 0)
	case DirForwardRight:
		return V(r, r)
	case DirForward:
		return V(0, r)
	case DirForwardLeft:
		return V(-r, r)
	case DirLeft:
		return V(-r, 0)
	case DirBackwardLeft:
		return V(-r, -r)
	case DirBackward:
		return V(0, -r)
	default:
		return V(r, -r)
	}
}

// Of builds a Symmetry from individual directions.
func Of(dirs ...Direction) Symmetry {
	var s Symmetry
	for _, d := range dirs {
		s |= Symmetry(d)
	}
	return s
}

func (s Symmetry) Union(o Symmetry) Symmetry     { return s | o }
func (s Symmetry) Intersect(o Symmetry) Symmetry { return s & o }
func (s Symmetry) Has(d Direction) bool          { return s&Symmetry(d) != 0 }
func (s Symmetry) Len() int                      { return bits.OnesCount8(uint8(s)) }

// Directions lists the members of s in expansion order.
func (s Symmetry) Directions() []Direction {
	out := make([]Direction, 0, s.Len())
	for _, d := range directionOrder {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s Symmetry) String() string {
	names := make([]string, 0, s.Len())
	for _, d := range s.Directions() {
		names = append(names, directionNames[d])
	}
	return "{" + strings.Join(names, ",") + "}"
}

// LeaperDirection is one of the eight images of an (a, b) leap. The letters
// read as: first the dominant axis of the long leg, then the side.
type LeaperDirection uint8

const (
	LeapFRR LeaperDirection = 1 << iota // (a, b)
	LeapFFR                             // (b, a)
	LeapFFL                             // (-b, a)
	LeapFLL                             // (-a, b)
	LeapBLL                             // (-a, -b)
	LeapBBL                             // (-b, -a)
	LeapBBR                             // (b, -a)
	LeapBRR                             // (a, -b)
)

// LeaperSymmetry is a set of LeaperDirections.
type LeaperSymmetry uint8

// Named direction sets for two-dimensional steps.
const (
	LeapNarrowForward  = LeaperSymmetry(LeapFFR | LeapFFL)
	LeapWideForward    = LeaperSymmetry(LeapFRR | LeapFLL)
	LeapForward        = LeapNarrowForward | LeapWideForward
	LeapNarrowBackward = LeaperSymmetry(LeapBBR | LeapBBL)
	LeapWideBackward   = LeaperSymmetry(LeapBRR | LeapBLL)
	LeapBackward       = LeapNarrowBackward | LeapWideBackward
	LeapNarrow         = LeapNarrowForward | LeapNarrowBackward
	LeapWide           = LeapWideForward | LeapWideBackward
	LeapAll            = LeapForward | LeapBackward
)

var leaperOrder = []LeaperDirection{
	LeapFRR, LeapFFR, LeapFFL, LeapFLL, LeapBLL, LeapBBL, LeapBBR, LeapBRR,
}

func (d LeaperDirection) image(a, b int) Vector {
	switch d {
	case LeapFRR:
		return V(a, b)
	case LeapFFR:
		return V(b, a)
	case LeapFFL:
		return V(-b, a)
	case LeapFLL:
		return V(-a, b)
	case LeapBLL:
		return V(-a, -b)
	case LeapBBL:
		return V(-b, -a)
	case LeapBBR:
		return V(b, -a)
	default:
		return V(a, -b)
	}
}

func (s LeaperSymmetry) Union(o LeaperSymmetry) LeaperSymmetry     { return s | o }
func (s LeaperSymmetry) Intersect(o LeaperSymmetry) LeaperSymmetry { return s & o }
func (s LeaperSymmetry) Has(d LeaperDirection) bool                { return s&LeaperSymmetry(d) != 0 }

// Step is a declarative movement unit: either a one-dimensional step of a
// given distance taken in a set of Directions, or a two-dimensional (a, b)
// leap taken in a set of LeaperDirections.
type Step struct {
	A      int
	B      int
	Dirs   Symmetry
	Leaps  LeaperSymmetry
	TwoDim bool
}

// OneDim declares a step of distance r in every direction of sym.
func OneDim(r int, sym Symmetry) Step {
	return Step{A: r, Dirs: sym}
}

// TwoDim declares an (a, b) leap in every direction of sym.
func TwoDim(a, b int, sym LeaperSymmetry) Step {
	return Step{A: a, B: b, Leaps: sym, TwoDim: true}
}

func (s Step) String() string {
	if s.TwoDim {
		return fmt.Sprintf("(%d,%d)x%08b", s.A, s.B, uint8(s.Leaps))
	}
	return fmt.Sprintf("%d%s", s.A, s.Dirs)
}

// Local returns the de-duplicated local vectors of the step in a fixed order.
// Directions that collapse onto the same vector, such as the horizontal
// images of a (1, 1) leap, are reported once.
func (s Step) Local() []Vector {
	out := make([]Vector, 0, 8)
	seen := make(map[Vector]struct{}, 8)
	add := func(v Vector) {
		if v.IsZero() {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	if s.TwoDim {
		for _, d := range leaperOrder {
			if s.Leaps.Has(d) {
				add(d.image(s.A, s.B))
			}
		}
		return out
	}
	for _, d := range s.Dirs.Directions() {
		add(d.scaled(s.A))
	}
	return out
}

// Expand orients every local vector of the step.
func (s Step) Expand(o Orientation) []Vector {
	local := s.Local()
	out := make([]Vector, len(local))
	for i, v := range local {
		out[i] = o.Orient(v)
	}
	return out
}
