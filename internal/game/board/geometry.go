package board

import "fmt"

// Geometry abstracts the shape of a board so the movement machinery does not
// depend on a fixed 8x8 layout.
type Geometry interface {
	// Size returns the bounding extent of the board.
	Size() Vector
	// InBounds reports whether sq is part of the board.
	InBounds(sq Square) bool
	// Scan returns a fresh ray walking from origin (exclusive) along step.
	Scan(origin Square, step Vector) *Ray
	// LocalRank is the 1-based rank of sq counted from the home edge of a
	// piece facing o.
	LocalRank(sq Square, o Orientation) int
}

// Rect is a rectangular board of Width files and Height ranks.
type Rect struct {
	Width  int
	Height int
}

// NewRect validates and returns a rectangular geometry.
func NewRect(width, height int) (Rect, error) {
	if width <= 0 || height <= 0 || width > maxFiles {
		return Rect{}, fmt.Errorf("invalid board size %dx%d", width, height)
	}
	return Rect{Width: width, Height: height}, nil
}

// Chessboard is the standard 8x8 geometry.
func Chessboard() Rect {
	return Rect{Width: 8, Height: 8}
}

func (r Rect) Size() Vector {
	return Vector{X: r.Width, Y: r.Height}
}

func (r Rect) InBounds(sq Square) bool {
	return sq.File >= 0 && sq.File < r.Width && sq.Rank >= 0 && sq.Rank < r.Height
}

func (r Rect) Scan(origin Square, step Vector) *Ray {
	return &Ray{geometry: r, origin: origin, step: step, current: origin}
}

func (r Rect) LocalRank(sq Square, o Orientation) int {
	switch o {
	case Down:
		return r.Height - sq.Rank
	case Left:
		return r.Width - sq.File
	case Right:
		return sq.File + 1
	default:
		return sq.Rank + 1
	}
}

// Squares enumerates every square of the board rank by rank.
func (r Rect) Squares() []Square {
	out := make([]Square, 0, r.Width*r.Height)
	for rank := 0; rank < r.Height; rank++ {
		for file := 0; file < r.Width; file++ {
			out = append(out, Square{File: file, Rank: rank})
		}
	}
	return out
}

// Ray is a finite, restartable walk origin+step, origin+2*step, ... that
// ends at the first square outside the geometry. A zero step yields nothing.
type Ray struct {
	geometry Geometry
	origin   Square
	step     Vector
	current  Square
	done     bool
}

// Next advances the ray and returns the next in-bounds square.
func (r *Ray) Next() (Square, bool) {
	if r.done || r.step.IsZero() {
		r.done = true
		return Square{}, false
	}
	next := r.current.Offset(r.step)
	if !r.geometry.InBounds(next) {
		r.done = true
		return Square{}, false
	}
	r.current = next
	return next, true
}

// Reset rewinds the ray to its origin.
func (r *Ray) Reset() {
	r.current = r.origin
	r.done = false
}

// Step returns the vector the ray walks along.
func (r *Ray) Step() Vector {
	return r.step
}

// Collect drains the ray from its current position, optionally capped at
// limit squares (0 means unlimited).
func (r *Ray) Collect(limit int) []Square {
	var out []Square
	for limit <= 0 || len(out) < limit {
		sq, ok := r.Next()
		if !ok {
			break
		}
		out = append(out, sq)
	}
	return out
}
