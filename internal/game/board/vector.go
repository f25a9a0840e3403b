package board

import "golang.org/x/exp/constraints"

// Vector is a two-dimensional integer offset. X grows towards higher files,
// Y grows towards higher ranks.
type Vector struct {
	X int
	Y int
}

// V is shorthand for Vector{X: x, Y: y}.
func V(x, y int) Vector {
	return Vector{X: x, Y: y}
}

// Add returns v + o.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale multiplies both components by k.
func (v Vector) Scale(k int) Vector {
	return Vector{X: v.X * k, Y: v.Y * k}
}

// Neg returns -v.
func (v Vector) Neg() Vector {
	return Vector{X: -v.X, Y: -v.Y}
}

// IsZero reports whether v is the null vector.
func (v Vector) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Unit divides v by the gcd of its components, yielding the smallest vector
// with the same direction. The zero vector is returned unchanged.
func (v Vector) Unit() Vector {
	d := gcd(abs(v.X), abs(v.Y))
	if d <= 1 {
		return v
	}
	return Vector{X: v.X / d, Y: v.Y / d}
}

// Chebyshev returns the king-move distance covered by v.
func (v Vector) Chebyshev() int {
	return max(abs(v.X), abs(v.Y))
}

func abs[T constraints.Signed](n T) T {
	if n < 0 {
		return -n
	}
	return n
}

func gcd[T constraints.Integer](a, b T) T {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Square is a board coordinate. File and Rank are zero based, so a1 is {0, 0}.
type Square struct {
	File int
	Rank int
}

// Sq is shorthand for Square{File: file, Rank: rank}.
func Sq(file, rank int) Square {
	return Square{File: file, Rank: rank}
}

// Offset returns the square reached by moving s along v.
func (s Square) Offset(v Vector) Square {
	return Square{File: s.File + v.X, Rank: s.Rank + v.Y}
}

// Delta returns the vector leading from o to s.
func (s Square) Delta(o Square) Vector {
	return Vector{X: s.File - o.File, Y: s.Rank - o.Rank}
}

// Less orders squares rank-major, used wherever deterministic iteration is needed.
func (s Square) Less(o Square) bool {
	if s.Rank != o.Rank {
		return s.Rank < o.Rank
	}
	return s.File < o.File
}
