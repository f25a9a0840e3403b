package board

import "fmt"

// Orientation is the direction a piece considers "forward".
type Orientation int

const (
	Up Orientation = iota
	Down
	Left
	Right
)

var orientationNames = map[Orientation]string{
	Up:    "UP",
	Down:  "DOWN",
	Left:  "LEFT",
	Right: "RIGHT",
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("ORIENTATION_%d", int(o))
}

// ParseOrientation accepts the names produced by String.
func ParseOrientation(name string) (Orientation, error) {
	for o, n := range orientationNames {
		if n == name {
			return o, nil
		}
	}
	return Up, fmt.Errorf("unknown orientation %q", name)
}

// Orient converts a local vector, where X is "to the right" and Y is
// "forward", into an absolute board vector.
func (o Orientation) Orient(v Vector) Vector {
	switch o {
	case Down:
		return Vector{X: v.X, Y: -v.Y}
	case Left:
		return Vector{X: -v.Y, Y: v.X}
	case Right:
		return Vector{X: v.Y, Y: -v.X}
	default:
		return v
	}
}

// Flip rotates the orientation by 180 degrees.
func (o Orientation) Flip() Orientation {
	switch o {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
