package rules

import "fmt"

// CaptureMode decides whether a pattern may or must capture.
type CaptureMode int

const (
	CanCapture CaptureMode = iota
	MustCapture
)

// CaptureKind describes how a capture is performed.
type CaptureKind int

const (
	// CaptureByDisplacement lands on the captured piece's square.
	CaptureByDisplacement CaptureKind = iota
	// CaptureInPassing captures the piece that last moved when landing on a
	// square it passed over.
	CaptureInPassing
	// CaptureByOvertake jumps over the captured piece onto the empty square
	// behind it.
	CaptureByOvertake
	// CaptureAtRange removes the target without moving.
	CaptureAtRange
)

var captureKindNames = map[CaptureKind]string{
	CaptureByDisplacement: "DISPLACEMENT",
	CaptureInPassing:      "IN_PASSING",
	CaptureByOvertake:     "OVERTAKE",
	CaptureAtRange:        "AT_RANGE",
}

func (k CaptureKind) String() string {
	if name, ok := captureKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("CAPTURE_KIND_%d", int(k))
}

// TargetKind selects which occupants a capture applies to.
type TargetKind int

const (
	TargetEnemy TargetKind = iota
	TargetFriendly
	TargetAny
)

// Matches reports whether a piece of team mover may capture an occupant of
// team occupant.
func (k TargetKind) Matches(mover, occupant Team) bool {
	switch k {
	case TargetFriendly:
		return mover == occupant
	case TargetAny:
		return true
	default:
		return mover != occupant
	}
}

// CaptureRules describe whether and how a pattern captures. A pattern with
// nil CaptureRules never captures and is blocked by any occupant.
type CaptureRules struct {
	Mode   CaptureMode
	Kind   CaptureKind
	Target TargetKind
}

// Displacement is the orthodox "move onto the enemy" capture.
func Displacement() *CaptureRules {
	return &CaptureRules{Mode: CanCapture, Kind: CaptureByDisplacement, Target: TargetEnemy}
}

// OnlyDisplacement captures by displacement and cannot move without
// capturing, like a pawn's diagonal.
func OnlyDisplacement() *CaptureRules {
	return &CaptureRules{Mode: MustCapture, Kind: CaptureByDisplacement, Target: TargetEnemy}
}

// Overtake captures checkers-style.
func Overtake(mode CaptureMode) *CaptureRules {
	return &CaptureRules{Mode: mode, Kind: CaptureByOvertake, Target: TargetEnemy}
}

// InPassing is the en-passant capture.
func InPassing() *CaptureRules {
	return &CaptureRules{Mode: MustCapture, Kind: CaptureInPassing, Target: TargetEnemy}
}

// AtRange captures without moving.
func AtRange() *CaptureRules {
	return &CaptureRules{Mode: MustCapture, Kind: CaptureAtRange, Target: TargetEnemy}
}

func (c *CaptureRules) must() bool {
	return c != nil && c.Mode == MustCapture
}
