package rules

import (
	"fmt"
	"strings"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
)

// Team is one of the two sides of a game.
type Team int

const (
	White Team = iota
	Black
)

var teamNames = map[Team]string{
	White: "WHITE",
	Black: "BLACK",
}

func (t Team) String() string {
	if name, ok := teamNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TEAM_%d", int(t))
}

// ParseTeam accepts "white"/"black" in any case.
func ParseTeam(name string) (Team, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "WHITE", "W":
		return White, nil
	case "BLACK", "B":
		return Black, nil
	}
	return White, fmt.Errorf("unknown team %q", name)
}

// Next returns the opposing team.
func (t Team) Next() Team {
	if t == White {
		return Black
	}
	return White
}

// Orientation is the default facing of the team: White moves up the board,
// Black moves down.
func (t Team) Orientation() board.Orientation {
	if t == Black {
		return board.Down
	}
	return board.Up
}

// TeamForPly returns the team that moves on the given ply when first moves
// on ply zero.
func TeamForPly(first Team, ply int) Team {
	if ply%2 == 0 {
		return first
	}
	return first.Next()
}

func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Team) UnmarshalText(text []byte) error {
	team, err := ParseTeam(string(text))
	if err != nil {
		return err
	}
	*t = team
	return nil
}
