package game

import (
	"fmt"
	"slices"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

// WinKind selects how a game is won on the board.
type WinKind int

const (
	// WinRoyalCaptureAll ends the game once a team has no royal piece left.
	WinRoyalCaptureAll WinKind = iota
	// WinRoyalCapture ends the game once a team loses any royal piece.
	WinRoyalCapture
	// WinRaceToRank is won by the first royal piece reaching Rank (local).
	WinRaceToRank
	// WinRaceToRegion is won by the first royal piece entering Region.
	WinRaceToRegion
)

var winKindNames = map[WinKind]string{
	WinRoyalCaptureAll: "royal-capture-all",
	WinRoyalCapture:    "royal-capture",
	WinRaceToRank:      "race-to-rank",
	WinRaceToRegion:    "race-to-region",
}

func (k WinKind) String() string {
	if name, ok := winKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("win-kind-%d", int(k))
}

// ParseWinKind accepts the names produced by String.
func ParseWinKind(name string) (WinKind, error) {
	if name == "" {
		return WinRoyalCaptureAll, nil
	}
	for k, n := range winKindNames {
		if n == name {
			return k, nil
		}
	}
	return WinRoyalCaptureAll, fmt.Errorf("unknown win condition %q", name)
}

// WinCondition decides when a game is over.
type WinCondition struct {
	Kind   WinKind
	Rank   int
	Region []board.Square
}

// evaluate inspects the game after mover's turn and reports the winner.
// When both teams lose their royals on the same ply, the mover wins.
func (w WinCondition) evaluate(g *gameState, mover rules.Team) (rules.Team, bool) {
	royals := map[rules.Team]int{}
	for _, p := range g.pieces {
		if p.Royal {
			royals[p.Team]++
		}
	}

	switch w.Kind {
	case WinRoyalCapture:
		for _, team := range []rules.Team{mover.Next(), mover} {
			if royals[team] < g.initialRoyals[team] {
				return team.Next(), true
			}
		}

	case WinRaceToRank, WinRaceToRegion:
		for _, team := range []rules.Team{mover, mover.Next()} {
			for _, p := range g.pieces {
				if !p.Royal || p.Team != team {
					continue
				}
				if w.Kind == WinRaceToRank && g.geometry.LocalRank(p.Position, p.Orientation) == w.Rank {
					return team, true
				}
				if w.Kind == WinRaceToRegion && slices.Contains(w.Region, p.Position) {
					return team, true
				}
			}
		}
		fallthrough

	default:
		for _, team := range []rules.Team{mover.Next(), mover} {
			if g.initialRoyals[team] > 0 && royals[team] == 0 {
				return team.Next(), true
			}
		}
	}
	return rules.White, false
}
