package layouts

import (
	"fmt"
	"sort"

	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

var backRank = [8]string{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// homeRanks returns the 0-based back and pawn ranks of team on an 8x8 board.
func homeRanks(team rules.Team) (back, pawns int) {
	if team == rules.Black {
		return 7, 6
	}
	return 0, 1
}

// standard places the orthodox starting position using catalog.
func standard(catalog Catalog) game.GameSpec {
	spec := game.GameSpec{Geometry: board.Chessboard(), FirstTeam: rules.White}
	for _, team := range []rules.Team{rules.White, rules.Black} {
		back, pawns := homeRanks(team)
		for file, identity := range backRank {
			def, _ := catalog.ByIdentity(identity, back)
			spec.Pieces = append(spec.Pieces, game.PieceSpec{Definition: def, Square: board.Sq(file, back), Team: team})
		}
		for file := 0; file < 8; file++ {
			spec.Pieces = append(spec.Pieces, game.PieceSpec{Definition: catalog.Pawn(), Square: board.Sq(file, pawns), Team: team})
		}
	}
	return spec
}

// Classical is the orthodox chess starting position.
func Classical() game.GameSpec {
	return standard(Catalog{})
}

// KnightRelay is classical chess where any piece standing next to a
// friendly knight may also move like a knight. Kings cannot borrow.
func KnightRelay() game.GameSpec {
	relay := rules.RelayBehavior{Identities: []string{Knight}}
	extra := map[string][]rules.Behavior{}
	for _, identity := range []string{Pawn, Bishop, Rook, Queen} {
		extra[identity] = []rules.Behavior{relay}
	}
	return standard(Catalog{Extra: extra})
}

// SuperRelay lets every piece move with the patterns of any adjacent
// friendly piece in addition to its own.
func SuperRelay() game.GameSpec {
	extra := map[string][]rules.Behavior{}
	for _, identity := range []string{Pawn, Knight, Bishop, Rook, Queen, King} {
		extra[identity] = []rules.Behavior{rules.RelayBehavior{}}
	}
	return standard(Catalog{Extra: extra})
}

var registry = map[string]func() game.GameSpec{
	"classical":    Classical,
	"knight-relay": KnightRelay,
	"super-relay":  SuperRelay,
}

// ByName looks up a registered layout.
func ByName(name string) (game.GameSpec, error) {
	if name == "" {
		name = "classical"
	}
	build, ok := registry[name]
	if !ok {
		return game.GameSpec{}, fmt.Errorf("%w: unknown layout %q (known: %v)", game.ErrInvalidSetup, name, Names())
	}
	return build(), nil
}

// Names lists registered layouts.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
