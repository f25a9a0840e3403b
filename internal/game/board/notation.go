package board

import (
	"fmt"
	"strconv"
	"strings"
)

const maxFiles = 26

// String renders the square in algebraic notation ("e4"). Squares outside the
// a..z file range fall back to a coordinate pair.
func (s Square) String() string {
	if s.File < 0 || s.File >= maxFiles || s.Rank < 0 {
		return fmt.Sprintf("(%d,%d)", s.File, s.Rank)
	}
	return string(rune('a'+s.File)) + strconv.Itoa(s.Rank+1)
}

// ParseSquare parses algebraic notation such as "e4" or "j10".
func ParseSquare(text string) (Square, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) < 2 {
		return Square{}, fmt.Errorf("invalid square %q", text)
	}
	file := rune(text[0])
	if file < 'a' || file > 'z' {
		return Square{}, fmt.Errorf("invalid file in square %q", text)
	}
	rank, err := strconv.Atoi(text[1:])
	if err != nil || rank < 1 {
		return Square{}, fmt.Errorf("invalid rank in square %q", text)
	}
	return Square{File: int(file - 'a'), Rank: rank - 1}, nil
}

// MustParseSquare is ParseSquare for literals known to be valid.
func MustParseSquare(text string) Square {
	sq, err := ParseSquare(text)
	if err != nil {
		panic(err)
	}
	return sq
}

// MarshalText encodes the square in algebraic notation so squares can be map
// keys in JSON documents.
func (s Square) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (s *Square) UnmarshalText(data []byte) error {
	sq, err := ParseSquare(string(data))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}
