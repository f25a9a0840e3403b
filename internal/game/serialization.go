package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
)

// SerializationChecksum is a deterministic digest of a snapshot. Two
// snapshots of the same position and history share a checksum regardless of
// when they were taken.
type SerializationChecksum struct {
	Hash      string
	Timestamp string
	Version   int
}

// ComputeChecksum hashes the canonical representation of the snapshot.
func (s *GameSnapshot) ComputeChecksum() (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: s.Timestamp.Format("2006-01-02T15:04:05.000Z"),
		Version:   s.Version,
	}, nil
}

// canonical renders every deterministic field in a fixed order.
func (s *GameSnapshot) canonical() string {
	var buf strings.Builder

	var size board.Vector
	if s.Geometry != nil {
		size = s.Geometry.Size()
	}
	fmt.Fprintf(&buf, "GAME:%s|%dx%d|%s|%d|%s|%s\n",
		s.GameID, size.X, size.Y, s.Turn.First, s.Turn.Ply, s.Turn.State, s.Win.Kind)
	if s.Winner != nil {
		fmt.Fprintf(&buf, "WINNER:%s\n", *s.Winner)
	}

	pieces := append([]*rules.Piece(nil), s.Pieces...)
	sort.Slice(pieces, func(i, j int) bool { return pieces[i].ID < pieces[j].ID })
	for _, p := range pieces {
		fmt.Fprintf(&buf, "PIECE:%s|%s|%s|%s|%s|%t|%d|%t|%s\n",
			p.ID, p.Identity, p.Team, p.Position, p.Orientation,
			p.Royal, p.Moves, p.CastlingDisabled, p.Behaviors)
		for _, sq := range p.Actions.Squares() {
			fmt.Fprintf(&buf, "  ACTION:%s|%s\n", sq, p.Actions[sq])
		}
	}

	for _, h := range s.History {
		fmt.Fprintf(&buf, "PLY:%d|%s|%s|%s|%s|%s\n",
			h.Ply, h.PieceID, h.Identity, h.Team, h.Action, h.Mutation)
	}
	if s.LastAction != nil {
		fmt.Fprintf(&buf, "LAST:%s\n", *s.LastAction)
	}

	for _, team := range sortedTeams(s.Clocks) {
		c := s.Clocks[team]
		fmt.Fprintf(&buf, "CLOCK:%s|%d|%d|%d|%t\n", team, c.Duration, c.Increment, c.Elapsed, c.Running)
	}
	for _, team := range sortedTeams(s.InitialRoyals) {
		fmt.Fprintf(&buf, "ROYALS:%s|%d\n", team, s.InitialRoyals[team])
	}

	writePending(&buf, "PENDING", s.Pending)
	writePending(&buf, "OFFER", s.Offer)
	return buf.String()
}

func writePending(buf *strings.Builder, label string, p *PendingMutation) {
	if p == nil {
		return
	}
	fmt.Fprintf(buf, "%s:%s|%s|%d|%t|%s\n", label, p.PieceID, p.Key, p.Ply, p.Required, strings.Join(p.Options, ","))
}

// VerifyChecksum reports whether s still matches expected.
func (s *GameSnapshot) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	computed, err := s.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes gob-encodes the snapshot.
func (s *GameSnapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a snapshot produced by SerializeToBytes.
func DeserializeFromBytes(data []byte) (*GameSnapshot, error) {
	var s GameSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// ValidateSerializationRoundtrip encodes and decodes s and compares
// checksums.
func ValidateSerializationRoundtrip(s *GameSnapshot) error {
	original, err := s.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := s.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	decoded, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	match, err := decoded.VerifyChecksum(original)
	if err != nil {
		return err
	}
	if !match {
		return fmt.Errorf("checksum mismatch after roundtrip")
	}
	return nil
}
