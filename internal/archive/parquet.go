// Package archive stores finished games as Parquet files, one row per ply.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fairyforge/fairy-server-go/internal/game"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"go.uber.org/zap"
)

const schemaVersion = "fairy_turn_v1"

// TurnRow is one completed ply of an archived game.
type TurnRow struct {
	GameID       string   `parquet:"game_id,dict"`
	Ply          int32    `parquet:"ply"`
	PieceID      string   `parquet:"piece_id"`
	Identity     string   `parquet:"identity,dict"`
	Team         string   `parquet:"team,dict"`
	From         string   `parquet:"from,dict"`
	To           string   `parquet:"to,dict"`
	Captures     []string `parquet:"captures"`
	SideEffects  int32    `parquet:"side_effects"`
	Source       string   `parquet:"source,dict"`
	Mutation     string   `parquet:"mutation,dict,optional"`
	Winner       string   `parquet:"winner,dict,optional"`
	WinCondition string   `parquet:"win_condition,dict"`
	Width        int32    `parquet:"width"`
	Height       int32    `parquet:"height"`
	StartedAt    int64    `parquet:"started_at"`
}

// Rows flattens a game record.
func Rows(rec *game.GameRecord) []TurnRow {
	winner := ""
	if rec.Winner != nil {
		winner = rec.Winner.String()
	}
	rows := make([]TurnRow, 0, len(rec.History))
	for _, h := range rec.History {
		captures := make([]string, 0, len(h.Action.Captures))
		for _, sq := range h.Action.Captures {
			captures = append(captures, sq.String())
		}
		rows = append(rows, TurnRow{
			GameID:       rec.GameID,
			Ply:          int32(h.Ply),
			PieceID:      h.PieceID,
			Identity:     h.Identity,
			Team:         h.Team.String(),
			From:         h.Action.Movement.From.String(),
			To:           h.Action.Movement.To.String(),
			Captures:     captures,
			SideEffects:  int32(len(h.Action.SideEffects)),
			Source:       string(h.Action.Source),
			Mutation:     h.Mutation,
			Winner:       winner,
			WinCondition: rec.Win.Kind.String(),
			Width:        int32(rec.Width),
			Height:       int32(rec.Height),
			StartedAt:    rec.StartedAt.UnixMilli(),
		})
	}
	return rows
}

// Archiver writes finished games under a directory.
type Archiver struct {
	dir    string
	logger *zap.Logger
}

func NewArchiver(dir string, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{dir: dir, logger: logger}
}

// Path returns the file a game is archived to.
func (a *Archiver) Path(gameID string) string {
	return filepath.Join(a.dir, gameID+".parquet")
}

// WriteGame archives rec. The file is written to a temporary name and
// renamed into place.
func (a *Archiver) WriteGame(rec *game.GameRecord) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	outPath := a.Path(rec.GameID)
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	rows := Rows(rec)
	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaVersion),
		parquet.KeyValueMetadata("game_id", rec.GameID),
	); err != nil {
		return "", fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return "", fmt.Errorf("rename parquet: %w", err)
	}

	a.logger.Info("archived game",
		zap.String("game_id", rec.GameID),
		zap.Int("plies", len(rows)),
		zap.String("path", outPath),
	)
	return outPath, nil
}

// ReadGame loads the rows of an archived game file.
func ReadGame(path string) ([]TurnRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	if schema, ok := pf.Lookup("schema"); !ok || schema != schemaVersion {
		return nil, fmt.Errorf("unexpected archive schema %q", schema)
	}

	reader := parquet.NewGenericReader[TurnRow](pf)
	defer reader.Close()

	rows := make([]TurnRow, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return rows[:n], nil
}
