package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fairyforge/fairy-server-go/internal/game/board"
	"github.com/fairyforge/fairy-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func plySnapshot(gameID string, ply int) *GameSnapshot {
	return &GameSnapshot{
		Version:  SnapshotVersion,
		GameID:   gameID,
		Geometry: board.Chessboard(),
		Turn:     rules.TurnManager{First: rules.White, Ply: ply, State: rules.StateAwaitingMove},
	}
}

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("game-123")
	assert.Nil(t, replay.Next())
	assert.Nil(t, replay.Skip(3))

	for i := 0; i < 5; i++ {
		replay.RecordState(plySnapshot("game-123", i))
	}
	require.Equal(t, 5, replay.Size())

	replay.Start()
	assert.Equal(t, 0, replay.Next().Turn.Ply)
	assert.Equal(t, 1, replay.Next().Turn.Ply)
	assert.Equal(t, 1, replay.Previous().Turn.Ply)
	assert.Equal(t, 0, replay.Previous().Turn.Ply)
	assert.Nil(t, replay.Previous())

	assert.Equal(t, 3, replay.Skip(3).Turn.Ply)
	assert.Equal(t, 4, replay.Skip(100).Turn.Ply, "skip clamps to the last state")
	assert.Equal(t, 0, replay.Skip(-100).Turn.Ply, "skip clamps to the first state")

	assert.Equal(t, 2, replay.GetStateAt(2).Turn.Ply)
	assert.Nil(t, replay.GetStateAt(-1))
	assert.Nil(t, replay.GetStateAt(5))

	assert.Equal(t, 3, replay.AtPly(3).Turn.Ply)
	assert.Nil(t, replay.AtPly(9))
}

func TestReplaySaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "replays")
	replay := NewReplay("game-save")
	for i := 0; i < 3; i++ {
		replay.RecordState(plySnapshot("game-save", i))
	}
	require.NoError(t, replay.SaveToFile(dir))

	_, err := os.Stat(filepath.Join(dir, "game-save.replay.tmp"))
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")

	loaded, err := LoadReplayFromFile(dir, "game-save")
	require.NoError(t, err)
	assert.Equal(t, "game-save", loaded.GameID)
	require.Equal(t, 3, loaded.Size())
	assert.Equal(t, 2, loaded.GetStateAt(2).Turn.Ply)

	_, err = LoadReplayFromFile(dir, "missing")
	assert.Error(t, err)
}

func TestReplayLoadRejectsTamperedFile(t *testing.T) {
	dir := t.TempDir()
	replay := NewReplay("game-bad")
	replay.RecordState(plySnapshot("game-bad", 0))
	require.NoError(t, replay.SaveToFile(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "game-bad.replay"), []byte("not gzip"), 0o600))
	_, err := LoadReplayFromFile(dir, "game-bad")
	assert.Error(t, err)
}

func TestReplayRecorder(t *testing.T) {
	recorder := NewReplayRecorder(zaptest.NewLogger(t), t.TempDir())

	recorder.RecordState("g1", plySnapshot("g1", 0))
	_, exists := recorder.GetReplay("g1")
	assert.False(t, exists, "nothing is recorded before StartRecording")

	recorder.StartRecording("g1")
	recorder.StartRecording("g2")
	assert.True(t, recorder.IsRecording("g1"))
	recorder.RecordState("g1", plySnapshot("g1", 0))
	recorder.RecordState("g1", plySnapshot("g1", 1))
	recorder.RecordState("g2", plySnapshot("g2", 0))

	recorder.StopRecording("g1")
	recorder.RecordState("g1", plySnapshot("g1", 2))
	replay, exists := recorder.GetReplay("g1")
	require.True(t, exists)
	assert.Equal(t, 2, replay.Size())

	require.NoError(t, recorder.SaveReplay("g1"))
	_, exists = recorder.GetReplay("g1")
	assert.False(t, exists)
	loaded, err := recorder.LoadReplay("g1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())
	assert.Error(t, recorder.SaveReplay("g1"))

	recorder.ClearReplay("g2")
	assert.False(t, recorder.IsRecording("g2"))
}
