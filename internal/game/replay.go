package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const replayFormatVersion = 2

// Replay is the sequence of positions a game went through: the initial
// position followed by one frame per completed ply. A cursor supports
// stepping through the frames.
type Replay struct {
	GameID string

	mu     sync.RWMutex
	frames []*GameSnapshot
	cursor int
}

func NewReplay(gameID string) *Replay {
	return &Replay{GameID: gameID}
}

// RecordState appends a frame.
func (r *Replay) RecordState(s *GameSnapshot) {
	r.mu.Lock()
	r.frames = append(r.frames, s)
	r.mu.Unlock()
}

// Start rewinds the cursor.
func (r *Replay) Start() {
	r.mu.Lock()
	r.cursor = 0
	r.mu.Unlock()
}

// Next returns the frame under the cursor and advances, or nil past the end.
func (r *Replay) Next() *GameSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.frames) {
		return nil
	}
	s := r.frames[r.cursor]
	r.cursor++
	return s
}

// Previous steps back and returns that frame, or nil at the start.
func (r *Replay) Previous() *GameSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor == 0 {
		return nil
	}
	r.cursor--
	return r.frames[r.cursor]
}

// Skip moves the cursor by count, clamped to the recorded frames.
func (r *Replay) Skip(count int) *GameSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return nil
	}
	r.cursor = min(max(r.cursor+count, 0), len(r.frames)-1)
	return r.frames[r.cursor]
}

func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.frames)
}

// GetStateAt returns frame index, or nil when out of range.
func (r *Replay) GetStateAt(index int) *GameSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.frames) {
		return nil
	}
	return r.frames[index]
}

// AtPly returns the last frame recorded at ply, the position before that
// ply's move was made.
func (r *Replay) AtPly(ply int) *GameSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].Turn.Ply == ply {
			return r.frames[i]
		}
	}
	return nil
}

// replayHeader precedes the frames in a replay file.
type replayHeader struct {
	GameID     string
	Written    time.Time
	Version    int
	FrameCount int
	// FinalHash is the checksum of the last frame, verified on load.
	FinalHash string
}

func replayPath(directory, gameID string) string {
	return filepath.Join(directory, gameID+".replay")
}

// SaveToFile writes the replay to directory as gzipped gob. The file is
// renamed into place once complete.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	frames := append([]*GameSnapshot(nil), r.frames...)
	r.mu.RUnlock()

	header := replayHeader{
		GameID:     r.GameID,
		Written:    time.Now(),
		Version:    replayFormatVersion,
		FrameCount: len(frames),
	}
	if n := len(frames); n > 0 {
		sum, err := frames[n-1].ComputeChecksum()
		if err != nil {
			return err
		}
		header.FinalHash = sum.Hash
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create replay directory: %w", err)
	}
	final := replayPath(directory, r.GameID)
	tmp := final + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create replay file: %w", err)
	}
	if err := encodeReplay(file, header, frames); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close replay file: %w", err)
	}
	return os.Rename(tmp, final)
}

func encodeReplay(w io.Writer, header replayHeader, frames []*GameSnapshot) error {
	gz := gzip.NewWriter(w)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(header); err != nil {
		return fmt.Errorf("failed to encode replay header: %w", err)
	}
	for i, frame := range frames {
		if err := enc.Encode(frame); err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}
	return gz.Close()
}

func decodeReplay(rd io.Reader) (*Replay, replayHeader, error) {
	var header replayHeader
	gz, err := gzip.NewReader(rd)
	if err != nil {
		return nil, header, fmt.Errorf("replay is not gzip: %w", err)
	}
	defer gz.Close()

	dec := gob.NewDecoder(gz)
	if err := dec.Decode(&header); err != nil {
		return nil, header, fmt.Errorf("failed to decode replay header: %w", err)
	}
	if header.Version != replayFormatVersion {
		return nil, header, fmt.Errorf("unsupported replay version %d", header.Version)
	}

	replay := NewReplay(header.GameID)
	replay.frames = make([]*GameSnapshot, 0, header.FrameCount)
	for i := 0; i < header.FrameCount; i++ {
		frame := new(GameSnapshot)
		if err := dec.Decode(frame); err != nil {
			return nil, header, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		replay.frames = append(replay.frames, frame)
	}
	return replay, header, nil
}

// LoadReplayFromFile reads a replay written by SaveToFile and checks the
// last frame against the recorded checksum.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open replay: %w", err)
	}
	defer file.Close()

	replay, header, err := decodeReplay(file)
	if err != nil {
		return nil, err
	}
	if n := len(replay.frames); n > 0 {
		ok, err := replay.frames[n-1].VerifyChecksum(&SerializationChecksum{Hash: header.FinalHash})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("replay %s is corrupt: final frame checksum mismatch", gameID)
		}
	}
	return replay, nil
}

type recording struct {
	replay *Replay
	active bool
}

// ReplayRecorder keeps a replay per running game and writes it to saveDir
// when asked.
type ReplayRecorder struct {
	logger  *zap.Logger
	saveDir string

	mu         sync.RWMutex
	recordings map[string]*recording
}

func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:     logger,
		saveDir:    saveDir,
		recordings: make(map[string]*recording),
	}
}

// StartRecording begins a fresh replay for gameID, discarding any previous one.
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	rr.recordings[gameID] = &recording{replay: NewReplay(gameID), active: true}
	rr.mu.Unlock()
	rr.logger.Info("started replay recording", zap.String("game_id", gameID))
}

// StopRecording keeps the replay but ignores further frames.
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if rec, ok := rr.recordings[gameID]; ok {
		rec.active = false
	}
}

// RecordState appends s if gameID is being recorded.
func (rr *ReplayRecorder) RecordState(gameID string, s *GameSnapshot) {
	rr.mu.RLock()
	rec, ok := rr.recordings[gameID]
	active := ok && rec.active
	rr.mu.RUnlock()
	if !active {
		return
	}
	rec.replay.RecordState(s)
	rr.logger.Debug("recorded replay frame",
		zap.String("game_id", gameID),
		zap.Int("ply", s.Turn.Ply),
		zap.Int("frames", rec.replay.Size()),
	)
}

func (rr *ReplayRecorder) GetReplay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	rec, ok := rr.recordings[gameID]
	if !ok {
		return nil, false
	}
	return rec.replay, true
}

// SaveReplay writes the replay to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	rec, ok := rr.recordings[gameID]
	delete(rr.recordings, gameID)
	rr.mu.Unlock()
	if !ok {
		return fmt.Errorf("no replay recorded for game %s", gameID)
	}

	if err := rec.replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay",
		zap.String("game_id", gameID),
		zap.Int("frames", rec.replay.Size()),
		zap.String("path", replayPath(rr.saveDir, gameID)),
	)
	return nil
}

func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}
	rr.logger.Debug("loaded replay", zap.String("game_id", gameID), zap.Int("frames", replay.Size()))
	return replay, nil
}

// ClearReplay drops a replay without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	delete(rr.recordings, gameID)
	rr.mu.Unlock()
}

func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	rec, ok := rr.recordings[gameID]
	return ok && rec.active
}
