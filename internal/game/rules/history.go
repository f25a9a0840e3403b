package rules

// HistoryEntry records one completed turn.
type HistoryEntry struct {
	Ply      int
	PieceID  string
	Identity string
	Team     Team
	Action   Action
	// Mutation is the identity the piece mutated into, empty if none.
	Mutation string
}

// ActionHistory is the append-only list of completed turns.
type ActionHistory struct {
	Entries []HistoryEntry
}

// Append records a completed turn.
func (h *ActionHistory) Append(entry HistoryEntry) {
	h.Entries = append(h.Entries, entry)
}

// Last returns the most recent entry.
func (h *ActionHistory) Last() (HistoryEntry, bool) {
	if len(h.Entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.Entries[len(h.Entries)-1], true
}

// SetMutation amends the mutation of the most recent entry, used when an
// optional mutation is answered after the turn completed.
func (h *ActionHistory) SetMutation(identity string) {
	if len(h.Entries) == 0 {
		return
	}
	h.Entries[len(h.Entries)-1].Mutation = identity
}

// Len returns the number of recorded turns.
func (h *ActionHistory) Len() int {
	return len(h.Entries)
}

// Clone deep-copies the history.
func (h *ActionHistory) Clone() *ActionHistory {
	out := &ActionHistory{Entries: make([]HistoryEntry, len(h.Entries))}
	for i, e := range h.Entries {
		e.Action = e.Action.Clone()
		out.Entries[i] = e
	}
	return out
}
