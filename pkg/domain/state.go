package domain

// Snapshot is a read-only copy of a machine's position in its history.
type Snapshot struct {
	Current  string   `json:"current"`
	History  []string `json:"history"`
	Position int      `json:"position"`
	CanUndo  bool     `json:"can_undo"`
	CanRedo  bool     `json:"can_redo"`
}
