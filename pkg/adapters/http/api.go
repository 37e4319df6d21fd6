package http

import "github.com/aretw0/rewind/pkg/domain"

// CreateMachineRequest is the body of POST /machines.
type CreateMachineRequest struct {
	ID     string         `json:"id,omitempty"`
	Strict bool           `json:"strict,omitempty"`
	Config *domain.Config `json:"config"`
}

// TriggerRequest is the body of POST /machines/{id}/trigger.
type TriggerRequest struct {
	Event string `json:"event"`
}

// ChangeRequest is the body of POST /machines/{id}/change.
type ChangeRequest struct {
	State string `json:"state"`
}

// Machine is the JSON view of a machine snapshot.
type Machine struct {
	ID       string   `json:"id"`
	Current  string   `json:"current"`
	History  []string `json:"history"`
	Position int      `json:"position"`
	CanUndo  bool     `json:"can_undo"`
	CanRedo  bool     `json:"can_redo"`

	// Moved is set by undo and redo.
	Moved *bool `json:"moved,omitempty"`
}

// MachineList is the body of GET /machines.
type MachineList struct {
	Machines []string `json:"machines"`
}

// StateList is the body of GET /machines/{id}/states.
type StateList struct {
	States []string `json:"states"`
}

// Error is the body of every failed request.
type Error struct {
	Error string `json:"error"`
}

func machineFromSnapshot(id string, s domain.Snapshot) Machine {
	return Machine{
		ID:       id,
		Current:  s.Current,
		History:  s.History,
		Position: s.Position,
		CanUndo:  s.CanUndo,
		CanRedo:  s.CanRedo,
	}
}
