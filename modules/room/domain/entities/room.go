package entities

import (
	"fmt"

	"maycast/server/seedwork/domain"
)

type RoomState string

const (
	RoomIdle       RoomState = "idle"
	RoomRecording  RoomState = "recording"
	RoomFinalizing RoomState = "finalizing"
	RoomFinished   RoomState = "finished"
)

// Director commands accepted by the room state machine
type RoomCommand string

const (
	CommandStart RoomCommand = "start"
	CommandStop  RoomCommand = "stop"
	CommandReset RoomCommand = "reset"
)

// Room represents a coordination context: one director, zero or more guest
// recordings. State only advances idle → recording → finalizing → finished,
// with a single loop-back finished → idle for room reuse.
type Room struct {
	domain.BaseEntity
	AccessKey   string    `json:"-" gorm:"column:access_key;not null"`
	AccessToken string    `json:"-" gorm:"column:access_token"`
	State       RoomState `json:"state" gorm:"column:state;not null"`
}

// NewRoom creates a new Room in the idle state with fresh secrets
func NewRoom() Room {
	room := Room{
		AccessKey:   domain.GenerateSecret(24),
		AccessToken: domain.GenerateSecret(16),
		State:       RoomIdle,
	}
	room.SetID(domain.GenerateID())
	return room
}

// CanTransitionTo reports whether the state machine permits moving from the
// current state to next.
func (s RoomState) CanTransitionTo(next RoomState) bool {
	switch s {
	case RoomIdle:
		return next == RoomRecording
	case RoomRecording:
		return next == RoomFinalizing
	case RoomFinalizing:
		return next == RoomFinished
	case RoomFinished:
		return next == RoomIdle
	default:
		return false
	}
}

// IsValid reports whether s is a known room state
func (s RoomState) IsValid() bool {
	switch s {
	case RoomIdle, RoomRecording, RoomFinalizing, RoomFinished:
		return true
	}
	return false
}

// TransitionForCommand resolves a director command against the current state
// and returns the target state, or an invalid-transition error.
func TransitionForCommand(current RoomState, cmd RoomCommand) (RoomState, error) {
	var next RoomState
	switch cmd {
	case CommandStart:
		next = RoomRecording
	case CommandStop:
		next = RoomFinalizing
	case CommandReset:
		next = RoomIdle
	default:
		return "", domain.NewDomainError(domain.KindInvalidOperation, "UNKNOWN_COMMAND",
			fmt.Sprintf("unknown room command %q", cmd), nil)
	}
	if !current.CanTransitionTo(next) {
		return "", domain.NewDomainError(domain.KindInvalidTransition, "INVALID_STATE_TRANSITION",
			fmt.Sprintf("cannot %s a room in state %q", cmd, current), nil)
	}
	return next, nil
}

// TableName sets the table name for GORM
func (Room) TableName() string {
	return "rooms"
}

// RoomRecordingLink links a recording into a room. Membership is a set:
// adding the same pair twice is a no-op.
type RoomRecordingLink struct {
	RoomID      string `json:"room_id" gorm:"column:room_id;primaryKey;type:varchar(128)"`
	RecordingID string `json:"recording_id" gorm:"column:recording_id;primaryKey;type:varchar(128)"`
}

// TableName sets the table name for GORM
func (RoomRecordingLink) TableName() string {
	return "room_recordings"
}
