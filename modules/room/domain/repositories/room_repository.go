package repositories

import (
	"context"

	"maycast/server/modules/room/domain/entities"
)

// RoomRepository defines the persistence contract for rooms and their
// recording membership.
type RoomRepository interface {
	// Save upserts a room
	Save(ctx context.Context, room *entities.Room) error

	// FindByID retrieves a room by its ID
	FindByID(ctx context.Context, id string) (*entities.Room, error)

	// FindByAccessToken retrieves a room by its read-only director token
	FindByAccessToken(ctx context.Context, token string) (*entities.Room, error)

	// List returns all rooms, newest first
	List(ctx context.Context) ([]*entities.Room, error)

	// Delete removes a room; membership links cascade, recordings survive
	Delete(ctx context.Context, id string) error

	// TransitionState performs a conditional state update: the write applies
	// only when the room is still in the expected from state. Fails with
	// not-found when the room is missing and invalid-transition when the
	// precondition no longer holds.
	TransitionState(ctx context.Context, id string, from, to entities.RoomState) error

	// AddRecording links a recording into the room (set semantics)
	AddRecording(ctx context.Context, roomID, recordingID string) error

	// RemoveRecording unlinks a recording from the room
	RemoveRecording(ctx context.Context, roomID, recordingID string) error

	// ListRecordingIDs returns the ids of recordings linked into the room
	ListRecordingIDs(ctx context.Context, roomID string) ([]string, error)

	// ClearRecordings unlinks every recording from the room (room reuse)
	ClearRecordings(ctx context.Context, roomID string) error
}
