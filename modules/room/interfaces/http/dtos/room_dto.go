package dtos

import (
	"time"

	"maycast/server/modules/room/domain/entities"
)

// RoomStateRequest is the director state-transition request body
type RoomStateRequest struct {
	Command string `json:"command" binding:"required"`
}

// CreatedRoomResponse is returned from room creation and is the only place
// the access key leaves the server.
type CreatedRoomResponse struct {
	RoomID      string    `json:"roomId"`
	AccessKey   string    `json:"accessKey"`
	AccessToken string    `json:"accessToken,omitempty"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RoomResponse is the read model for a room
type RoomResponse struct {
	RoomID       string    `json:"roomId"`
	State        string    `json:"state"`
	RecordingIDs []string  `json:"recordingIds"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RoomsListResponse wraps the room collection
type RoomsListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
	Total int            `json:"total"`
}

// ToCreatedRoomResponse maps a freshly created room
func ToCreatedRoomResponse(room *entities.Room) CreatedRoomResponse {
	return CreatedRoomResponse{
		RoomID:      room.GetID(),
		AccessKey:   room.AccessKey,
		AccessToken: room.AccessToken,
		State:       string(room.State),
		CreatedAt:   room.GetCreatedAt(),
	}
}

// ToRoomResponse maps a room and its membership
func ToRoomResponse(room *entities.Room, recordingIDs []string) RoomResponse {
	if recordingIDs == nil {
		recordingIDs = []string{}
	}
	return RoomResponse{
		RoomID:       room.GetID(),
		State:        string(room.State),
		RecordingIDs: recordingIDs,
		CreatedAt:    room.GetCreatedAt(),
		UpdatedAt:    room.GetUpdatedAt(),
	}
}

// ToRoomsListResponse maps a room collection
func ToRoomsListResponse(rooms []*entities.Room) RoomsListResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, ToRoomResponse(room, nil))
	}
	return RoomsListResponse{Rooms: out, Total: len(out)}
}
