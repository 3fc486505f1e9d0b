package services

import (
	"context"
	"crypto/subtle"
	"time"

	"maycast/server/modules/postproduction/domain/jobs"
	"maycast/server/modules/room/domain/entities"
	"maycast/server/modules/room/domain/repositories"
	"maycast/server/seedwork/domain"

	"github.com/rs/zerolog/log"
)

// Server-to-client event names emitted on room transitions
const (
	EventRoomStateChanged        = "room_state_changed"
	EventScheduledRecordingStart = "scheduled_recording_start"
)

// recordingStartLead is how far in the future the scheduled start timestamp
// is placed so every guest receives it before it fires.
const recordingStartLead = 1500 * time.Millisecond

// Broadcaster is the slice of the room coordinator the room service needs:
// fan-out to a room channel and the aggregate sync predicate.
type Broadcaster interface {
	Broadcast(roomID, event string, payload interface{})
	AllGuestsSynced(roomID string) bool
}

// ExtractionEnqueuer dispatches audio-extraction jobs. A nil enqueuer means
// no job-queue backend is configured; jobs are skipped silently.
type ExtractionEnqueuer interface {
	EnqueueAudioExtraction(ctx context.Context, job jobs.AudioExtractionJob) error
}

// RoomService owns the room state machine. All transitions persist through
// the repository first and broadcast afterwards; a lost broadcast leaves
// durable state ahead of clients, which reconcile over HTTP on reconnect.
type RoomService struct {
	rooms repositories.RoomRepository
	hub   Broadcaster
	queue ExtractionEnqueuer
}

// NewRoomService creates a new room service
func NewRoomService(rooms repositories.RoomRepository, hub Broadcaster, queue ExtractionEnqueuer) *RoomService {
	return &RoomService{rooms: rooms, hub: hub, queue: queue}
}

// CreateRoom creates a new idle room with fresh secrets
func (s *RoomService) CreateRoom(ctx context.Context) (*entities.Room, error) {
	room := entities.NewRoom()
	if err := s.rooms.Save(ctx, &room); err != nil {
		return nil, err
	}
	log.Info().Str("room_id", room.GetID()).Msg("room created")
	return &room, nil
}

// GetRoom retrieves a room by id
func (s *RoomService) GetRoom(ctx context.Context, id string) (*entities.Room, error) {
	return s.rooms.FindByID(ctx, id)
}

// GetRoomByToken retrieves a room by its read-only director token
func (s *RoomService) GetRoomByToken(ctx context.Context, token string) (*entities.Room, error) {
	if token == "" {
		return nil, domain.NewDomainError(domain.KindNotFound, "ROOM_NOT_FOUND", "room not found", nil)
	}
	return s.rooms.FindByAccessToken(ctx, token)
}

// ListRooms returns all rooms
func (s *RoomService) ListRooms(ctx context.Context) ([]*entities.Room, error) {
	return s.rooms.List(ctx)
}

// DeleteRoom removes a room; membership links cascade, recordings survive
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	return s.rooms.Delete(ctx, id)
}

// AuthorizeAccess resolves the room and verifies the access key in constant
// time. A key that granted a since-deleted room never grants another: the
// lookup is always by id first.
func (s *RoomService) AuthorizeAccess(ctx context.Context, roomID, accessKey string) (*entities.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(room.AccessKey), []byte(accessKey)) != 1 {
		return nil, domain.NewDomainError(domain.KindAccessDenied, "ACCESS_DENIED", "invalid room access key", nil)
	}
	return room, nil
}

// ListRecordingIDs returns the ids of recordings linked into the room
func (s *RoomService) ListRecordingIDs(ctx context.Context, roomID string) ([]string, error) {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.rooms.ListRecordingIDs(ctx, roomID)
}

// AddRecording links a recording into the room (set semantics)
func (s *RoomService) AddRecording(ctx context.Context, roomID, recordingID string) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		return err
	}
	return s.rooms.AddRecording(ctx, roomID, recordingID)
}

// ExecuteCommand applies a director command to the room state machine.
// The durable update happens first; the broadcast follows.
func (s *RoomService) ExecuteCommand(ctx context.Context, roomID string, cmd entities.RoomCommand) (*entities.Room, error) {
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	next, err := entities.TransitionForCommand(room.State, cmd)
	if err != nil {
		return nil, err
	}

	if err := s.rooms.TransitionState(ctx, roomID, room.State, next); err != nil {
		return nil, err
	}
	room.State = next
	room.UpdatedAt = time.Now()

	log.Info().Str("room_id", roomID).Str("command", string(cmd)).Str("state", string(next)).
		Msg("room state transition")

	s.broadcastState(roomID, next)

	switch cmd {
	case entities.CommandStart:
		startAt := time.Now().Add(recordingStartLead)
		s.hub.Broadcast(roomID, EventScheduledRecordingStart, map[string]interface{}{
			"roomId":    roomID,
			"startTime": startAt.UnixMilli(),
		})
	case entities.CommandStop:
		// A room whose guests are already synced (or that has no guest
		// recordings at all) finalizes on this evaluation.
		if s.hub.AllGuestsSynced(roomID) {
			if err := s.FinalizeRoom(ctx, roomID); err != nil {
				return nil, err
			}
			room.State = entities.RoomFinished
		}
	case entities.CommandReset:
		if err := s.rooms.ClearRecordings(ctx, roomID); err != nil {
			return nil, err
		}
	}

	return room, nil
}

// HandleAllGuestsSynced is the coordinator lifecycle hook: invoked when the
// last pending guest reports sync completion.
func (s *RoomService) HandleAllGuestsSynced(roomID string) {
	ctx := context.Background()
	if err := s.FinalizeRoom(ctx, roomID); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to finalize room")
	}
}

// FinalizeRoom moves a finalizing room to finished and dispatches the
// extraction job. The conditional update makes the transition fire at most
// once per finalizing pass: a second predicate evaluation sees the room
// already finished and returns without side effects.
func (s *RoomService) FinalizeRoom(ctx context.Context, roomID string) error {
	err := s.rooms.TransitionState(ctx, roomID, entities.RoomFinalizing, entities.RoomFinished)
	if err != nil {
		if de, ok := domain.AsDomainError(err); ok && de.Kind == domain.KindInvalidTransition {
			// Not finalizing (anymore) — nothing to do.
			return nil
		}
		return err
	}

	log.Info().Str("room_id", roomID).Msg("room finished")
	s.broadcastState(roomID, entities.RoomFinished)

	recordingIDs, err := s.rooms.ListRecordingIDs(ctx, roomID)
	if err != nil {
		return err
	}
	if len(recordingIDs) == 0 {
		return nil
	}

	if s.queue == nil {
		log.Warn().Str("room_id", roomID).Msg("no job queue configured, skipping audio extraction")
		return nil
	}

	job := jobs.AudioExtractionJob{
		RoomID:       roomID,
		RecordingIDs: recordingIDs,
		CreatedAt:    time.Now(),
	}
	if err := s.queue.EnqueueAudioExtraction(ctx, job); err != nil {
		// The room has still finished; post-production is optional
		// infrastructure.
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to enqueue audio extraction")
	}
	return nil
}

func (s *RoomService) broadcastState(roomID string, state entities.RoomState) {
	s.hub.Broadcast(roomID, EventRoomStateChanged, map[string]interface{}{
		"roomId": roomID,
		"state":  string(state),
	})
}
