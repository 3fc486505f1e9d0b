package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"maycast/server/modules/recording/domain/entities"
	"maycast/server/modules/recording/domain/repositories"
	storage "maycast/server/modules/storage/domain/services"
	"maycast/server/seedwork/domain"

	"github.com/rs/zerolog/log"
)

// RoomLinker is the slice of the room module the recording service needs:
// membership linking for room-bound recordings.
type RoomLinker interface {
	AddRecording(ctx context.Context, roomID, recordingID string) error
}

// ChunkDownloadURL pairs a presigned URL with its chunk id
type ChunkDownloadURL struct {
	ChunkID int
	URL     string
}

// DownloadURLs is the direct-download descriptor for the S3 backend
type DownloadURLs struct {
	Filename       string
	InitSegmentURL string
	Chunks         []ChunkDownloadURL
	TotalChunks    int
	ExpiresIn      int
	M4AURL         string
	M4AFilename    string
}

// UploadTarget describes where a client should put a segment
type UploadTarget struct {
	DirectUpload bool
	URL          string
	ExpiresIn    int
}

// RecordingService owns the recording lifecycle and the chunked upload path
type RecordingService struct {
	recordings repositories.RecordingRepository
	store      storage.ChunkStore
	rooms      RoomLinker
}

// NewRecordingService creates a new recording service
func NewRecordingService(recordings repositories.RecordingRepository, store storage.ChunkStore, rooms RoomLinker) *RecordingService {
	return &RecordingService{recordings: recordings, store: store, rooms: rooms}
}

// Create creates a recording, optionally bound to a room. Room-bound
// recordings are linked into the membership table immediately.
func (s *RecordingService) Create(ctx context.Context, roomID string, metadata *entities.RecordingMetadata) (*entities.Recording, error) {
	rec := entities.NewRecording(roomID, metadata)
	if err := s.recordings.Save(ctx, &rec); err != nil {
		return nil, err
	}
	if roomID != "" {
		if err := s.rooms.AddRecording(ctx, roomID, rec.GetID()); err != nil {
			return nil, err
		}
	}
	log.Info().Str("recording_id", rec.GetID()).Str("room_id", roomID).Msg("recording created")
	return &rec, nil
}

// Get retrieves a recording by id
func (s *RecordingService) Get(ctx context.Context, id string) (*entities.Recording, error) {
	return s.recordings.FindByID(ctx, id)
}

// ListByRoom returns the recordings linked into a room
func (s *RecordingService) ListByRoom(ctx context.Context, roomID string) ([]*entities.Recording, error) {
	return s.recordings.ListByRoom(ctx, roomID)
}

// UpdateState applies a client-requested recording state transition
func (s *RecordingService) UpdateState(ctx context.Context, id string, target entities.RecordingState) (*entities.Recording, error) {
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rec.State.ValidateTransition(target); err != nil {
		return nil, err
	}
	if err := s.recordings.TransitionState(ctx, id, rec.State, target); err != nil {
		return nil, err
	}
	if target == entities.RecordingFinalizing {
		now := time.Now()
		if err := s.recordings.SetEndTime(ctx, id, now); err != nil {
			return nil, err
		}
		rec.EndTime = &now
	}
	rec.State = target
	return rec, nil
}

// UpdateMetadata replaces the metadata blob. Allowed only while the
// recording is in standby or recording.
func (s *RecordingService) UpdateMetadata(ctx context.Context, id string, metadata *entities.RecordingMetadata) (*entities.Recording, error) {
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.State.MetadataMutable() {
		return nil, domain.NewDomainError(domain.KindInvalidOperation, "METADATA_IMMUTABLE",
			"metadata cannot be changed in state "+string(rec.State), nil)
	}
	if err := s.recordings.UpdateMetadata(ctx, id, metadata); err != nil {
		return nil, err
	}
	rec.Metadata = metadata
	return rec, nil
}

// SetParticipantName merges the guest's display name into the recording
// metadata. Invoked by the coordinator when a guest binds its recording id.
func (s *RecordingService) SetParticipantName(ctx context.Context, id, name string) error {
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !rec.State.MetadataMutable() {
		return domain.NewDomainError(domain.KindInvalidOperation, "METADATA_IMMUTABLE",
			"metadata cannot be changed in state "+string(rec.State), nil)
	}
	metadata := rec.Metadata
	if metadata == nil {
		metadata = &entities.RecordingMetadata{}
	}
	metadata.ParticipantName = name
	return s.recordings.UpdateMetadata(ctx, id, metadata)
}

// SaveInitSegment stores the recording's init segment via the proxy path
func (s *RecordingService) SaveInitSegment(ctx context.Context, id string, data []byte) error {
	if len(data) == 0 {
		return domain.NewDomainError(domain.KindInvalidChunk, "EMPTY_SEGMENT", "init segment must not be empty", nil)
	}
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SaveInitSegment(ctx, rec.GetID(), rec.RoomID, data); err != nil {
		return storageUnavailable(err)
	}
	return nil
}

// SaveChunk stores one media segment via the proxy path and increments the
// durable chunk counter.
func (s *RecordingService) SaveChunk(ctx context.Context, id string, chunkID int, data []byte) error {
	if chunkID < 0 {
		return domain.NewDomainError(domain.KindInvalidChunk, "INVALID_CHUNK_ID", "chunk id must be non-negative", nil)
	}
	if len(data) == 0 {
		return domain.NewDomainError(domain.KindInvalidChunk, "EMPTY_CHUNK", "chunk must not be empty", nil)
	}
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SaveChunk(ctx, rec.GetID(), rec.RoomID, chunkID, data); err != nil {
		return storageUnavailable(err)
	}
	return s.recordings.IncrementChunkCount(ctx, id, int64(len(data)))
}

// UploadTargetFor issues an upload location for a segment. On the S3 backend
// this is a presigned PUT; the local backend reports directUpload=false and
// the client falls back to the proxy endpoints.
func (s *RecordingService) UploadTargetFor(ctx context.Context, id, kind string, chunkID int) (*UploadTarget, error) {
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.store.SupportsPresignedURLs() {
		return &UploadTarget{DirectUpload: false}, nil
	}

	var key string
	switch kind {
	case "init-segment":
		key = storage.InitSegmentKey(rec.GetID(), rec.RoomID)
	case "chunk":
		if chunkID < 0 {
			return nil, domain.NewDomainError(domain.KindInvalidChunk, "INVALID_CHUNK_ID", "chunk id must be non-negative", nil)
		}
		key = storage.ChunkKey(rec.GetID(), rec.RoomID, chunkID)
	default:
		return nil, domain.NewDomainError(domain.KindInvalidOperation, "UNKNOWN_SEGMENT_KIND",
			fmt.Sprintf("unknown segment kind %q", kind), nil)
	}

	url, err := s.store.PresignedUploadURL(ctx, key, storage.DefaultURLTTL)
	if err != nil {
		return nil, storageUnavailable(err)
	}
	return &UploadTarget{
		DirectUpload: true,
		URL:          url,
		ExpiresIn:    int(storage.DefaultURLTTL.Seconds()),
	}, nil
}

// ConfirmUpload acknowledges a direct upload. Chunk confirmations increment
// the durable counter; init-segment confirmations are a no-op beyond
// validating the recording exists.
func (s *RecordingService) ConfirmUpload(ctx context.Context, id, kind string, chunkID int, size int64) error {
	if _, err := s.recordings.FindByID(ctx, id); err != nil {
		return err
	}
	switch kind {
	case "init-segment":
		return nil
	case "chunk":
		if chunkID < 0 {
			return domain.NewDomainError(domain.KindInvalidChunk, "INVALID_CHUNK_ID", "chunk id must be non-negative", nil)
		}
		if size < 0 {
			size = 0
		}
		return s.recordings.IncrementChunkCount(ctx, id, size)
	default:
		return domain.NewDomainError(domain.KindInvalidOperation, "UNKNOWN_SEGMENT_KIND",
			fmt.Sprintf("unknown segment kind %q", kind), nil)
	}
}

// DownloadURLs issues presigned GETs for the whole recording, ordered init
// first then chunks ascending. Returns nil when the backend cannot presign;
// the handler then advertises the server-streamed download instead.
func (s *RecordingService) DownloadURLs(ctx context.Context, id string) (*entities.Recording, *DownloadURLs, error) {
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !s.store.SupportsPresignedURLs() {
		return rec, nil, nil
	}

	ttl := storage.DefaultURLTTL
	initURL, err := s.store.PresignedDownloadURL(ctx, storage.InitSegmentKey(rec.GetID(), rec.RoomID), ttl)
	if err != nil {
		return nil, nil, storageUnavailable(err)
	}

	ids, err := s.store.ListChunkIDs(ctx, rec.GetID(), rec.RoomID)
	if err != nil {
		return nil, nil, storageUnavailable(err)
	}

	chunks := make([]ChunkDownloadURL, 0, len(ids))
	for _, chunkID := range ids {
		url, err := s.store.PresignedDownloadURL(ctx, storage.ChunkKey(rec.GetID(), rec.RoomID, chunkID), ttl)
		if err != nil {
			return nil, nil, storageUnavailable(err)
		}
		chunks = append(chunks, ChunkDownloadURL{ChunkID: chunkID, URL: url})
	}

	out := &DownloadURLs{
		Filename:       rec.Filename(),
		InitSegmentURL: initURL,
		Chunks:         chunks,
		TotalChunks:    len(chunks),
		ExpiresIn:      int(ttl.Seconds()),
	}

	if rec.OutputM4AKey != "" {
		m4aURL, err := s.store.PresignedDownloadURL(ctx, rec.OutputM4AKey, ttl)
		if err != nil {
			return nil, nil, storageUnavailable(err)
		}
		out.M4AURL = m4aURL
		out.M4AFilename = rec.GetID() + ".m4a"
	}

	return rec, out, nil
}

// StreamTo writes the assembled recording — init segment followed by every
// chunk in ascending numeric order — to w. Used when direct download is not
// available.
func (s *RecordingService) StreamTo(ctx context.Context, id string, w io.Writer) (*entities.Recording, error) {
	rec, err := s.recordings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	initData, err := s.store.GetInitSegment(ctx, rec.GetID(), rec.RoomID)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.NewDomainError(domain.KindNotFound, "INIT_SEGMENT_NOT_FOUND", "init segment not found", err)
		}
		return nil, storageUnavailable(err)
	}
	if _, err := w.Write(initData); err != nil {
		return nil, err
	}

	ids, err := s.store.ListChunkIDs(ctx, rec.GetID(), rec.RoomID)
	if err != nil {
		return nil, storageUnavailable(err)
	}
	for _, chunkID := range ids {
		data, err := s.store.GetChunk(ctx, rec.GetID(), rec.RoomID, chunkID)
		if err != nil {
			return nil, storageUnavailable(err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// storageUnavailable wraps backend I/O failures in the storage-unavailable
// kind so the boundary returns 503 and clients retry.
func storageUnavailable(err error) error {
	if _, ok := domain.AsDomainError(err); ok {
		return err
	}
	return domain.NewDomainError(domain.KindStorageUnavailable, "STORAGE_UNAVAILABLE", "storage backend failed", err)
}
