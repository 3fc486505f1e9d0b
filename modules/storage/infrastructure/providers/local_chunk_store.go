package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"maycast/server/modules/storage/domain/services"

	"github.com/rs/zerolog/log"
)

// LocalChunkStore implements the ChunkStore interface on the local
// filesystem. Object keys map directly to paths under the configured root.
// Presigned URLs are not supported; the application core proxies uploads and
// streams downloads instead.
type LocalChunkStore struct {
	root string
}

// NewLocalChunkStore creates a filesystem-backed chunk store rooted at root
func NewLocalChunkStore(root string) (*LocalChunkStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage path is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalChunkStore{root: root}, nil
}

func (s *LocalChunkStore) objectPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// SaveInitSegment stores the recording's init segment
func (s *LocalChunkStore) SaveInitSegment(ctx context.Context, recordingID, roomID string, data []byte) error {
	return s.SaveObject(ctx, services.InitSegmentKey(recordingID, roomID), data, "video/mp4")
}

// SaveChunk stores one media segment
func (s *LocalChunkStore) SaveChunk(ctx context.Context, recordingID, roomID string, chunkID int, data []byte) error {
	return s.SaveObject(ctx, services.ChunkKey(recordingID, roomID, chunkID), data, "video/mp4")
}

// SaveObject writes bytes under the given key, creating parent directories
func (s *LocalChunkStore) SaveObject(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.objectPath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// GetInitSegment returns the init segment bytes
func (s *LocalChunkStore) GetInitSegment(ctx context.Context, recordingID, roomID string) ([]byte, error) {
	return s.GetObject(ctx, services.InitSegmentKey(recordingID, roomID))
}

// GetChunk returns the chunk bytes
func (s *LocalChunkStore) GetChunk(ctx context.Context, recordingID, roomID string, chunkID int) ([]byte, error) {
	return s.GetObject(ctx, services.ChunkKey(recordingID, roomID, chunkID))
}

// GetObject reads the bytes stored under the given key
func (s *LocalChunkStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// ListChunkIDs returns the recording's chunk ids in ascending order
func (s *LocalChunkStore) ListChunkIDs(ctx context.Context, recordingID, roomID string) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := s.objectPath(services.RecordingPrefix(recordingID, roomID))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []int{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, ok := services.ParseChunkID(entry.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// DeleteRecording removes every object under the recording's prefix
func (s *LocalChunkStore) DeleteRecording(ctx context.Context, recordingID, roomID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := s.objectPath(services.RecordingPrefix(recordingID, roomID))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete recording %s: %w", recordingID, err)
	}
	log.Debug().Str("recording_id", recordingID).Str("room_id", roomID).Msg("deleted recording objects")
	return nil
}

// SupportsPresignedURLs reports false; the local backend has no URL issuance
func (s *LocalChunkStore) SupportsPresignedURLs() bool {
	return false
}

// PresignedUploadURL is unsupported on the local backend
func (s *LocalChunkStore) PresignedUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", services.ErrPresignedURLsUnsupported
}

// PresignedDownloadURL is unsupported on the local backend
func (s *LocalChunkStore) PresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", services.ErrPresignedURLsUnsupported
}
