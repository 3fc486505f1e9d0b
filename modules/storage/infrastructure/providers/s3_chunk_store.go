package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"maycast/server/modules/storage/domain/services"
	"maycast/server/seedwork/infrastructure/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
)

// deleteBatchSize is the S3 DeleteObjects limit per call
const deleteBatchSize = 1000

// S3ChunkStore implements the ChunkStore interface against an S3-compatible
// object store. Presigned GET/PUT URLs let clients transfer bytes without
// proxying through the application server.
type S3ChunkStore struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3ChunkStore creates an S3-backed chunk store from configuration.
// A custom endpoint plus path-style addressing covers MinIO and other
// compatible stores.
func NewS3ChunkStore(ctx context.Context, cfg config.S3Config) (*S3ChunkStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return &S3ChunkStore{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// SaveInitSegment stores the recording's init segment
func (s *S3ChunkStore) SaveInitSegment(ctx context.Context, recordingID, roomID string, data []byte) error {
	return s.SaveObject(ctx, services.InitSegmentKey(recordingID, roomID), data, "video/mp4")
}

// SaveChunk stores one media segment
func (s *S3ChunkStore) SaveChunk(ctx context.Context, recordingID, roomID string, chunkID int, data []byte) error {
	return s.SaveObject(ctx, services.ChunkKey(recordingID, roomID, chunkID), data, "video/mp4")
}

// SaveObject puts bytes under the given key. Overwrites are last-writer-wins.
func (s *S3ChunkStore) SaveObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

// GetInitSegment returns the init segment bytes
func (s *S3ChunkStore) GetInitSegment(ctx context.Context, recordingID, roomID string) ([]byte, error) {
	return s.GetObject(ctx, services.InitSegmentKey(recordingID, roomID))
}

// GetChunk returns the chunk bytes
func (s *S3ChunkStore) GetChunk(ctx context.Context, recordingID, roomID string, chunkID int) ([]byte, error) {
	return s.GetObject(ctx, services.ChunkKey(recordingID, roomID, chunkID))
}

// GetObject downloads the bytes stored under the given key
func (s *S3ChunkStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, services.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// ListChunkIDs pages through the recording's prefix and returns chunk ids in
// ascending numeric order. Continuation tokens are followed until the listing
// is exhausted.
func (s *S3ChunkStore) ListChunkIDs(ctx context.Context, recordingID, roomID string) ([]int, error) {
	prefix := services.RecordingPrefix(recordingID, roomID)
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(keys))
	for _, key := range keys {
		name := key[len(prefix):]
		if id, ok := services.ParseChunkID(name); ok {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// listKeys returns every object key under prefix
func (s *S3ChunkStore) listKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var continuation *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}
	return keys, nil
}

// DeleteRecording removes every object under the recording's prefix in
// batches of at most 1000 keys per delete call.
func (s *S3ChunkStore) DeleteRecording(ctx context.Context, recordingID, roomID string) error {
	prefix := services.RecordingPrefix(recordingID, roomID)
	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	for start := 0; start < len(keys); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			batch = append(batch, types.ObjectIdentifier{Key: aws.String(key)})
		}
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{
				Objects: batch,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete batch under %s: %w", prefix, err)
		}
	}

	log.Debug().Str("recording_id", recordingID).Str("room_id", roomID).Int("objects", len(keys)).
		Msg("deleted recording objects")
	return nil
}

// SupportsPresignedURLs reports true
func (s *S3ChunkStore) SupportsPresignedURLs() bool {
	return true
}

// PresignedUploadURL issues a presigned PUT URL for the given key
func (s *S3ChunkStore) PresignedUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = services.DefaultURLTTL
	}
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign put for %s: %w", key, err)
	}
	return req.URL, nil
}

// PresignedDownloadURL issues a presigned GET URL for the given key
func (s *S3ChunkStore) PresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = services.DefaultURLTTL
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign get for %s: %w", key, err)
	}
	return req.URL, nil
}
