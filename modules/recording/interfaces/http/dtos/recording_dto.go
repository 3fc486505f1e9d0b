package dtos

import (
	"time"

	"maycast/server/modules/recording/application/services"
	"maycast/server/modules/recording/domain/entities"
)

// CreateRecordingResponse is returned from recording creation
type CreateRecordingResponse struct {
	RecordingID string    `json:"recording_id"`
	CreatedAt   time.Time `json:"created_at"`
	State       string    `json:"state"`
}

// UpdateStateRequest is the recording state-transition request body
type UpdateStateRequest struct {
	State string `json:"state" binding:"required"`
}

// ConfirmUploadRequest acknowledges a direct (presigned) upload
type ConfirmUploadRequest struct {
	Type    string `json:"type" binding:"required"`
	ChunkID *int   `json:"chunkId,omitempty"`
	Size    int64  `json:"size,omitempty"`
}

// UploadTargetResponse tells the client where to put a segment
type UploadTargetResponse struct {
	DirectUpload bool   `json:"directUpload"`
	URL          string `json:"url,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

// ChunkURL pairs a presigned URL with its chunk id
type ChunkURL struct {
	URL     string `json:"url"`
	ChunkID int    `json:"chunkId"`
}

// SegmentURL wraps a single presigned URL
type SegmentURL struct {
	URL string `json:"url"`
}

// DownloadURLsResponse describes how to fetch the assembled recording
type DownloadURLsResponse struct {
	DirectDownload bool        `json:"directDownload"`
	Filename       string      `json:"filename"`
	InitSegment    *SegmentURL `json:"initSegment,omitempty"`
	Chunks         []ChunkURL  `json:"chunks,omitempty"`
	TotalChunks    int         `json:"totalChunks,omitempty"`
	ExpiresIn      int         `json:"expiresIn,omitempty"`
	M4AURL         string      `json:"m4aUrl,omitempty"`
	M4AFilename    string      `json:"m4aFilename,omitempty"`
	DownloadURL    string      `json:"downloadUrl,omitempty"`
}

// RecordingsListResponse wraps a recording collection
type RecordingsListResponse struct {
	Recordings []*entities.Recording `json:"recordings"`
	Total      int                   `json:"total"`
}

// ToCreateRecordingResponse maps a freshly created recording
func ToCreateRecordingResponse(rec *entities.Recording) CreateRecordingResponse {
	return CreateRecordingResponse{
		RecordingID: rec.GetID(),
		CreatedAt:   rec.GetCreatedAt(),
		State:       string(rec.State),
	}
}

// ToUploadTargetResponse maps a service upload target
func ToUploadTargetResponse(target *services.UploadTarget) UploadTargetResponse {
	return UploadTargetResponse{
		DirectUpload: target.DirectUpload,
		URL:          target.URL,
		ExpiresIn:    target.ExpiresIn,
	}
}

// ToDownloadURLsResponse maps the presigned download set
func ToDownloadURLsResponse(urls *services.DownloadURLs) DownloadURLsResponse {
	chunks := make([]ChunkURL, 0, len(urls.Chunks))
	for _, c := range urls.Chunks {
		chunks = append(chunks, ChunkURL{URL: c.URL, ChunkID: c.ChunkID})
	}
	return DownloadURLsResponse{
		DirectDownload: true,
		Filename:       urls.Filename,
		InitSegment:    &SegmentURL{URL: urls.InitSegmentURL},
		Chunks:         chunks,
		TotalChunks:    urls.TotalChunks,
		ExpiresIn:      urls.ExpiresIn,
		M4AURL:         urls.M4AURL,
		M4AFilename:    urls.M4AFilename,
	}
}

// ToRecordingsListResponse wraps a recording collection
func ToRecordingsListResponse(recs []*entities.Recording) RecordingsListResponse {
	if recs == nil {
		recs = []*entities.Recording{}
	}
	return RecordingsListResponse{Recordings: recs, Total: len(recs)}
}
