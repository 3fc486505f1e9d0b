package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"maycast/server/modules/recording/application/services"
	"maycast/server/modules/recording/domain/entities"
	"maycast/server/modules/recording/interfaces/http/dtos"
	"maycast/server/seedwork/application/httperr"

	"github.com/gin-gonic/gin"
)

// maxSegmentBytes bounds a single proxied segment body
const maxSegmentBytes = 256 << 20

// RecordingHandlers contains all recording-related HTTP handlers
type RecordingHandlers struct {
	recordingService *services.RecordingService
}

// NewRecordingHandlers creates a new recording handlers instance
func NewRecordingHandlers(recordingService *services.RecordingService) *RecordingHandlers {
	return &RecordingHandlers{recordingService: recordingService}
}

// CreateRecording creates a recording, optionally bound to a room
// @Summary Create a recording
// @Tags recordings
// @Accept json
// @Produce json
// @Param roomId query string false "Room to bind the recording into"
// @Success 201 {object} dtos.CreateRecordingResponse
// @Router /recordings [post]
func (h *RecordingHandlers) CreateRecording(c *gin.Context) {
	roomID := c.Query("roomId")

	var metadata *entities.RecordingMetadata
	if c.Request.ContentLength > 0 {
		metadata = &entities.RecordingMetadata{}
		if err := c.ShouldBindJSON(metadata); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	rec, err := h.recordingService.Create(c.Request.Context(), roomID, metadata)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.ToCreateRecordingResponse(rec))
}

// GetRecording returns a recording by id
// @Summary Get a recording
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} entities.Recording
// @Failure 404 {object} map[string]string
// @Router /recordings/{id} [get]
func (h *RecordingHandlers) GetRecording(c *gin.Context) {
	rec, err := h.recordingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateState applies a recording state transition
// @Summary Transition recording state
// @Tags recordings
// @Accept json
// @Produce json
// @Param id path string true "Recording ID"
// @Param body body dtos.UpdateStateRequest true "Target state"
// @Success 200 {object} entities.Recording
// @Failure 409 {object} map[string]string
// @Router /recordings/{id}/state [patch]
func (h *RecordingHandlers) UpdateState(c *gin.Context) {
	var req dtos.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.recordingService.UpdateState(c.Request.Context(), c.Param("id"), entities.RecordingState(req.State))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UpdateMetadata replaces the recording metadata blob
// @Summary Update recording metadata
// @Tags recordings
// @Accept json
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} entities.Recording
// @Failure 409 {object} map[string]string
// @Router /recordings/{id}/metadata [patch]
func (h *RecordingHandlers) UpdateMetadata(c *gin.Context) {
	var metadata entities.RecordingMetadata
	if err := c.ShouldBindJSON(&metadata); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.recordingService.UpdateMetadata(c.Request.Context(), c.Param("id"), &metadata)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// UploadInitSegment receives the init segment over the proxy path
// @Summary Upload init segment
// @Tags recordings
// @Accept octet-stream
// @Param id path string true "Recording ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /recordings/{id}/init-segment [post]
func (h *RecordingHandlers) UploadInitSegment(c *gin.Context) {
	data, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.recordingService.SaveInitSegment(c.Request.Context(), c.Param("id"), data); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

// UploadChunk receives one media segment over the proxy path. The optional
// X-Chunk-Hash header is accepted but not read; only the body bytes are stored.
// @Summary Upload a chunk
// @Tags recordings
// @Accept octet-stream
// @Param id path string true "Recording ID"
// @Param chunk_id query int true "Chunk index"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /recordings/{id}/chunks [post]
func (h *RecordingHandlers) UploadChunk(c *gin.Context) {
	chunkID, err := strconv.Atoi(c.Query("chunk_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chunk_id must be an integer"})
		return
	}

	data, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.recordingService.SaveChunk(c.Request.Context(), c.Param("id"), chunkID, data); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

// GetInitSegmentUploadURL issues an upload location for the init segment
// @Summary Get init segment upload URL
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} dtos.UploadTargetResponse
// @Router /recordings/{id}/upload-url/init-segment [get]
func (h *RecordingHandlers) GetInitSegmentUploadURL(c *gin.Context) {
	target, err := h.recordingService.UploadTargetFor(c.Request.Context(), c.Param("id"), "init-segment", 0)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToUploadTargetResponse(target))
}

// GetChunkUploadURL issues an upload location for one chunk
// @Summary Get chunk upload URL
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Param chunk_id query int true "Chunk index"
// @Success 200 {object} dtos.UploadTargetResponse
// @Router /recordings/{id}/upload-url/chunk [get]
func (h *RecordingHandlers) GetChunkUploadURL(c *gin.Context) {
	chunkID, err := strconv.Atoi(c.Query("chunk_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chunk_id must be an integer"})
		return
	}

	target, err := h.recordingService.UploadTargetFor(c.Request.Context(), c.Param("id"), "chunk", chunkID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToUploadTargetResponse(target))
}

// ConfirmUpload acknowledges a direct upload and advances the chunk counter
// @Summary Confirm a direct upload
// @Tags recordings
// @Accept json
// @Param id path string true "Recording ID"
// @Param body body dtos.ConfirmUploadRequest true "Upload confirmation"
// @Success 200 {object} map[string]string
// @Router /recordings/{id}/upload-confirm [post]
func (h *RecordingHandlers) ConfirmUpload(c *gin.Context) {
	var req dtos.ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chunkID := 0
	if req.ChunkID != nil {
		chunkID = *req.ChunkID
	} else if req.Type == "chunk" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chunkId is required for chunk confirmations"})
		return
	}

	if err := h.recordingService.ConfirmUpload(c.Request.Context(), c.Param("id"), req.Type, chunkID, req.Size); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// GetDownloadURLs describes how to fetch the assembled recording
// @Summary Get download URLs
// @Tags recordings
// @Produce json
// @Param id path string true "Recording ID"
// @Success 200 {object} dtos.DownloadURLsResponse
// @Router /recordings/{id}/download-urls [get]
func (h *RecordingHandlers) GetDownloadURLs(c *gin.Context) {
	rec, urls, err := h.recordingService.DownloadURLs(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	if urls == nil {
		c.JSON(http.StatusOK, dtos.DownloadURLsResponse{
			DirectDownload: false,
			Filename:       rec.Filename(),
			DownloadURL:    fmt.Sprintf("/api/recordings/%s/download", rec.GetID()),
		})
		return
	}
	c.JSON(http.StatusOK, dtos.ToDownloadURLsResponse(urls))
}

// Download streams the assembled MP4 when direct download is not available
// @Summary Download the assembled recording
// @Tags recordings
// @Produce octet-stream
// @Param id path string true "Recording ID"
// @Success 200
// @Failure 404 {object} map[string]string
// @Router /recordings/{id}/download [get]
func (h *RecordingHandlers) Download(c *gin.Context) {
	rec, err := h.recordingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.Header("Content-Type", "video/mp4")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename()))

	if _, err := h.recordingService.StreamTo(c.Request.Context(), rec.GetID(), c.Writer); err != nil {
		// Headers may already be out; only respond with JSON when nothing
		// was written yet.
		if !c.Writer.Written() {
			httperr.Respond(c, err)
		}
		return
	}
}

// readBody reads a raw segment body with a size cap
func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(io.LimitReader(c.Request.Body, maxSegmentBytes))
}
