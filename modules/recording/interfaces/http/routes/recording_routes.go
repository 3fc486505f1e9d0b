package routes

import (
	"maycast/server/modules/recording/interfaces/http/handlers"

	"github.com/gin-gonic/gin"
)

// RecordingRoutes sets up all recording-related routes
type RecordingRoutes struct {
	recordingHandlers *handlers.RecordingHandlers
}

// NewRecordingRoutes creates a new recording routes instance
func NewRecordingRoutes(recordingHandlers *handlers.RecordingHandlers) *RecordingRoutes {
	return &RecordingRoutes{recordingHandlers: recordingHandlers}
}

// Setup registers the recording endpoints
func (rr *RecordingRoutes) Setup(api *gin.RouterGroup) {
	recordings := api.Group("/recordings")
	{
		recordings.POST("", rr.recordingHandlers.CreateRecording)
		recordings.GET("/:id", rr.recordingHandlers.GetRecording)
		recordings.PATCH("/:id/state", rr.recordingHandlers.UpdateState)
		recordings.PATCH("/:id/metadata", rr.recordingHandlers.UpdateMetadata)
		recordings.POST("/:id/init-segment", rr.recordingHandlers.UploadInitSegment)
		recordings.POST("/:id/chunks", rr.recordingHandlers.UploadChunk)
		recordings.GET("/:id/upload-url/init-segment", rr.recordingHandlers.GetInitSegmentUploadURL)
		recordings.GET("/:id/upload-url/chunk", rr.recordingHandlers.GetChunkUploadURL)
		recordings.POST("/:id/upload-confirm", rr.recordingHandlers.ConfirmUpload)
		recordings.GET("/:id/download-urls", rr.recordingHandlers.GetDownloadURLs)
		recordings.GET("/:id/download", rr.recordingHandlers.Download)
	}
}
