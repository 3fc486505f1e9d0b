package handlers

import (
	"net/http"

	ppServices "maycast/server/modules/postproduction/application/services"
	recordingServices "maycast/server/modules/recording/application/services"
	recordingDtos "maycast/server/modules/recording/interfaces/http/dtos"
	"maycast/server/modules/room/application/services"
	"maycast/server/modules/room/domain/entities"
	"maycast/server/modules/room/interfaces/http/dtos"
	"maycast/server/seedwork/application/httperr"

	"github.com/gin-gonic/gin"
)

// RoomHandlers contains all room-related HTTP handlers
type RoomHandlers struct {
	roomService      *services.RoomService
	recordingService *recordingServices.RecordingService
	subtitleService  *ppServices.SubtitleService
}

// NewRoomHandlers creates a new room handlers instance
func NewRoomHandlers(roomService *services.RoomService, recordingService *recordingServices.RecordingService, subtitleService *ppServices.SubtitleService) *RoomHandlers {
	return &RoomHandlers{
		roomService:      roomService,
		recordingService: recordingService,
		subtitleService:  subtitleService,
	}
}

// CreateRoom creates a new room
// @Summary Create a new room
// @Description Create a room and return its access credentials
// @Tags rooms
// @Produce json
// @Success 201 {object} dtos.CreatedRoomResponse
// @Router /rooms [post]
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	room, err := h.roomService.CreateRoom(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.ToCreatedRoomResponse(room))
}

// ListRooms returns all rooms
// @Summary List rooms
// @Tags rooms
// @Produce json
// @Success 200 {object} dtos.RoomsListResponse
// @Router /rooms [get]
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToRoomsListResponse(rooms))
}

// GetRoom returns the room resolved by the access-key middleware
// @Summary Get a room by ID
// @Tags rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} dtos.RoomResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /rooms/{id} [get]
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room := mustRoom(c)
	if room == nil {
		return
	}
	ids, err := h.roomService.ListRecordingIDs(c.Request.Context(), room.GetID())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToRoomResponse(room, ids))
}

// GetRoomByToken returns a room resolved by its read-only director token
// @Summary Get a room by access token
// @Tags rooms
// @Produce json
// @Param token path string true "Access token"
// @Success 200 {object} dtos.RoomResponse
// @Failure 404 {object} map[string]string
// @Router /rooms/by-token/{token} [get]
func (h *RoomHandlers) GetRoomByToken(c *gin.Context) {
	room, err := h.roomService.GetRoomByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	ids, err := h.roomService.ListRecordingIDs(c.Request.Context(), room.GetID())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToRoomResponse(room, ids))
}

// UpdateRoomState applies a director command to the room state machine
// @Summary Transition room state
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param body body dtos.RoomStateRequest true "Director command"
// @Success 200 {object} dtos.RoomResponse
// @Failure 409 {object} map[string]string
// @Router /rooms/{id}/state [patch]
func (h *RoomHandlers) UpdateRoomState(c *gin.Context) {
	room := mustRoom(c)
	if room == nil {
		return
	}

	var req dtos.RoomStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.roomService.ExecuteCommand(c.Request.Context(), room.GetID(), entities.RoomCommand(req.Command))
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	ids, err := h.roomService.ListRecordingIDs(c.Request.Context(), updated.GetID())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToRoomResponse(updated, ids))
}

// DeleteRoom removes a room
// @Summary Delete a room
// @Tags rooms
// @Param id path string true "Room ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /rooms/{id} [delete]
func (h *RoomHandlers) DeleteRoom(c *gin.Context) {
	room := mustRoom(c)
	if room == nil {
		return
	}
	if err := h.roomService.DeleteRoom(c.Request.Context(), room.GetID()); err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListRoomRecordings returns the recordings linked into a room
// @Summary List a room's recordings
// @Tags rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} recordingDtos.RecordingsListResponse
// @Router /rooms/{id}/recordings [get]
func (h *RoomHandlers) ListRoomRecordings(c *gin.Context) {
	room := mustRoom(c)
	if room == nil {
		return
	}
	recordings, err := h.recordingService.ListByRoom(c.Request.Context(), room.GetID())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, recordingDtos.ToRecordingsListResponse(recordings))
}

// GetProcessingStatus reports per-recording post-production state for a room
// @Summary Get a room's post-production status
// @Tags rooms
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} map[string]interface{}
// @Router /rooms/{id}/processing-status [get]
func (h *RoomHandlers) GetProcessingStatus(c *gin.Context) {
	room := mustRoom(c)
	if room == nil {
		return
	}
	recordings, err := h.recordingService.ListByRoom(c.Request.Context(), room.GetID())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	statuses := make([]gin.H, 0, len(recordings))
	for _, rec := range recordings {
		statuses = append(statuses, gin.H{
			"recordingId":        rec.GetID(),
			"processingState":    rec.ProcessingState,
			"processingError":    rec.ProcessingError,
			"transcriptionState": rec.TranscriptionState,
			"transcriptionError": rec.TranscriptionError,
			"outputMp4Key":       rec.OutputMP4Key,
			"outputM4aKey":       rec.OutputM4AKey,
			"outputVttKey":       rec.OutputVTTKey,
		})
	}
	c.JSON(http.StatusOK, gin.H{"roomId": room.GetID(), "recordings": statuses})
}

// GetMergedSubtitles returns the room's combined subtitle track
// @Summary Get merged room subtitles
// @Tags rooms
// @Produce plain
// @Param id path string true "Room ID"
// @Success 200 {string} string "WebVTT document"
// @Failure 404 {object} map[string]string
// @Router /rooms/{id}/subtitles [get]
func (h *RoomHandlers) GetMergedSubtitles(c *gin.Context) {
	room := mustRoom(c)
	if room == nil {
		return
	}
	vtt, err := h.subtitleService.MergedForRoom(c.Request.Context(), room.GetID())
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+room.GetID()+`.vtt"`)
	c.Data(http.StatusOK, "text/vtt; charset=utf-8", []byte(vtt))
}

// mustRoom fetches the room placed in context by the access-key middleware
func mustRoom(c *gin.Context) *entities.Room {
	value, exists := c.Get("room")
	if !exists {
		c.JSON(http.StatusForbidden, gin.H{"error": "room not authorized"})
		return nil
	}
	room, ok := value.(*entities.Room)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid room context"})
		return nil
	}
	return room
}
