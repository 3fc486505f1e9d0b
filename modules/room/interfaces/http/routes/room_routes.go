package routes

import (
	"maycast/server/modules/room/interfaces/http/handlers"
	"maycast/server/modules/room/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// RoomRoutes sets up all room-related routes
type RoomRoutes struct {
	roomHandlers     *handlers.RoomHandlers
	accessMiddleware *middleware.RoomAccessMiddleware
}

// NewRoomRoutes creates a new room routes instance
func NewRoomRoutes(roomHandlers *handlers.RoomHandlers, accessMiddleware *middleware.RoomAccessMiddleware) *RoomRoutes {
	return &RoomRoutes{
		roomHandlers:     roomHandlers,
		accessMiddleware: accessMiddleware,
	}
}

// Setup registers the room endpoints. Creation, listing and token resolution
// are open; everything addressed by room id requires the access key.
func (rr *RoomRoutes) Setup(api *gin.RouterGroup) {
	rooms := api.Group("/rooms")
	{
		rooms.POST("", rr.roomHandlers.CreateRoom)
		rooms.GET("", rr.roomHandlers.ListRooms)
		rooms.GET("/by-token/:token", rr.roomHandlers.GetRoomByToken)

		guarded := rooms.Group("/:id")
		guarded.Use(rr.accessMiddleware.RequireAccessKey())
		{
			guarded.GET("", rr.roomHandlers.GetRoom)
			guarded.PATCH("/state", rr.roomHandlers.UpdateRoomState)
			guarded.DELETE("", rr.roomHandlers.DeleteRoom)
			guarded.GET("/recordings", rr.roomHandlers.ListRoomRecordings)
			guarded.GET("/processing-status", rr.roomHandlers.GetProcessingStatus)
			guarded.GET("/subtitles", rr.roomHandlers.GetMergedSubtitles)
		}
	}
}
