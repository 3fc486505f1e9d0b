package middleware

import (
	"maycast/server/modules/room/application/services"
	"maycast/server/seedwork/application/httperr"

	"github.com/gin-gonic/gin"
)

// AccessKeyHeader is the header every key-guarded room endpoint requires
const AccessKeyHeader = "x-room-access-key"

// roomContextKey is where the authorized room is stashed for handlers
const roomContextKey = "room"

// RoomAccessMiddleware authorizes room-scoped requests by access key
type RoomAccessMiddleware struct {
	roomService *services.RoomService
}

// NewRoomAccessMiddleware creates a new room access middleware
func NewRoomAccessMiddleware(roomService *services.RoomService) *RoomAccessMiddleware {
	return &RoomAccessMiddleware{roomService: roomService}
}

// RequireAccessKey resolves the :id room and verifies the x-room-access-key
// header in constant time. The authorized room is placed in the request
// context for the handler.
func (m *RoomAccessMiddleware) RequireAccessKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("id")
		key := c.GetHeader(AccessKeyHeader)

		room, err := m.roomService.AuthorizeAccess(c.Request.Context(), roomID, key)
		if err != nil {
			httperr.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(roomContextKey, room)
		c.Next()
	}
}
