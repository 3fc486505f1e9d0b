package httperr

import (
	"net/http"

	"maycast/server/seedwork/domain"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Respond translates an error into the boundary JSON shape. Domain errors
// carry their own status and code; anything else is an opaque 500.
func Respond(c *gin.Context, err error) {
	if de, ok := domain.AsDomainError(err); ok {
		c.JSON(de.HTTPStatus(), gin.H{"error": de.Message, "code": de.Code})
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
