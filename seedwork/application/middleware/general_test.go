package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"maycast/server/seedwork/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newErrorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler())
	return router
}

func TestErrorHandler_DomainErrorStatusAndCode(t *testing.T) {
	router := newErrorRouter()
	router.GET("/conflict", func(c *gin.Context) {
		c.Error(domain.NewDomainError(domain.KindInvalidTransition, "INVALID_STATE_TRANSITION",
			"cannot stop an idle room", nil))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "cannot stop an idle room", body.Error)
	assert.Equal(t, "INVALID_STATE_TRANSITION", body.Code)
}

func TestErrorHandler_PlainErrorIsOpaque500(t *testing.T) {
	router := newErrorRouter()
	router.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("connection reset"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestErrorHandler_LeavesWrittenResponsesAlone(t *testing.T) {
	router := newErrorRouter()
	router.GET("/handled", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		c.Error(domain.NewDomainError(domain.KindNotFound, "ROOM_NOT_FOUND", "room not found", nil))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/handled", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
