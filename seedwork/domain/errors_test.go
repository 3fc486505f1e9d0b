package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_HTTPStatus(t *testing.T) {
	cases := []struct {
		kind   ErrorKind
		status int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindInvalidTransition, http.StatusConflict},
		{KindInvalidOperation, http.StatusConflict},
		{KindAccessDenied, http.StatusForbidden},
		{KindInvalidChunk, http.StatusBadRequest},
		{KindStorageUnavailable, http.StatusServiceUnavailable},
		{KindQueueUnavailable, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		err := NewDomainError(tc.kind, "CODE", "message", nil)
		assert.Equal(t, tc.status, err.HTTPStatus(), "kind %s", tc.kind)
	}
}

func TestDomainError_WrapsCause(t *testing.T) {
	cause := errors.New("underlying")
	err := NewDomainError(KindStorageUnavailable, "STORAGE_UNAVAILABLE", "put failed", cause)

	assert.Equal(t, "put failed: underlying", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestAsDomainError(t *testing.T) {
	de := NewDomainError(KindNotFound, "ROOM_NOT_FOUND", "room not found", nil)
	wrapped := fmt.Errorf("loading room: %w", de)

	got, ok := AsDomainError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, got.Kind)

	_, ok = AsDomainError(errors.New("plain"))
	assert.False(t, ok)
}

func TestGenerateSecret(t *testing.T) {
	a := GenerateSecret(24)
	b := GenerateSecret(24)
	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
}
