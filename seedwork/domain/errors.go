package domain

import (
	"errors"
	"net/http"
)

// ErrorKind classifies domain errors so boundary adapters can translate them
// to transport status codes without inspecting message text.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindInvalidTransition  ErrorKind = "invalid_state_transition"
	KindInvalidOperation   ErrorKind = "invalid_operation"
	KindAccessDenied       ErrorKind = "access_denied"
	KindInvalidChunk       ErrorKind = "invalid_chunk"
	KindStorageUnavailable ErrorKind = "storage_unavailable"
	KindQueueUnavailable   ErrorKind = "queue_unavailable"
	KindInternal           ErrorKind = "internal"
)

// DomainError is the typed error carried across module boundaries
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message, Err: err}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps an error kind to its HTTP status code
func (e *DomainError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindInvalidOperation:
		return http.StatusConflict
	case KindAccessDenied:
		return http.StatusForbidden
	case KindInvalidChunk:
		return http.StatusBadRequest
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case KindQueueUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// AsDomainError unwraps err into a *DomainError if it is one
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
