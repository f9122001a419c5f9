package core

import "errors"

// Error codes for client-visible errors.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeNotInRoom      = "not_in_room"
	ErrCodeRateLimited    = "rate_limited"
)

var (
	// ErrUnknownConnection means a handle outlived its registration.
	ErrUnknownConnection = errors.New("unknown connection")
	// ErrAlreadyInRoom means a connection was joined while still a member elsewhere.
	ErrAlreadyInRoom = errors.New("connection already in a room")
	// ErrNotInRoom is returned for room-scoped commands from an unbound client.
	ErrNotInRoom = errors.New("not in room")
	// ErrBadSignal is returned for signal kinds clients may not submit.
	ErrBadSignal = errors.New("signal kind not accepted from clients")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
