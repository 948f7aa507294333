package core

import (
	"errors"

	"github.com/vovakirdan/chatter/internal/transport/tcp"
)

// Error codes describing why a session ended.
const (
	ErrCodeEndOfStream     = "end_of_stream"
	ErrCodeReadFailed      = "read_failed"
	ErrCodeWriteFailed     = "write_failed"
	ErrCodeConnectFailed   = "connect_failed"
	ErrCodePromptCancelled = "prompt_cancelled"
	ErrCodeClientExit      = "client_exit"
)

var (
	ErrSessionEnded    = errors.New("session ended")
	ErrNameNotAccepted = errors.New("screen name not accepted yet")
	ErrPromptCancelled = errors.New("prompt cancelled")
)

// CoreError wraps a code, a human-readable message and the underlying cause.
type CoreError struct {
	Code    string
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *CoreError {
	return &CoreError{Code: code, Message: msg, Err: err}
}

// ConnectFailed reports a stream that could not be established.
func ConnectFailed(err error) *CoreError {
	return coreError(ErrCodeConnectFailed, "could not connect", err)
}

// Code extracts the code of a CoreError anywhere in err's chain.
func Code(err error) string {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsCleanEnd reports whether a session ended without a fault.
func IsCleanEnd(err error) bool {
	switch Code(err) {
	case ErrCodeEndOfStream, ErrCodeClientExit:
		return true
	}
	return err == nil
}

func readFailure(err error) *CoreError {
	switch {
	case errors.Is(err, tcp.ErrEndOfStream):
		return coreError(ErrCodeEndOfStream, "server closed the connection", nil)
	case errors.Is(err, tcp.ErrClosed):
		return coreError(ErrCodeClientExit, "connection closed", nil)
	default:
		return coreError(ErrCodeReadFailed, "connection lost", err)
	}
}

func writeFailure(err error) *CoreError {
	return coreError(ErrCodeWriteFailed, "could not send to server", err)
}
