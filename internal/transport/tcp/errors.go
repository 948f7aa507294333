package tcp

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrEndOfStream reports that the peer closed the stream on a line boundary.
	ErrEndOfStream = errors.New("end of stream")
	// ErrTruncatedLine reports that the stream ended in the middle of a line.
	ErrTruncatedLine = fmt.Errorf("stream ended mid-line: %w", io.ErrUnexpectedEOF)
	// ErrClosed is returned by operations on a connection closed locally.
	ErrClosed = errors.New("connection closed")
)

// ConnectionError means the stream could not be established.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ReadError wraps an I/O fault while waiting for a line.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "read line: " + e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps an I/O fault while sending a line.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return "write line: " + e.Err.Error() }

func (e *WriteError) Unwrap() error { return e.Err }
