package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Options tune a connection. Zero timeouts disable the deadline.
type Options struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Conn is a newline-delimited text stream over a single socket.
// ReadLine is meant for one reader goroutine; WriteLine may be called
// from any goroutine.
type Conn struct {
	conn net.Conn
	opts Options

	reader *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens a TCP stream to address. Failures come back as *ConnectionError.
func Dial(ctx context.Context, address string, opts Options) (*Conn, error) {
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectionError{Address: address, Err: err}
	}
	return New(conn, opts), nil
}

// New wraps an established stream.
func New(conn net.Conn, opts Options) *Conn {
	return &Conn{
		conn:   conn,
		opts:   opts,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
		closed: make(chan struct{}),
	}
}

// RemoteAddr reports the peer address.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// ReadLine blocks until a full line has arrived and returns it without its
// terminator. A trailing partial line at EOF is reported as ErrTruncatedLine.
func (c *Conn) ReadLine() (string, error) {
	if c.opts.ReadTimeout > 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
			return "", c.readErr(err)
		}
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line != "" {
				return "", ErrTruncatedLine
			}
			return "", ErrEndOfStream
		}
		return "", c.readErr(err)
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// WriteLine sends text followed by a newline and flushes it at once.
func (c *Conn) WriteLine(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closed:
		return &WriteError{Err: ErrClosed}
	default:
	}

	if c.opts.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return &WriteError{Err: err}
		}
	}

	if _, err := c.writer.WriteString(text); err != nil {
		return &WriteError{Err: err}
	}
	if err := c.writer.WriteByte('\n'); err != nil {
		return &WriteError{Err: err}
	}
	if err := c.writer.Flush(); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// Close shuts the socket down, unblocking any pending ReadLine. Safe to call twice.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) readErr(err error) error {
	select {
	case <-c.closed:
		return &ReadError{Err: ErrClosed}
	default:
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return &ReadError{Err: ErrClosed}
	}
	return &ReadError{Err: err}
}
