// Package transport owns the gateway byte stream: dialing with retry, whole
// frame writes under a deadline, and the buffered read side.
package transport

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"
)

var ErrClosed = errors.New("transport: connection closed")

// Conn is one plaintext gateway connection. Writes are not serialized here;
// callers hold the session lock around Write.
type Conn struct {
	raw          net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration
	open         atomic.Bool
}

// Wrap takes ownership of raw.
func Wrap(raw net.Conn, writeTimeout time.Duration) *Conn {
	c := &Conn{
		raw:          raw,
		reader:       bufio.NewReader(raw),
		writeTimeout: writeTimeout,
	}
	c.open.Store(true)
	return c
}

// Write sends frame in full or returns an error.
func (c *Conn) Write(frame []byte) error {
	if !c.open.Load() {
		return ErrClosed
	}
	if c.writeTimeout > 0 {
		if err := c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	for len(frame) > 0 {
		n, err := c.raw.Write(frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}

func (c *Conn) IsOpen() bool {
	return c.open.Load()
}

// Close is idempotent.
func (c *Conn) Close() error {
	if !c.open.CompareAndSwap(true, false) {
		return nil
	}
	return c.raw.Close()
}

// Reader is the buffered inbound stream. Only one goroutine may read.
func (c *Conn) Reader() io.Reader {
	return c.reader
}

// Handshake returns a read/write view bounded by timeout for the
// connection preamble. Call the returned func to clear the deadline.
func (c *Conn) Handshake(timeout time.Duration) (io.ReadWriter, func()) {
	if timeout > 0 {
		_ = c.raw.SetDeadline(time.Now().Add(timeout))
	}
	rw := struct {
		io.Reader
		io.Writer
	}{c.reader, c.raw}
	return rw, func() { _ = c.raw.SetDeadline(time.Time{}) }
}

func (c *Conn) RemoteAddr() string {
	if addr := c.raw.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
