// Package transport wraps one TCP stream with the frame codec: buffered
// reads until a full frame arrives, full writes, half-close.
package transport

import (
	"errors"
	"io"
	"net"

	"github.com/guildd/guildd/internal/framing"
	"github.com/guildd/guildd/internal/wire"
)

// ErrConnectionClosed is returned when the peer closes the stream before
// a complete frame has been received.
var ErrConnectionClosed = errors.New("transport: connection closed mid-frame")

const readChunk = 4096

// Conn is one request/response stream. The design is one frame in each
// direction per connection; bytes past the first frame boundary are
// discarded.
type Conn struct {
	c   net.Conn
	buf []byte
}

func New(c net.Conn) *Conn {
	return &Conn{c: c}
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

// WriteValue encodes v as a frame and writes it out in full.
func (c *Conn) WriteValue(v any) error {
	frame, err := framing.EncodeValue(v)
	if err != nil {
		return err
	}
	for len(frame) > 0 {
		n, err := c.c.Write(frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}

// readFrame accumulates bytes until the codec yields a frame. The
// accumulated buffer is kept across short reads; a decode failure or a
// peer close mid-frame is fatal.
func (c *Conn) readFrame() ([]byte, error) {
	for {
		payload, consumed, err := framing.Decode(c.buf)
		if err != nil {
			return nil, err
		}
		if consumed > 0 {
			// One frame per connection; drop any excess.
			c.buf = nil
			return payload, nil
		}

		chunk := make([]byte, readChunk)
		n, err := c.c.Read(chunk)
		if n > 0 {
			c.buf = append(c.buf, chunk[:n]...)
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrConnectionClosed
			}
			return nil, err
		}
	}
}

// ReadRequest reads exactly one request frame.
func (c *Conn) ReadRequest() (*wire.Request, error) {
	payload, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	var req wire.Request
	if err := req.UnmarshalJSON(payload); err != nil {
		return nil, err
	}
	return &req, nil
}

// ReadResponse reads exactly one response frame.
func (c *Conn) ReadResponse() (wire.Response, error) {
	payload, err := c.readFrame()
	if err != nil {
		return nil, err
	}
	return wire.UnmarshalResponse(payload)
}

// Shutdown half-closes the write side when the underlying stream
// supports it.
func (c *Conn) Shutdown() error {
	if tc, ok := c.c.(*net.TCPConn); ok {
		return tc.CloseWrite()
	}
	return nil
}

func (c *Conn) Close() error { return c.c.Close() }
