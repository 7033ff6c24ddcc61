package tcp

import (
	"net"
	"sync"
	"time"

	"framecast/internal/domain/control"
	"framecast/internal/domain/media"
	"framecast/internal/transport/wire"
)

// Conn adapts a raw stream connection to a streaming session.
type Conn struct {
	conn         net.Conn
	control      *wire.ControlReader
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// NewConn wraps conn. Control messages longer than maxControl bytes are dropped;
// writes that stall longer than writeTimeout fail.
func NewConn(conn net.Conn, maxControl int, writeTimeout time.Duration) *Conn {
	return &Conn{
		conn:         conn,
		control:      wire.NewControlReader(conn, maxControl),
		writeTimeout: writeTimeout,
	}
}

// ReadCommand reads the next control message.
func (c *Conn) ReadCommand() (control.Command, error) {
	return c.control.Next()
}

// WriteCatalog sends the catalog as the first frame of the session.
func (c *Conn) WriteCatalog(videos []media.Video) error {
	payload, err := wire.EncodeCatalog(videos)
	if err != nil {
		return err
	}
	return c.WriteFrame(payload)
}

// WriteFrame sends one length-prefixed payload.
func (c *Conn) WriteFrame(payload []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return wire.WriteFrame(c.conn, payload)
}

// WriteEndOfStream sends the zero-length end marker.
func (c *Conn) WriteEndOfStream() error {
	return c.WriteFrame(nil)
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the underlying connection once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
