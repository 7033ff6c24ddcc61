package http

import (
	"fmt"
	"io"
	"sync"
	"time"

	"framecast/internal/domain/control"
	"framecast/internal/domain/media"
	"framecast/internal/transport/wire"
	"github.com/gorilla/websocket"
)

// wsConn adapts a WebSocket to a streaming session. Control commands arrive as
// messages holding one JSON object; the catalog goes out as a text message and each
// frame as a binary message. An empty binary message marks the end of a video.
type wsConn struct {
	ws           *websocket.Conn
	remoteAddr   string
	maxControl   int
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn, remoteAddr string, maxControl int, writeTimeout time.Duration) *wsConn {
	if maxControl <= 0 {
		maxControl = wire.DefaultMaxControlBytes
	}
	return &wsConn{ws: ws, remoteAddr: remoteAddr, maxControl: maxControl, writeTimeout: writeTimeout}
}

// ReadCommand returns the next control command. A close handshake from the peer reads
// as io.EOF. Messages over the control limit are drained and reported as malformed.
func (c *wsConn) ReadCommand() (control.Command, error) {
	for {
		_, r, err := c.ws.NextReader()
		if err != nil {
			return control.Command{}, readError(err)
		}

		data, err := io.ReadAll(io.LimitReader(r, int64(c.maxControl)+1))
		if err != nil {
			return control.Command{}, readError(err)
		}
		if len(data) > c.maxControl {
			if _, err := io.Copy(io.Discard, r); err != nil {
				return control.Command{}, readError(err)
			}
			return control.Command{}, fmt.Errorf("%w: message exceeds %d bytes", control.ErrMalformed, c.maxControl)
		}
		if len(data) == 0 {
			continue
		}
		return control.Parse(data)
	}
}

func readError(err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return io.EOF
	}
	return err
}

func (c *wsConn) WriteCatalog(videos []media.Video) error {
	payload, err := wire.EncodeCatalog(videos)
	if err != nil {
		return err
	}
	return c.write(websocket.TextMessage, payload)
}

func (c *wsConn) WriteFrame(payload []byte) error {
	return c.write(websocket.BinaryMessage, payload)
}

func (c *wsConn) WriteEndOfStream() error {
	return c.write(websocket.BinaryMessage, []byte{})
}

func (c *wsConn) RemoteAddr() string {
	return c.remoteAddr
}

// Close sends a best-effort close frame and drops the connection.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

func (c *wsConn) write(messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteMessage(messageType, payload)
}
