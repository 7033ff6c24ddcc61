package wire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"framecast/internal/domain/control"
)

// DefaultMaxControlBytes bounds a single control message.
const DefaultMaxControlBytes = 64 * 1024

// ControlReader splits the viewer's byte stream into control commands.
type ControlReader struct {
	r     *bufio.Reader
	limit int
}

// NewControlReader reads newline-delimited commands of at most limit bytes each.
func NewControlReader(r io.Reader, limit int) *ControlReader {
	if limit <= 0 {
		limit = DefaultMaxControlBytes
	}
	// bufio needs room for the delimiter too.
	return &ControlReader{r: bufio.NewReaderSize(r, limit+1), limit: limit}
}

// Next returns the next command. Errors wrapping control.ErrMalformed describe a
// single bad message; the reader stays usable after them. Any other error is final,
// including io.ErrUnexpectedEOF for a stream cut inside a message.
func (c *ControlReader) Next() (control.Command, error) {
	for {
		line, err := c.r.ReadSlice('\n')
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			if err := c.discardLine(); err != nil {
				return control.Command{}, err
			}
			return control.Command{}, fmt.Errorf("%w: message exceeds %d bytes", control.ErrMalformed, c.limit)
		case errors.Is(err, io.EOF):
			if len(bytes.TrimSpace(line)) > 0 {
				return control.Command{}, io.ErrUnexpectedEOF
			}
			return control.Command{}, io.EOF
		case err != nil:
			return control.Command{}, err
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		return control.Parse(line)
	}
}

func (c *ControlReader) discardLine() error {
	for {
		_, err := c.r.ReadSlice('\n')
		if err == nil {
			return nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
}

// WriteControl writes one command followed by the delimiter.
func WriteControl(w io.Writer, cmd control.Command) error {
	data, err := control.Encode(cmd)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
