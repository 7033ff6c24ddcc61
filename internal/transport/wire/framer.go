// Package wire implements the byte-stream protocol of a viewer connection:
// newline-delimited JSON control messages from the viewer and length-prefixed
// frames back to it.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
)

// HeaderSize is the length of the big-endian frame length prefix.
const HeaderSize = 4

// ErrFrameTooLarge is returned for payloads that do not fit the length prefix or
// exceed a reader's limit.
var ErrFrameTooLarge = errors.New("frame too large")

// WriteFrame writes one length-prefixed frame. An empty payload writes a bare
// zero-length header, which marks the end of a video.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	bufs := net.Buffers{header[:]}
	if len(payload) > 0 {
		bufs = append(bufs, payload)
	}
	_, err := bufs.WriteTo(w)
	return err
}

// ReadFrame reads one length-prefixed frame. limit bounds the accepted payload size;
// zero means no bound. A stream that ends inside a frame yields io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if limit > 0 && size > limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, size, limit)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}
