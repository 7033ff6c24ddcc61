package streaming

import (
	"context"

	"framecast/internal/domain/control"
	"framecast/internal/domain/media"
)

// Catalog is an application port for listing titles and resolving ids to files.
type Catalog interface {
	List() ([]media.Video, error)
	Resolve(id media.VideoID) (string, error)
}

// FrameSource is a sequential decoder over one video.
// Next returns io.EOF once the video is exhausted.
type FrameSource interface {
	Next() (media.Frame, error)
	Close() error
}

// Decoder opens frame sources for resolved library paths.
type Decoder interface {
	Open(ctx context.Context, path string) (FrameSource, error)
}

// Encoder compresses a decoded frame into the payload sent to the viewer.
type Encoder interface {
	Encode(frame media.Frame) ([]byte, error)
}

// Conn is one viewer connection carrying both channels.
//
// ReadCommand is only called by the control receiver. WriteCatalog, WriteFrame and
// WriteEndOfStream are only called by the supervisor before the loops start and by the
// streaming loop afterwards. Close may be called from any goroutine, more than once.
// ReadCommand errors wrapping control.ErrMalformed are recoverable.
type Conn interface {
	ReadCommand() (control.Command, error)
	WriteCatalog(videos []media.Video) error
	WriteFrame(payload []byte) error
	WriteEndOfStream() error
	RemoteAddr() string
	Close() error
}
