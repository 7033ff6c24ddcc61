package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"framecast/internal/domain/control"
	"framecast/internal/domain/media"
)

type readResult struct {
	cmd control.Command
	err error
}

// fakeConn scripts the control channel and records the frame channel.
type fakeConn struct {
	reads     chan readResult
	closed    chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	catalog    []media.Video
	frames     []string
	markers    int
	failAfter  int
	writeCalls int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		reads:     make(chan readResult, 64),
		closed:    make(chan struct{}),
		failAfter: -1,
	}
}

func (c *fakeConn) send(cmd control.Command) {
	c.reads <- readResult{cmd: cmd}
}

func (c *fakeConn) start(video string) {
	c.send(control.Command{Action: control.ActionStart, Video: media.VideoID(video)})
}

func (c *fakeConn) disconnect() {
	c.reads <- readResult{err: io.EOF}
}

func (c *fakeConn) ReadCommand() (control.Command, error) {
	select {
	case r := <-c.reads:
		return r.cmd, r.err
	case <-c.closed:
		return control.Command{}, net.ErrClosed
	}
}

func (c *fakeConn) WriteCatalog(videos []media.Video) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = videos
	return nil
}

func (c *fakeConn) WriteFrame(payload []byte) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeCalls++
	if c.failAfter >= 0 && c.writeCalls > c.failAfter {
		return errors.New("connection reset by peer")
	}
	c.frames = append(c.frames, string(payload))
	return nil
}

func (c *fakeConn) WriteEndOfStream() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers++
	c.frames = append(c.frames, "")
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "pipe" }

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}

func (c *fakeConn) markerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.markers
}

func (c *fakeConn) count(prefix string) int {
	n := 0
	for _, f := range c.written() {
		if f != "" && strings.HasPrefix(f, prefix) {
			n++
		}
	}
	return n
}

// fakeDecoder hands out sources that emit "<path>#<seq>" and counts open handles.
type fakeDecoder struct {
	mu      sync.Mutex
	open    int
	maxOpen int
	opened  int
	closed  int

	lengths   map[string]int
	openDelay map[string]time.Duration
	failNext  map[string]error
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		lengths:   map[string]int{},
		openDelay: map[string]time.Duration{},
		failNext:  map[string]error{},
	}
}

func (d *fakeDecoder) Open(_ context.Context, path string) (FrameSource, error) {
	d.mu.Lock()
	delay := d.openDelay[path]
	d.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.open++
	d.opened++
	if d.open > d.maxOpen {
		d.maxOpen = d.open
	}
	return &fakeSource{dec: d, path: path, limit: d.lengths[path], failErr: d.failNext[path]}, nil
}

func (d *fakeDecoder) stats() (open, maxOpen, opened, closed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open, d.maxOpen, d.opened, d.closed
}

type fakeSource struct {
	dec     *fakeDecoder
	path    string
	seq     uint64
	limit   int
	failErr error
	closed  bool
}

func (s *fakeSource) Next() (media.Frame, error) {
	if s.closed {
		return media.Frame{}, errors.New("next on closed source")
	}
	if s.limit > 0 && int(s.seq) >= s.limit {
		if s.failErr != nil {
			return media.Frame{}, s.failErr
		}
		return media.Frame{}, io.EOF
	}
	s.seq++
	return media.Frame{Seq: s.seq, Width: 1, Height: 1, Pix: []byte(s.path)}, nil
}

func (s *fakeSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.dec.mu.Lock()
	s.dec.open--
	s.dec.closed++
	s.dec.mu.Unlock()
	return nil
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(frame media.Frame) ([]byte, error) {
	return []byte(fmt.Sprintf("%s#%d", frame.Pix, frame.Seq)), nil
}

// failingEncoder rejects every frame up to and including failUpTo.
type failingEncoder struct {
	failUpTo uint64
}

func (e failingEncoder) Encode(frame media.Frame) ([]byte, error) {
	if frame.Seq <= e.failUpTo {
		return nil, fmt.Errorf("encode frame %d: corrupt image", frame.Seq)
	}
	return fakeEncoder{}.Encode(frame)
}

// fakeCatalog maps ids straight to paths.
type fakeCatalog struct {
	paths map[media.VideoID]string
	err   error
}

func (c *fakeCatalog) List() ([]media.Video, error) {
	if c.err != nil {
		return nil, c.err
	}
	videos := make([]media.Video, 0, len(c.paths))
	for id, p := range c.paths {
		videos = append(videos, media.Video{ID: id, Name: p, Path: p})
	}
	return videos, nil
}

func (c *fakeCatalog) Resolve(id media.VideoID) (string, error) {
	p, ok := c.paths[id]
	if !ok {
		return "", fmt.Errorf("unknown video %q", id)
	}
	return p, nil
}
