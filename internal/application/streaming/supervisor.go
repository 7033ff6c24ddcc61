package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"framecast/internal/domain/media"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

const defaultFrameInterval = 33 * time.Millisecond

// Options tunes the streaming loop of every session.
type Options struct {
	// FrameInterval is the target spacing between frames.
	FrameInterval time.Duration
	// EndMarker writes an empty frame when a video plays to its end.
	EndMarker bool
}

// Supervisor runs one receiver and one streaming loop per viewer connection.
type Supervisor struct {
	catalog  Catalog
	decoder  Decoder
	encoder  Encoder
	registry *Registry
	opts     Options
	logger   hclog.Logger
}

// NewSupervisor wires sessions with their collaborators.
func NewSupervisor(catalog Catalog, decoder Decoder, encoder Encoder, registry *Registry, opts Options, logger hclog.Logger) *Supervisor {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrameInterval
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Supervisor{
		catalog:  catalog,
		decoder:  decoder,
		encoder:  encoder,
		registry: registry,
		opts:     opts,
		logger:   logger.Named("session"),
	}
}

// Registry returns the registry tracking this supervisor's sessions.
func (s *Supervisor) Registry() *Registry {
	return s.registry
}

// Serve runs a session on conn until the viewer disconnects or ctx is cancelled.
// It returns after both loops have finished, the frame source is released and conn is
// closed. A plain disconnect is not an error.
func (s *Supervisor) Serve(ctx context.Context, conn Conn) error {
	id := uuid.NewString()
	logger := s.logger.With("session_id", id, "remote", conn.RemoteAddr())
	state := NewState()

	s.registry.add(&session{
		id:         id,
		remoteAddr: conn.RemoteAddr(),
		startedAt:  time.Now(),
		state:      state,
		conn:       conn,
	})
	defer s.registry.remove(id)
	defer conn.Close()

	videos, err := s.catalog.List()
	if err != nil {
		logger.Warn("catalog unavailable, sending empty list", "error", err)
		videos = []media.Video{}
	}
	if err := conn.WriteCatalog(videos); err != nil {
		return fmt.Errorf("send catalog: %w", err)
	}
	logger.Info("session started", "videos", len(videos))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopWatch := context.AfterFunc(ctx, func() {
		state.Close()
		_ = conn.Close()
	})
	defer stopWatch()

	recv := &receiver{conn: conn, state: state, logger: logger.Named("control")}
	prod := &streamer{
		conn:      conn,
		state:     state,
		catalog:   s.catalog,
		decoder:   s.decoder,
		encoder:   s.encoder,
		interval:  s.opts.FrameInterval,
		endMarker: s.opts.EndMarker,
		logger:    logger.Named("stream"),
	}

	// A failed write closes conn, which also fails the pending read; the write error
	// is the one worth reporting.
	var streamErr error
	var g errgroup.Group
	g.Go(func() error {
		err := recv.run()
		state.Close()
		return err
	})
	g.Go(func() error {
		streamErr = prod.run(ctx)
		if streamErr != nil {
			state.Close()
			_ = conn.Close()
		}
		return streamErr
	})

	err = g.Wait()
	if streamErr != nil {
		err = streamErr
	}
	snap := state.Snapshot()
	if isDisconnect(err) {
		logger.Info("session ended", "frames", snap.FramesSent)
		return nil
	}
	logger.Warn("session ended with error", "frames", snap.FramesSent, "error", err)
	return err
}

func isDisconnect(err error) bool {
	return err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
