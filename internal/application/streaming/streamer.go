package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"framecast/internal/domain/media"
	"github.com/hashicorp/go-hclog"
)

// streamer is the producer side of a session. It owns the open frame source; nothing
// else touches it.
type streamer struct {
	conn      Conn
	state     *State
	catalog   Catalog
	decoder   Decoder
	encoder   Encoder
	interval  time.Duration
	endMarker bool
	logger    hclog.Logger

	source FrameSource
}

// run serves one generation at a time until the state closes or a write fails.
// A non-nil error means the viewer is gone.
func (s *streamer) run(ctx context.Context) error {
	defer s.closeSource()

	var served uint64
	for {
		video, gen, ok := s.state.awaitVideo(served)
		if !ok {
			return nil
		}
		served = gen

		if err := s.play(ctx, video, gen); err != nil {
			return err
		}
	}
}

func (s *streamer) play(ctx context.Context, video media.VideoID, gen uint64) error {
	logger := s.logger.With("video", video, "generation", gen)

	path, err := s.catalog.Resolve(video)
	if err != nil {
		logger.Warn("cannot resolve video", "error", err)
		s.state.finish(gen)
		return nil
	}
	if err := s.open(ctx, path); err != nil {
		logger.Warn("cannot open video", "path", path, "error", err)
		s.state.finish(gen)
		return nil
	}
	defer s.closeSource()

	logger.Info("streaming started", "path", path)
	var sent uint64
	for {
		if !s.state.awaitFrame(gen) {
			logger.Info("streaming abandoned", "frames", sent)
			return nil
		}
		started := time.Now()

		frame, err := s.source.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("end of stream", "frames", sent)
			} else {
				logger.Error("frame source failed", "frames", sent, "error", err)
			}
			s.closeSource()
			return s.end(gen)
		}

		payload, err := s.encoder.Encode(frame)
		if err != nil {
			logger.Warn("skipping frame that failed to encode", "seq", frame.Seq, "error", err)
			s.pace(started)
			continue
		}

		// The frame is in hand; a pause, stop or switch that arrived meanwhile still
		// applies before it reaches the wire.
		if !s.state.awaitFrame(gen) {
			logger.Info("streaming abandoned", "frames", sent)
			return nil
		}
		if err := s.conn.WriteFrame(payload); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		sent++
		s.state.frameSent()

		s.pace(started)
	}
}

// end returns the session to idle after gen ran out and writes the end marker when
// no other selection replaced it.
func (s *streamer) end(gen uint64) error {
	if !s.state.finish(gen) || !s.endMarker {
		return nil
	}
	if err := s.conn.WriteEndOfStream(); err != nil {
		return fmt.Errorf("write end of stream: %w", err)
	}
	return nil
}

func (s *streamer) open(ctx context.Context, path string) error {
	if s.source != nil {
		panic("streaming: frame source opened twice")
	}
	source, err := s.decoder.Open(ctx, path)
	if err != nil {
		return err
	}
	s.source = source
	return nil
}

func (s *streamer) closeSource() {
	if s.source == nil {
		return
	}
	if err := s.source.Close(); err != nil {
		s.logger.Debug("frame source close failed", "error", err)
	}
	s.source = nil
}

func (s *streamer) pace(started time.Time) {
	if wait := s.interval - time.Since(started); wait > 0 {
		time.Sleep(wait)
	}
}
