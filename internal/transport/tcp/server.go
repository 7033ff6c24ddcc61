package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"framecast/internal/application/streaming"
	"github.com/hashicorp/go-hclog"
)

type sessionServer interface {
	Serve(ctx context.Context, conn streaming.Conn) error
}

// Server accepts viewer connections and hands each one to a session supervisor.
type Server struct {
	sessions     sessionServer
	maxControl   int
	writeTimeout time.Duration
	logger       hclog.Logger

	wg sync.WaitGroup
}

// NewServer creates a stream listener front end.
func NewServer(sessions sessionServer, maxControl int, writeTimeout time.Duration, logger hclog.Logger) *Server {
	return &Server{
		sessions:     sessions,
		maxControl:   maxControl,
		writeTimeout: writeTimeout,
		logger:       logger.Named("tcp"),
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled or ln fails, then waits for the
// sessions it started.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("stream listener started", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer s.wg.Wait()

	var backoff time.Duration
	for {
		raw, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = nextBackoff(backoff)
				s.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			conn := NewConn(raw, s.maxControl, s.writeTimeout)
			if err := s.sessions.Serve(ctx, conn); err != nil {
				s.logger.Debug("session failed", "remote", conn.RemoteAddr(), "error", err)
			}
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	d *= 2
	if d > time.Second {
		d = time.Second
	}
	return d
}
