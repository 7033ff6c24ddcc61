package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"framecast/internal/application/streaming"
	mediadomain "framecast/internal/domain/media"
	"framecast/internal/transport/wire"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
)

type catalogUseCases interface {
	List() ([]mediadomain.Video, error)
}

type sessionUseCases interface {
	Serve(ctx context.Context, conn streaming.Conn) error
}

type sessionLister interface {
	List() []streaming.SessionInfo
}

// Options configures the WebSocket session endpoint.
type Options struct {
	MaxControlBytes int
	WriteTimeout    time.Duration
	// AllowedOrigins lists browser origins allowed to open a session; "*" allows any.
	AllowedOrigins []string
}

type Handler struct {
	catalog  catalogUseCases
	sessions sessionUseCases
	registry sessionLister
	opts     Options
	upgrader websocket.Upgrader
	logger   hclog.Logger
}

// NewHandler wires HTTP handlers with application use cases.
func NewHandler(catalog catalogUseCases, sessions sessionUseCases, registry sessionLister, opts Options, logger hclog.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		sessions: sessions,
		registry: registry,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 256 * 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		logger: logger.Named("http"),
	}
}

// ListVideos handles GET /api/videos.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.catalog.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, wire.CatalogEntries(videos))
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.registry.List())
}

// Session handles GET /api/session, upgrading to a WebSocket streaming session.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newWSConn(ws, r.RemoteAddr, h.opts.MaxControlBytes, h.opts.WriteTimeout)
	if err := h.sessions.Serve(r.Context(), conn); err != nil {
		h.logger.Debug("session failed", "remote", r.RemoteAddr, "error", err)
	}
}

// originChecker accepts requests without an Origin header (non-browser clients) and
// browser requests whose origin is listed.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
