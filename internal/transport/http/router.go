package http

import (
	"github.com/gorilla/mux"
)

// NewRouter configures HTTP routes.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/videos", handler.ListVideos).Methods("GET")
	r.HandleFunc("/api/sessions", handler.ListSessions).Methods("GET")
	r.HandleFunc("/api/session", handler.Session).Methods("GET")
	return r
}
