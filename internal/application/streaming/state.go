package streaming

import (
	"sync"

	"framecast/internal/domain/media"
)

// Phase is the streaming loop position, kept for diagnostics.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseOpening   Phase = "opening"
	PhaseStreaming Phase = "streaming"
	PhasePaused    Phase = "paused"
	PhaseClosed    Phase = "closed"
)

// StateSnapshot is a point-in-time copy of a session state.
type StateSnapshot struct {
	Video         media.VideoID `json:"video,omitempty"`
	Paused        bool          `json:"paused"`
	StopRequested bool          `json:"stopRequested"`
	Generation    uint64        `json:"generation"`
	Phase         Phase         `json:"phase"`
	FramesSent    uint64        `json:"framesSent"`
}

// State is the control state shared by the receiver and the streaming loop of one
// session. Every field is guarded by mu; every change that can unblock a waiter
// broadcasts cond before mu is released. No I/O happens while mu is held.
type State struct {
	mu   sync.Mutex
	cond *sync.Cond

	requested     *media.VideoID
	paused        bool
	stopRequested bool
	generation    uint64
	closed        bool

	phase      Phase
	framesSent uint64
}

// NewState returns an idle session state.
func NewState() *State {
	s := &State{phase: PhaseIdle}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start selects a new video and begins a new generation.
func (s *State) Start(video media.VideoID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := video
	s.requested = &v
	s.paused = false
	s.stopRequested = false
	s.generation++
	s.cond.Broadcast()
	return s.generation
}

// Pause suspends emission. It reports whether the state changed; pausing twice or
// pausing with nothing requested is a no-op.
func (s *State) Pause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.requested == nil || s.paused {
		return false
	}
	s.paused = true
	s.cond.Broadcast()
	return true
}

// Resume clears the pause flag and wakes a loop parked in the pause wait.
func (s *State) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = false
	s.cond.Broadcast()
}

// Stop abandons the current video.
func (s *State) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopRequested = true
	s.requested = nil
	s.cond.Broadcast()
}

// RequestStop raises the stop flag without touching the selection.
func (s *State) RequestStop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopRequested = true
	s.cond.Broadcast()
}

// Close marks the session as shutting down. All waits return and never block again.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.stopRequested = true
	s.cond.Broadcast()
}

// Snapshot copies the state for diagnostics.
func (s *State) Snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StateSnapshot{
		Paused:        s.paused,
		StopRequested: s.stopRequested,
		Generation:    s.generation,
		Phase:         s.phase,
		FramesSent:    s.framesSent,
	}
	if s.requested != nil {
		snap.Video = *s.requested
	}
	return snap
}

// awaitVideo blocks until a generation newer than served names a video with no stop
// pending. ok is false once the state is closed.
func (s *State) awaitVideo(served uint64) (video media.VideoID, gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase = PhaseIdle
	for !s.closed && (s.requested == nil || s.stopRequested || s.generation == served) {
		s.cond.Wait()
	}
	if s.closed {
		s.phase = PhaseClosed
		return "", 0, false
	}
	s.phase = PhaseOpening
	return *s.requested, s.generation, true
}

// awaitFrame is the decision point before each frame of generation gen. It parks the
// caller while paused and returns false when the frame must not be produced: the
// session closed, a stop was raised, or another video was selected.
func (s *State) awaitFrame(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.paused && s.activeLocked(gen) {
		s.phase = PhasePaused
		s.cond.Wait()
	}
	if !s.activeLocked(gen) {
		return false
	}
	s.phase = PhaseStreaming
	return true
}

func (s *State) activeLocked(gen uint64) bool {
	return !s.closed && !s.stopRequested && s.generation == gen
}

// frameSent counts one delivered frame.
func (s *State) frameSent() {
	s.mu.Lock()
	s.framesSent++
	s.mu.Unlock()
}

// finish returns the session to idle once generation gen is done, unless a newer
// selection already replaced it or the session closed. It reports whether gen was
// still current.
func (s *State) finish(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || s.closed {
		return false
	}
	current := s.requested != nil && !s.stopRequested
	s.requested = nil
	s.paused = false
	s.stopRequested = false
	s.cond.Broadcast()
	return current
}
