package streaming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_StartClearsFlagsAndBumpsGeneration(t *testing.T) {
	s := NewState()
	gen := s.Start("a")
	require.True(t, s.Pause())
	s.RequestStop()

	next := s.Start("b")
	assert.Equal(t, gen+1, next)

	snap := s.Snapshot()
	assert.Equal(t, "b", string(snap.Video))
	assert.False(t, snap.Paused)
	assert.False(t, snap.StopRequested)
}

func TestState_PauseIsNoopWhenIdleOrAlreadyPaused(t *testing.T) {
	s := NewState()
	assert.False(t, s.Pause())

	s.Start("a")
	assert.True(t, s.Pause())
	assert.False(t, s.Pause())
}

func TestState_StopClearsSelection(t *testing.T) {
	s := NewState()
	s.Start("a")
	s.Stop()

	snap := s.Snapshot()
	assert.Empty(t, snap.Video)
	assert.True(t, snap.StopRequested)
}

func TestState_AwaitFrameParksWhilePaused(t *testing.T) {
	s := NewState()
	gen := s.Start("a")
	s.Pause()

	done := make(chan bool, 1)
	go func() { done <- s.awaitFrame(gen) }()

	select {
	case <-done:
		t.Fatalf("awaitFrame returned while paused")
	case <-time.After(30 * time.Millisecond):
	}
	assert.Equal(t, PhasePaused, s.Snapshot().Phase)

	s.Resume()
	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatalf("awaitFrame did not wake on resume")
	}
}

func TestState_AwaitFrameRejectsStaleGeneration(t *testing.T) {
	s := NewState()
	gen := s.Start("a")
	s.Pause()

	done := make(chan bool, 1)
	go func() { done <- s.awaitFrame(gen) }()

	s.Start("b")
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatalf("switch did not wake the paused waiter")
	}
}

func TestState_AwaitVideoSkipsServedGeneration(t *testing.T) {
	s := NewState()
	gen := s.Start("a")

	video, got, ok := s.awaitVideo(0)
	require.True(t, ok)
	assert.Equal(t, "a", string(video))
	assert.Equal(t, gen, got)

	done := make(chan bool, 1)
	go func() {
		_, _, ok := s.awaitVideo(gen)
		done <- ok
	}()

	select {
	case <-done:
		t.Fatalf("awaitVideo returned for an already served generation")
	case <-time.After(30 * time.Millisecond):
	}

	s.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatalf("close did not wake the idle waiter")
	}
	assert.Equal(t, PhaseClosed, s.Snapshot().Phase)
}

func TestState_FinishIgnoresReplacedGeneration(t *testing.T) {
	s := NewState()
	gen := s.Start("a")
	s.Start("b")

	assert.False(t, s.finish(gen))
	assert.Equal(t, "b", string(s.Snapshot().Video))

	assert.True(t, s.finish(gen+1))
	assert.Empty(t, s.Snapshot().Video)
}

func TestState_FinishAfterStopReportsNotCurrent(t *testing.T) {
	s := NewState()
	gen := s.Start("a")
	s.Stop()

	assert.False(t, s.finish(gen))
	assert.False(t, s.Snapshot().StopRequested)
}
