package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"framecast/internal/application/streaming"
	"framecast/internal/domain/media"
)

// Decoder turns video files into raw RGB frames by running ffmpeg as a subprocess.
type Decoder struct {
	FFmpeg  string
	FFprobe string
}

// NewDecoder creates an ffmpeg adapter. Empty paths fall back to the binaries on PATH.
func NewDecoder(ffmpegPath, ffprobePath string) *Decoder {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &Decoder{FFmpeg: ffmpegPath, FFprobe: ffprobePath}
}

// Open starts decoding inputPath. The returned source owns the process until Close.
func (d *Decoder) Open(ctx context.Context, inputPath string) (streaming.FrameSource, error) {
	width, height, err := probeFrameSize(ctx, d.FFprobe, inputPath)
	if err != nil {
		return nil, fmt.Errorf("frame size of %s: %w", inputPath, err)
	}

	// Rotation metadata is ignored so the output keeps the size ffprobe reported.
	args := []string{
		"-v", "error",
		"-nostdin",
		"-noautorotate",
		"-i", inputPath,
		"-map", "0:v:0",
		"-an",
		"-sn",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, d.FFmpeg, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start %s: %w", d.FFmpeg, err)
	}

	return &source{
		cmd:    cmd,
		cancel: cancel,
		stdout: stdout,
		stderr: stderr,
		frames: newFrameReader(stdout, width, height),
	}, nil
}

// source is one running ffmpeg process.
type source struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	stderr *tailBuffer
	frames *frameReader

	closeOnce sync.Once
	waited    bool
}

// Next returns the next decoded frame, or io.EOF once ffmpeg finished cleanly.
func (s *source) Next() (media.Frame, error) {
	frame, err := s.frames.next()
	if err == nil {
		return frame, nil
	}
	if !errors.Is(err, io.EOF) {
		return media.Frame{}, err
	}

	// Output drained: the exit status decides between end of video and failure.
	s.waited = true
	if waitErr := s.cmd.Wait(); waitErr != nil {
		return media.Frame{}, fmt.Errorf("ffmpeg failed: %w: %s", waitErr, s.stderr.String())
	}
	return media.Frame{}, io.EOF
}

// Close stops the process and reaps it. Safe to call more than once.
func (s *source) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.waited {
			return
		}
		_ = s.stdout.Close()
		// A killed process exits non-zero; that is the expected outcome here.
		_ = s.cmd.Wait()
	})
	return nil
}

// tailBuffer keeps the last bytes ffmpeg wrote to stderr for error messages.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.limit; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(t.buf.String())
}
