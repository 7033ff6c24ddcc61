package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"framecast/internal/domain/media"
)

// maxFrameBytes guards against an ffprobe size asking for an absurd allocation.
const maxFrameBytes = 8192 * 8192 * 3

// frameReader cuts a rawvideo rgb24 stream into fixed-size frames.
type frameReader struct {
	r      *bufio.Reader
	width  int
	height int
	seq    uint64
}

func newFrameReader(r io.Reader, width, height int) *frameReader {
	return &frameReader{r: bufio.NewReaderSize(r, 256*1024), width: width, height: height}
}

// next reads one frame. io.EOF means the stream ended cleanly between frames; a
// stream cut inside a frame yields io.ErrUnexpectedEOF.
func (f *frameReader) next() (media.Frame, error) {
	pix := make([]byte, f.width*f.height*3)
	if _, err := io.ReadFull(f.r, pix); err != nil {
		return media.Frame{}, err
	}
	f.seq++
	return media.Frame{Seq: f.seq, Width: f.width, Height: f.height, Pix: pix}, nil
}

func probeFrameSize(ctx context.Context, ffprobe, inputPath string) (int, int, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		inputPath,
	}
	cmd := exec.CommandContext(ctx, ffprobe, args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, 0, fmt.Errorf("%s failed: %w: %s", ffprobe, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return 0, 0, err
	}
	return parseFrameSize(string(out))
}

// parseFrameSize reads ffprobe's "WIDTHxHEIGHT" line.
func parseFrameSize(raw string) (int, int, error) {
	value := strings.TrimSpace(raw)
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	parts := strings.Split(value, "x")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("no video stream size in %q", raw)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad width in %q: %w", raw, err)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad height in %q: %w", raw, err)
	}
	if width <= 0 || height <= 0 || width*height*3 > maxFrameBytes {
		return 0, 0, fmt.Errorf("unsupported frame size %dx%d", width, height)
	}
	return width, height, nil
}
