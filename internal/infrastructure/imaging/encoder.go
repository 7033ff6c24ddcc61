// Package imaging compresses decoded frames into the image payloads sent to viewers.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"framecast/internal/domain/media"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Codec names a frame payload format.
type Codec string

const (
	CodecJPEG Codec = "jpeg"
	CodecWebP Codec = "webp"
)

var ErrUnknownCodec = errors.New("unknown frame codec")

// ParseCodec maps a config value onto a codec.
func ParseCodec(raw string) (Codec, error) {
	switch Codec(strings.ToLower(strings.TrimSpace(raw))) {
	case CodecJPEG, "jpg", "":
		return CodecJPEG, nil
	case CodecWebP:
		return CodecWebP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCodec, raw)
	}
}

// Encoder scales frames down to a maximum width and compresses them.
type Encoder struct {
	Codec    Codec
	MaxWidth int
	Quality  int
}

// NewEncoder clamps quality into 1..100. maxWidth <= 0 keeps the source size.
func NewEncoder(codec Codec, maxWidth, quality int) *Encoder {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	return &Encoder{Codec: codec, MaxWidth: maxWidth, Quality: quality}
}

// Encode converts one RGB24 frame into a compressed image.
func (e *Encoder) Encode(frame media.Frame) ([]byte, error) {
	img, err := toImage(frame)
	if err != nil {
		return nil, err
	}

	var src image.Image = img
	if e.MaxWidth > 0 && frame.Width > e.MaxWidth {
		// Height 0 keeps the aspect ratio.
		src = imaging.Resize(img, e.MaxWidth, 0, imaging.Linear)
	}

	var buf bytes.Buffer
	switch e.Codec {
	case CodecWebP:
		if err := webp.Encode(&buf, src, &webp.Options{Quality: float32(e.Quality)}); err != nil {
			return nil, fmt.Errorf("failed to encode frame %d as webp: %w", frame.Seq, err)
		}
	default:
		if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: e.Quality}); err != nil {
			return nil, fmt.Errorf("failed to encode frame %d as jpeg: %w", frame.Seq, err)
		}
	}
	return buf.Bytes(), nil
}

// toImage expands packed RGB24 into an opaque NRGBA image.
func toImage(frame media.Frame) (*image.NRGBA, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("frame %d has no size", frame.Seq)
	}
	if want := frame.Width * frame.Height * 3; len(frame.Pix) != want {
		return nil, fmt.Errorf("frame %d: got %d bytes, want %d", frame.Seq, len(frame.Pix), want)
	}

	img := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for i, j := 0, 0; i < len(frame.Pix); i, j = i+3, j+4 {
		img.Pix[j] = frame.Pix[i]
		img.Pix[j+1] = frame.Pix[i+1]
		img.Pix[j+2] = frame.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img, nil
}
