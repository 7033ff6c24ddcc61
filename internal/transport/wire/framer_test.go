package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrame_BigEndianPrefix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("jpeg")))
	require.NoError(t, WriteFrame(&buf, nil))

	raw := buf.Bytes()
	require.Len(t, raw, HeaderSize+4+HeaderSize)
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(raw[:4]))
	assert.Equal(t, "jpeg", string(raw[4:8]))
	assert.Equal(t, []byte{0, 0, 0, 0}, raw[8:])
}

func TestReadFrame_ReadsBackToBackFrames(t *testing.T) {
	var buf bytes.Buffer
	payloads := [][]byte{[]byte("one"), {}, bytes.Repeat([]byte{0xff}, 300)}
	for _, p := range payloads {
		require.NoError(t, WriteFrame(&buf, p))
	}

	for _, want := range payloads {
		got, err := ReadFrame(&buf, 0)
		require.NoError(t, err)
		assert.Equal(t, len(want), len(got))
		assert.True(t, bytes.Equal(want, got))
	}
	_, err := ReadFrame(&buf, 0)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_TruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("abcdef")))
	truncated := bytes.NewReader(buf.Bytes()[:HeaderSize+3])

	_, err := ReadFrame(truncated, 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrame_EnforcesLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, make([]byte, 64)))

	_, err := ReadFrame(&buf, 32)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}
