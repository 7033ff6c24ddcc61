package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AcceptsClosedSet(t *testing.T) {
	cases := map[string]Command{
		`{"action":"start","video":"abc"}`:   {Action: ActionStart, Video: "abc"},
		`{"action":" PAUSE "}`:               {Action: ActionPause},
		`{"action":"resume","video":"x"}`:    {Action: ActionResume},
		`{"action":"stop","extra":{"a":1}}`:  {Action: ActionStop},
	}
	for raw, want := range cases {
		got, err := Parse([]byte(raw))
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParse_RejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"action":"start"}`,
		`{"action":"start","video":"   "}`,
		`{"action":"rewind"}`,
		`{}`,
		`["start"]`,
		`{"action":"__import__('os').system('ls')"}`,
	} {
		_, err := Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestEncode_StartCarriesVideoOnly(t *testing.T) {
	data, err := Encode(Command{Action: ActionStart, Video: "v1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"start","video":"v1"}`, string(data))

	data, err = Encode(Command{Action: ActionPause, Video: "ignored"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"pause"}`, string(data))
}
