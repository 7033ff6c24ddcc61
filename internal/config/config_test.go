package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"framecast/internal/infrastructure/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIG_FILE", "SERVER_ADDR", "STREAM_ADDR", "VIDEOS_DIR", "FRAME_INTERVAL_MS",
	"FRAME_WIDTH", "FRAME_QUALITY", "FRAME_CODEC", "END_MARKER", "CONTROL_MAX_BYTES",
	"WRITE_TIMEOUT_SECONDS", "CATALOG_RESCAN_SECONDS", "FFMPEG_PATH", "FFPROBE_PATH", "ALLOWED_ORIGINS",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 33*time.Millisecond, cfg.FrameInterval())
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout())
	assert.True(t, cfg.EndMarker)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "framecast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stream_addr: ":7000"
frame_interval_ms: 50
frame_codec: webp
end_marker: false
`), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FRAME_INTERVAL_MS", "20")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.StreamAddr)
	assert.Equal(t, 20, cfg.FrameIntervalMs)
	assert.Equal(t, "webp", cfg.FrameCodec)
	assert.False(t, cfg.EndMarker)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.ServerAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRAME_WIDTH", "wide")
	t.Setenv("END_MARKER", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.FrameWidth)
	assert.True(t, cfg.EndMarker)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.FrameQuality = 0
	cfg.FrameCodec = "gif"
	cfg.LogLevel = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame_quality")
	assert.Contains(t, err.Error(), "frame_codec")
	assert.Contains(t, err.Error(), "log_level")
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG", "off")
	assert.False(t, getEnvBool("FLAG", true))
	t.Setenv("FLAG", "Yes")
	assert.True(t, getEnvBool("FLAG", false))
}

func TestLoad_ZeroWriteTimeoutDisablesDeadline(t *testing.T) {
	clearEnv(t)
	t.Setenv("WRITE_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.WriteTimeoutSeconds)
	assert.Zero(t, cfg.WriteTimeout())
}

func TestLoad_NegativeEnvValueIsRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("WRITE_TIMEOUT_SECONDS", "-3")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write_timeout_seconds")
}

func TestLoad_CodecSpellingsMatchEncoder(t *testing.T) {
	for raw, want := range map[string]string{"jpg": "jpeg", "JPEG": "jpeg", "WebP": "webp"} {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("FRAME_CODEC", raw)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, want, cfg.FrameCodec)

			codec, err := imaging.ParseCodec(cfg.FrameCodec)
			require.NoError(t, err)
			assert.Equal(t, want, string(codec))
		})
	}
}

func TestValidate_AcceptsJpgAlias(t *testing.T) {
	cfg := Defaults()
	cfg.FrameCodec = "jpg"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_AllowedOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}
