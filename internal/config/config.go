package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr           string   `yaml:"server_addr"`
	StreamAddr           string   `yaml:"stream_addr"`
	VideosDir            string   `yaml:"videos_dir"`
	FrameIntervalMs      int      `yaml:"frame_interval_ms"`
	FrameWidth           int      `yaml:"frame_width"`
	FrameQuality         int      `yaml:"frame_quality"`
	FrameCodec           string   `yaml:"frame_codec"`
	EndMarker            bool     `yaml:"end_marker"`
	ControlMaxBytes      int      `yaml:"control_max_bytes"`
	WriteTimeoutSeconds  int      `yaml:"write_timeout_seconds"`
	CatalogRescanSeconds int      `yaml:"catalog_rescan_seconds"`
	FFmpegPath           string   `yaml:"ffmpeg_path"`
	FFprobePath          string   `yaml:"ffprobe_path"`
	AllowedOrigins       []string `yaml:"allowed_origins"`
	LogLevel             string   `yaml:"log_level"`
	LogFormat            string   `yaml:"log_format"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		ServerAddr:           ":8080",
		StreamAddr:           ":9999",
		VideosDir:            "./videos",
		FrameIntervalMs:      33,
		FrameWidth:           400,
		FrameQuality:         80,
		FrameCodec:           "jpeg",
		EndMarker:            true,
		ControlMaxBytes:      64 * 1024,
		WriteTimeoutSeconds:  10,
		CatalogRescanSeconds: 60,
		FFmpegPath:           "ffmpeg",
		FFprobePath:          "ffprobe",
		AllowedOrigins:       []string{"*"},
		LogLevel:             "info",
		LogFormat:            "text",
	}
}

// Load builds the runtime config: defaults, then the YAML file named by CONFIG_FILE
// if set, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = applyEnv(cfg)
	cfg.FrameCodec = normalizeCodec(cfg.FrameCodec)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg Config) Config {
	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.StreamAddr = getEnv("STREAM_ADDR", cfg.StreamAddr)
	cfg.VideosDir = getEnv("VIDEOS_DIR", cfg.VideosDir)
	cfg.FrameIntervalMs = getEnvInt("FRAME_INTERVAL_MS", cfg.FrameIntervalMs)
	cfg.FrameWidth = getEnvInt("FRAME_WIDTH", cfg.FrameWidth)
	cfg.FrameQuality = getEnvInt("FRAME_QUALITY", cfg.FrameQuality)
	cfg.FrameCodec = getEnv("FRAME_CODEC", cfg.FrameCodec)
	cfg.EndMarker = getEnvBool("END_MARKER", cfg.EndMarker)
	cfg.ControlMaxBytes = getEnvInt("CONTROL_MAX_BYTES", cfg.ControlMaxBytes)
	cfg.WriteTimeoutSeconds = getEnvInt("WRITE_TIMEOUT_SECONDS", cfg.WriteTimeoutSeconds)
	cfg.CatalogRescanSeconds = getEnvInt("CATALOG_RESCAN_SECONDS", cfg.CatalogRescanSeconds)
	cfg.FFmpegPath = getEnv("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.FFprobePath = getEnv("FFPROBE_PATH", cfg.FFprobePath)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", cfg.LogFormat))
	return cfg
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.StreamAddr == "" && c.ServerAddr == "" {
		errs = append(errs, errors.New("at least one of server_addr and stream_addr is required"))
	}
	if c.VideosDir == "" {
		errs = append(errs, errors.New("videos_dir is required"))
	}
	if c.FrameIntervalMs <= 0 {
		errs = append(errs, fmt.Errorf("frame_interval_ms must be positive, got %d", c.FrameIntervalMs))
	}
	if c.FrameWidth < 0 {
		errs = append(errs, fmt.Errorf("frame_width must not be negative, got %d", c.FrameWidth))
	}
	if c.FrameQuality < 1 || c.FrameQuality > 100 {
		errs = append(errs, fmt.Errorf("frame_quality must be within 1..100, got %d", c.FrameQuality))
	}
	switch normalizeCodec(c.FrameCodec) {
	case "jpeg", "webp":
	default:
		errs = append(errs, fmt.Errorf("frame_codec must be jpeg, jpg or webp, got %q", c.FrameCodec))
	}
	if c.WriteTimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("write_timeout_seconds must not be negative, got %d", c.WriteTimeoutSeconds))
	}
	if c.CatalogRescanSeconds < 0 {
		errs = append(errs, fmt.Errorf("catalog_rescan_seconds must not be negative, got %d", c.CatalogRescanSeconds))
	}
	if c.ControlMaxBytes < 64 {
		errs = append(errs, fmt.Errorf("control_max_bytes too small: %d", c.ControlMaxBytes))
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// FrameInterval is the target spacing between frames.
func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// WriteTimeout bounds a single frame write to a viewer. Zero disables the deadline.
func (c Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// CatalogRescan is the periodic library rescan interval.
func (c Config) CatalogRescan() time.Duration {
	return time.Duration(c.CatalogRescanSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil {
		return fallback
	}
	return out
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// normalizeCodec folds the accepted spellings of a codec name onto one.
func normalizeCodec(raw string) string {
	codec := strings.ToLower(strings.TrimSpace(raw))
	if codec == "jpg" || codec == "" {
		return "jpeg"
	}
	return codec
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
