package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	UploadDir       string `toml:"upload_dir"`
	OutputDir       string `toml:"output_dir"`
	StateDir        string `toml:"state_dir"`
	LogDir          string `toml:"log_dir"`
	APIBind         string `toml:"api_bind"`
	APIToken        string `toml:"api_token"`
	BackgroundVideo string `toml:"background_video"`
}

// Subtitles contains configuration for karaoke line building.
type Subtitles struct {
	MaxWordsPerLine int     `toml:"max_words_per_line"`
	LeadInSeconds   float64 `toml:"lead_in_seconds"`
	PlayResX        int     `toml:"play_res_x"`
	PlayResY        int     `toml:"play_res_y"`
	Title           string  `toml:"title"`
}

// Style overrides one named ASS style. Unset fields inherit from the built-in
// style of the same name, or from Default for new names.
type Style struct {
	Font           string   `toml:"font"`
	Size           int      `toml:"size"`
	Bold           *bool    `toml:"bold"`
	PrimaryColor   string   `toml:"primary_color"`
	SecondaryColor string   `toml:"secondary_color"`
	OutlineColor   string   `toml:"outline_color"`
	BackColor      string   `toml:"back_color"`
	Outline        *float64 `toml:"outline"`
	Shadow         *float64 `toml:"shadow"`
	Alignment      int      `toml:"alignment"`
	MarginL        *int     `toml:"margin_l"`
	MarginR        *int     `toml:"margin_r"`
	MarginV        *int     `toml:"margin_v"`
}

// Encoder contains ffmpeg settings for the final video.
type Encoder struct {
	FFmpegBinary    string `toml:"ffmpeg_binary"`
	FFprobeBinary   string `toml:"ffprobe_binary"`
	VideoCodec      string `toml:"video_codec"`
	Preset          string `toml:"preset"`
	CRF             int    `toml:"crf"`
	AudioCodec      string `toml:"audio_codec"`
	AudioBitrate    string `toml:"audio_bitrate"`
	Resolution      string `toml:"resolution"`
	BackgroundColor string `toml:"background_color"`
}

// Separator contains audio-separator settings.
type Separator struct {
	Command      string `toml:"command"`
	Package      string `toml:"package"`
	Model        string `toml:"model"`
	OutputFormat string `toml:"output_format"`
}

// Transcriber contains WhisperX transcription settings.
type Transcriber struct {
	Command     string `toml:"command"`
	Model       string `toml:"model"`
	Language    string `toml:"language"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
}

// Diarizer contains speaker diarization settings.
type Diarizer struct {
	Enabled bool   `toml:"enabled"`
	HFToken string `toml:"hf_token"`
}

// Workflow contains configuration for daemon workers and timing.
type Workflow struct {
	Workers            int `toml:"workers"`
	QueuePollInterval  int `toml:"queue_poll_interval"`
	RequestTimeout     int `toml:"request_timeout"`
	MaxUploadMB        int `toml:"max_upload_mb"`
	WorkRetentionHours int `toml:"work_retention_hours"`
}

// Storage contains optional S3-compatible publishing settings.
type Storage struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	Region    string `toml:"region"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
	Prefix    string `toml:"prefix"`
}

// Notifications contains optional ntfy settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for tunely.
//
// Configuration sections by subsystem:
//   - Paths: upload, output, state and log directories plus the API bind address
//   - Subtitles: line width, lead-in and script resolution
//   - Styles: per-style overrides of the built-in karaoke looks
//   - Speakers: diarizer label to style mapping
//   - Encoder: ffmpeg binaries and output format
//   - Separator, Transcriber, Diarizer: external model settings
//   - Workflow: daemon worker count, polling and timeouts
//   - Storage: optional S3-compatible publishing of finished videos
//   - Notifications: optional ntfy messages when requests finish
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths             `toml:"paths"`
	Subtitles     Subtitles         `toml:"subtitles"`
	Styles        map[string]Style  `toml:"styles"`
	Speakers      map[string]string `toml:"speakers"`
	Encoder       Encoder           `toml:"encoder"`
	Separator     Separator         `toml:"separator"`
	Transcriber   Transcriber       `toml:"transcriber"`
	Diarizer      Diarizer          `toml:"diarizer"`
	Workflow      Workflow          `toml:"workflow"`
	Storage       Storage           `toml:"storage"`
	Notifications Notifications     `toml:"notifications"`
	Logging       Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tunely.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.UploadDir, c.Paths.OutputDir, c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite request store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "requests.db")
}

// LockPath returns the single-instance lock file used by the daemon.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "tunely.lock")
}

// WorkRoot returns the directory holding per-request intermediate files.
func (c *Config) WorkRoot() string {
	return filepath.Join(c.Paths.StateDir, "work")
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return c.Encoder.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for background checks.
func (c *Config) FFprobeBinary() string {
	return c.Encoder.FFprobeBinary
}

// PollInterval returns the queue poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.QueuePollInterval) * time.Second
}

// RequestTimeout returns the per-request bound, or zero when unbounded.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Workflow.RequestTimeout) * time.Second
}

// WorkRetention returns how long scratch directories are kept, or zero when
// they are kept until their request is removed.
func (c *Config) WorkRetention() time.Duration {
	return time.Duration(c.Workflow.WorkRetentionHours) * time.Hour
}

// MaxUploadBytes returns the upload size limit.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Workflow.MaxUploadMB) << 20
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
