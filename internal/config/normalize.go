package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSubtitles()
	c.normalizeStyles()
	c.normalizeEncoder()
	c.normalizeSeparator()
	c.normalizeTranscriber()
	c.normalizeDiarizer()
	c.normalizeWorkflow()
	c.normalizeStorage()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.UploadDir, err = expandPath(defaultString(c.Paths.UploadDir, defaultUploadDir)); err != nil {
		return fmt.Errorf("paths.upload_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(defaultString(c.Paths.OutputDir, defaultOutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(defaultString(c.Paths.StateDir, defaultStateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(defaultString(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BackgroundVideo) != "" {
		if c.Paths.BackgroundVideo, err = expandPath(strings.TrimSpace(c.Paths.BackgroundVideo)); err != nil {
			return fmt.Errorf("paths.background_video: %w", err)
		}
	} else {
		c.Paths.BackgroundVideo = ""
	}
	c.Paths.APIBind = defaultString(c.Paths.APIBind, defaultAPIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("TUNELY_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeSubtitles() {
	if c.Subtitles.PlayResX == 0 {
		c.Subtitles.PlayResX = defaultPlayResX
	}
	if c.Subtitles.PlayResY == 0 {
		c.Subtitles.PlayResY = defaultPlayResY
	}
	c.Subtitles.Title = defaultString(c.Subtitles.Title, defaultSubtitleTitle)
}

func (c *Config) normalizeStyles() {
	if len(c.Styles) > 0 {
		trimmed := make(map[string]Style, len(c.Styles))
		for id, style := range c.Styles {
			style.Font = strings.TrimSpace(style.Font)
			style.PrimaryColor = strings.TrimSpace(style.PrimaryColor)
			style.SecondaryColor = strings.TrimSpace(style.SecondaryColor)
			style.OutlineColor = strings.TrimSpace(style.OutlineColor)
			style.BackColor = strings.TrimSpace(style.BackColor)
			trimmed[strings.TrimSpace(id)] = style
		}
		c.Styles = trimmed
	}
	if len(c.Speakers) == 0 {
		c.Speakers = defaultSpeakers()
		return
	}
	speakers := make(map[string]string, len(c.Speakers))
	for label, id := range c.Speakers {
		speakers[strings.TrimSpace(label)] = strings.TrimSpace(id)
	}
	c.Speakers = speakers
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = defaultString(c.Encoder.FFmpegBinary, defaultFFmpegBinary)
	c.Encoder.FFprobeBinary = defaultString(c.Encoder.FFprobeBinary, defaultFFprobeBinary)
	c.Encoder.VideoCodec = defaultString(c.Encoder.VideoCodec, defaultVideoCodec)
	c.Encoder.Preset = strings.ToLower(defaultString(c.Encoder.Preset, defaultEncoderPreset))
	c.Encoder.AudioCodec = defaultString(c.Encoder.AudioCodec, defaultAudioCodec)
	c.Encoder.AudioBitrate = strings.ToLower(defaultString(c.Encoder.AudioBitrate, defaultAudioBitrate))
	c.Encoder.Resolution = strings.ToLower(defaultString(c.Encoder.Resolution, defaultResolution))
	c.Encoder.BackgroundColor = strings.ToLower(defaultString(c.Encoder.BackgroundColor, defaultBackgroundColor))
}

func (c *Config) normalizeSeparator() {
	c.Separator.Command = defaultString(c.Separator.Command, defaultSeparatorCommand)
	c.Separator.Package = defaultString(c.Separator.Package, defaultSeparatorPackage)
	c.Separator.Model = defaultString(c.Separator.Model, defaultSeparatorModel)
	c.Separator.OutputFormat = strings.ToLower(strings.TrimPrefix(defaultString(c.Separator.OutputFormat, defaultSeparatorFormat), "."))
}

func (c *Config) normalizeTranscriber() {
	c.Transcriber.Command = defaultString(c.Transcriber.Command, defaultTranscriberCommand)
	c.Transcriber.Model = defaultString(c.Transcriber.Model, defaultTranscriberModel)
	c.Transcriber.Language = defaultString(c.Transcriber.Language, defaultTranscriberLanguage)
}

func (c *Config) normalizeDiarizer() {
	c.Diarizer.HFToken = strings.TrimSpace(c.Diarizer.HFToken)
	if c.Diarizer.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Diarizer.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Diarizer.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers == 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.QueuePollInterval == 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.MaxUploadMB == 0 {
		c.Workflow.MaxUploadMB = defaultMaxUploadMB
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.Endpoint = strings.TrimPrefix(strings.TrimPrefix(c.Storage.Endpoint, "https://"), "http://")
	c.Storage.Region = strings.TrimSpace(c.Storage.Region)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	if c.Storage.AccessKey == "" {
		if value, ok := os.LookupEnv("TUNELY_S3_ACCESS_KEY"); ok {
			c.Storage.AccessKey = strings.TrimSpace(value)
		}
	}
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
	if c.Storage.SecretKey == "" {
		if value, ok := os.LookupEnv("TUNELY_S3_SECRET_KEY"); ok {
			c.Storage.SecretKey = strings.TrimSpace(value)
		}
	}
	c.Storage.Prefix = strings.TrimLeft(strings.TrimSpace(c.Storage.Prefix), "/")
	if c.Storage.Prefix != "" && !strings.HasSuffix(c.Storage.Prefix, "/") {
		c.Storage.Prefix += "/"
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func defaultString(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
