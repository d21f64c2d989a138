package config

import (
	"tunely/internal/styles"
	"tunely/internal/timing"
)

const (
	defaultConfigPath          = "~/.config/tunely/config.toml"
	defaultUploadDir           = "~/.local/share/tunely/uploads"
	defaultOutputDir           = "~/.local/share/tunely/outputs"
	defaultStateDir            = "~/.local/share/tunely/state"
	defaultLogDir              = "~/.local/share/tunely/logs"
	defaultAPIBind             = "127.0.0.1:7488"
	defaultPlayResX            = 1280
	defaultPlayResY            = 720
	defaultSubtitleTitle       = "Tunely Karaoke"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultVideoCodec          = "libx264"
	defaultEncoderPreset       = "fast"
	defaultCRF                 = 23
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "192k"
	defaultResolution          = "1280x720"
	defaultBackgroundColor     = "black"
	defaultSeparatorCommand    = "uvx"
	defaultSeparatorPackage    = "audio-separator"
	defaultSeparatorModel      = "UVR-MDX-NET-Inst_HQ_3.onnx"
	defaultSeparatorFormat     = "wav"
	defaultTranscriberCommand  = "uvx"
	defaultTranscriberModel    = "base"
	defaultTranscriberLanguage = "hi"
	defaultWorkers             = 2
	defaultQueuePollInterval   = 2
	defaultMaxUploadMB         = 200
	defaultWorkRetentionHours  = 72
	defaultStoragePrefix       = "karaoke/"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			UploadDir: defaultUploadDir,
			OutputDir: defaultOutputDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Subtitles: Subtitles{
			MaxWordsPerLine: timing.DefaultMaxWordsPerLine,
			PlayResX:        defaultPlayResX,
			PlayResY:        defaultPlayResY,
			Title:           defaultSubtitleTitle,
		},
		Encoder: Encoder{
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			VideoCodec:      defaultVideoCodec,
			Preset:          defaultEncoderPreset,
			CRF:             defaultCRF,
			AudioCodec:      defaultAudioCodec,
			AudioBitrate:    defaultAudioBitrate,
			Resolution:      defaultResolution,
			BackgroundColor: defaultBackgroundColor,
		},
		Separator: Separator{
			Command:      defaultSeparatorCommand,
			Package:      defaultSeparatorPackage,
			Model:        defaultSeparatorModel,
			OutputFormat: defaultSeparatorFormat,
		},
		Transcriber: Transcriber{
			Command:  defaultTranscriberCommand,
			Model:    defaultTranscriberModel,
			Language: defaultTranscriberLanguage,
		},
		Diarizer: Diarizer{
			Enabled: true,
		},
		Workflow: Workflow{
			Workers:            defaultWorkers,
			QueuePollInterval:  defaultQueuePollInterval,
			MaxUploadMB:        defaultMaxUploadMB,
			WorkRetentionHours: defaultWorkRetentionHours,
		},
		Storage: Storage{
			UseSSL: true,
			Prefix: defaultStoragePrefix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

func defaultSpeakers() map[string]string {
	mapping := styles.DefaultMapping()
	out := make(map[string]string, len(mapping))
	for label, id := range mapping {
		out[label] = id
	}
	return out
}
