package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"tunely/internal/config"
	"tunely/internal/styles"
)

func clearTokenEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	t.Setenv("TUNELY_S3_ACCESS_KEY", "")
	t.Setenv("TUNELY_S3_SECRET_KEY", "")
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearTokenEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "tunely", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantUploads := filepath.Join(tempHome, ".local", "share", "tunely", "uploads")
	if cfg.Paths.UploadDir != wantUploads {
		t.Fatalf("unexpected upload dir: got %q want %q", cfg.Paths.UploadDir, wantUploads)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Subtitles.MaxWordsPerLine != 8 {
		t.Fatalf("expected 8 words per line, got %d", cfg.Subtitles.MaxWordsPerLine)
	}
	if cfg.Transcriber.Language != "hi" || cfg.Transcriber.Model != "base" {
		t.Fatalf("unexpected transcriber defaults %+v", cfg.Transcriber)
	}
	if cfg.Diarizer.HFToken != "" {
		t.Fatalf("expected empty token, got %q", cfg.Diarizer.HFToken)
	}
	if cfg.PollInterval() != 2*time.Second || cfg.RequestTimeout() != 0 {
		t.Fatalf("unexpected workflow timing %v %v", cfg.PollInterval(), cfg.RequestTimeout())
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.StateDir, "requests.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if got := cfg.SpeakerMapping(); got["SPEAKER_00"] != "Speaker1" || got["SPEAKER_01"] != "Speaker2" {
		t.Fatalf("unexpected default speaker mapping %v", got)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.UploadDir, cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearTokenEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "tunely.toml")

	type payload struct {
		Subtitles struct {
			MaxWordsPerLine int     `toml:"max_words_per_line"`
			LeadInSeconds   float64 `toml:"lead_in_seconds"`
		} `toml:"subtitles"`
		Transcriber struct {
			Language string `toml:"language"`
		} `toml:"transcriber"`
		Workflow struct {
			Workers int `toml:"workers"`
		} `toml:"workflow"`
		Diarizer struct {
			HFToken string `toml:"hf_token"`
		} `toml:"diarizer"`
	}
	custom := payload{}
	custom.Subtitles.MaxWordsPerLine = 5
	custom.Subtitles.LeadInSeconds = 0.5
	custom.Transcriber.Language = "Marathi"
	custom.Workflow.Workers = 4
	custom.Diarizer.HFToken = " file-hf "
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	t.Setenv("HF_TOKEN", "env-hf")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Subtitles.MaxWordsPerLine != 5 || cfg.Subtitles.LeadInSeconds != 0.5 {
		t.Fatalf("unexpected subtitles section %+v", cfg.Subtitles)
	}
	if cfg.Transcriber.Language != "Marathi" {
		t.Fatalf("expected language override, got %q", cfg.Transcriber.Language)
	}
	if cfg.Workflow.Workers != 4 {
		t.Fatalf("expected 4 workers, got %d", cfg.Workflow.Workers)
	}
	if cfg.Diarizer.HFToken != "file-hf" {
		t.Fatalf("expected file token to win over env, got %q", cfg.Diarizer.HFToken)
	}
	if cfg.Encoder.CRF != 23 {
		t.Fatalf("expected untouched sections to keep defaults, got crf %d", cfg.Encoder.CRF)
	}
}

func TestHFTokenFallsBackToEnv(t *testing.T) {
	clearTokenEnv(t)
	t.Setenv("HF_TOKEN", " env-hf ")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Diarizer.HFToken != "env-hf" {
		t.Fatalf("expected token from env, got %q", cfg.Diarizer.HFToken)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "tunely.toml")
	if err := os.WriteFile(configPath, []byte("[subtitles]\nmax_words = 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "max_words") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestStyleOverridesAndSpeakerMapping(t *testing.T) {
	clearTokenEnv(t)
	configPath := filepath.Join(t.TempDir(), "tunely.toml")
	contents := `
[styles.Speaker2]
primary_color = "#00FF00"
margin_v = 0

[styles.Chorus]
font = "Noto Sans Devanagari"
size = 32
bold = false

[speakers]
SPEAKER_00 = "Speaker2"
SPEAKER_02 = "Chorus"
`
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	set, err := cfg.StyleSet()
	if err != nil {
		t.Fatalf("StyleSet: %v", err)
	}
	ids := make([]string, 0, 4)
	for _, spec := range set.Specs() {
		ids = append(ids, spec.ID)
	}
	if strings.Join(ids, ",") != "Default,Speaker1,Speaker2,Chorus" {
		t.Fatalf("unexpected style order %v", ids)
	}

	speaker2, _ := set.Lookup("Speaker2")
	if speaker2.PrimaryColor != (styles.Color{G: 0xFF}) {
		t.Fatalf("expected green override, got %+v", speaker2.PrimaryColor)
	}
	if speaker2.MarginV != 0 {
		t.Fatalf("expected explicit zero margin, got %d", speaker2.MarginV)
	}
	if speaker2.Font != "Arial" {
		t.Fatalf("expected inherited font, got %q", speaker2.Font)
	}

	chorus, _ := set.Lookup("Chorus")
	if chorus.Font != "Noto Sans Devanagari" || chorus.Size != 32 || chorus.Bold {
		t.Fatalf("unexpected chorus style %+v", chorus)
	}
	if chorus.SecondaryColor != styles.DefaultSpec().SecondaryColor {
		t.Fatal("new styles should inherit the Default karaoke fill")
	}

	mapping := cfg.SpeakerMapping()
	if len(mapping) != 2 || mapping["SPEAKER_00"] != "Speaker2" {
		t.Fatalf("expected speakers table to replace defaults, got %v", mapping)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[diarizer]") {
		t.Fatalf("sample config missing diarizer section: %s", contents)
	}

	clearTokenEnv(t)
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !strings.Contains(cfg.Paths.UploadDir, "tunely") {
		t.Fatalf("expected upload dir to contain tunely, got %q", cfg.Paths.UploadDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero line width", func(c *config.Config) { c.Subtitles.MaxWordsPerLine = 0 }},
		{"negative lead-in", func(c *config.Config) { c.Subtitles.LeadInSeconds = -1 }},
		{"crf out of range", func(c *config.Config) { c.Encoder.CRF = 52 }},
		{"odd resolution", func(c *config.Config) { c.Encoder.Resolution = "1281x720" }},
		{"bad resolution", func(c *config.Config) { c.Encoder.Resolution = "hd" }},
		{"filter injection", func(c *config.Config) { c.Encoder.BackgroundColor = "black:s=1x1" }},
		{"zero workers", func(c *config.Config) { c.Workflow.Workers = 0 }},
		{"negative timeout", func(c *config.Config) { c.Workflow.RequestTimeout = -1 }},
		{"undefined style", func(c *config.Config) { c.Speakers = map[string]string{"SPEAKER_00": "Missing"} }},
		{"bad color", func(c *config.Config) { c.Styles = map[string]config.Style{"Default": {PrimaryColor: "white"}} }},
		{"storage without bucket", func(c *config.Config) {
			c.Storage.Enabled = true
			c.Storage.Endpoint = "minio:9000"
			c.Storage.AccessKey = "a"
			c.Storage.SecretKey = "b"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
