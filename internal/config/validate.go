package config

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var resolutionPattern = regexp.MustCompile(`^(\d+)x(\d+)$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateStyles(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.MaxWordsPerLine <= 0 {
		return errors.New("subtitles.max_words_per_line must be positive")
	}
	if c.Subtitles.LeadInSeconds < 0 {
		return errors.New("subtitles.lead_in_seconds must be >= 0")
	}
	if c.Subtitles.PlayResX <= 0 || c.Subtitles.PlayResY <= 0 {
		return errors.New("subtitles.play_res_x and subtitles.play_res_y must be positive")
	}
	return nil
}

func (c *Config) validateStyles() error {
	set, err := c.StyleSet()
	if err != nil {
		return err
	}
	for label, id := range c.Speakers {
		if label == "" {
			return errors.New("speakers: empty speaker label")
		}
		if id == "" {
			return fmt.Errorf("speakers.%s: style id must be set", label)
		}
	}
	if err := set.CheckMapping(c.SpeakerMapping()); err != nil {
		return fmt.Errorf("speakers: %w", err)
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return errors.New("encoder.crf must be between 0 and 51")
	}
	match := resolutionPattern.FindStringSubmatch(c.Encoder.Resolution)
	if match == nil {
		return fmt.Errorf("encoder.resolution %q must look like 1280x720", c.Encoder.Resolution)
	}
	width, _ := strconv.Atoi(match[1])
	height, _ := strconv.Atoi(match[2])
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return fmt.Errorf("encoder.resolution %q must use positive even dimensions", c.Encoder.Resolution)
	}
	if strings.ContainsAny(c.Encoder.BackgroundColor, ":,;[]= ") {
		return fmt.Errorf("encoder.background_color %q must be a plain color name or 0xRRGGBB", c.Encoder.BackgroundColor)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.workers":             c.Workflow.Workers,
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.max_upload_mb":       c.Workflow.MaxUploadMB,
	}); err != nil {
		return err
	}
	if c.Workflow.RequestTimeout < 0 {
		return errors.New("workflow.request_timeout must be >= 0 (0 disables the bound)")
	}
	if c.Workflow.WorkRetentionHours < 0 {
		return errors.New("workflow.work_retention_hours must be >= 0 (0 keeps scratch files)")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Endpoint == "" {
		return errors.New("storage.endpoint must be set when storage.enabled is true")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return errors.New("storage.access_key and storage.secret_key must be set when storage.enabled is true (or set TUNELY_S3_ACCESS_KEY / TUNELY_S3_SECRET_KEY)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
