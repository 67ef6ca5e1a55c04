package config

import (
	"errors"
	"fmt"

	"github.com/forPelevin/capburn/internal/domain/subtitles"
)

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Bind == "" {
		return errors.New("server.bind must be set")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes must be positive")
	}
	if c.Server.MaxMultipartMemory <= 0 {
		return errors.New("server.max_multipart_memory must be positive")
	}
	if c.Server.ReadHeaderTimeout <= 0 || c.Server.IdleTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if c.Storage.Dir == "" {
		return errors.New("storage.dir must be set")
	}
	if c.FFmpeg.Binary == "" {
		return errors.New("ffmpeg.binary must be set")
	}
	if c.Whisper.Binary == "" {
		return errors.New("whisper.binary must be set")
	}
	if c.Whisper.Model == "" {
		return errors.New("whisper.model must be set")
	}
	if c.Whisper.Threads < 0 {
		return errors.New("whisper.threads must be >= 0")
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateStyle(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c Config) validatePipeline() error {
	for name, v := range map[string]int{
		"pipeline.extract_timeout":   c.Pipeline.ExtractTimeout,
		"pipeline.recognize_timeout": c.Pipeline.RecognizeTimeout,
		"pipeline.render_timeout":    c.Pipeline.RenderTimeout,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func (c Config) validateStyle() error {
	s := c.Style
	if s.FontSize < 0 {
		return errors.New("style.font_size must be >= 0")
	}
	if s.PrimaryColour != "" && !subtitles.ValidColour(s.PrimaryColour) {
		return fmt.Errorf("style.primary_colour %q must look like &HAABBGGRR", s.PrimaryColour)
	}
	if s.OutlineColour != "" && !subtitles.ValidColour(s.OutlineColour) {
		return fmt.Errorf("style.outline_colour %q must look like &HAABBGGRR", s.OutlineColour)
	}
	switch s.BorderStyle {
	case 0, 1, 3:
	default:
		return fmt.Errorf("style.border_style must be 1 (outline) or 3 (opaque box), got %d", s.BorderStyle)
	}
	return nil
}

func (c Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json", "auto":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
