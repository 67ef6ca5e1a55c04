package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forPelevin/capburn/internal/language"
)

// applyEnv overlays CAPBURN_* variables. Unparseable numbers are left for
// Validate to reject via the sentinel -1.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				n = -1
			}
			*dst = n
		}
	}

	str("CAPBURN_BIND", &c.Server.Bind)
	str("CAPBURN_STORAGE_DIR", &c.Storage.Dir)
	str("CAPBURN_FFMPEG", &c.FFmpeg.Binary)
	str("CAPBURN_WHISPER_BIN", &c.Whisper.Binary)
	str("CAPBURN_WHISPER_MODEL", &c.Whisper.Model)
	str("CAPBURN_WHISPER_LANGUAGE", &c.Whisper.Language)
	num("CAPBURN_WHISPER_THREADS", &c.Whisper.Threads)
	str("CAPBURN_LOG_FORMAT", &c.Logging.Format)
	str("CAPBURN_LOG_LEVEL", &c.Logging.Level)

	if v, ok := lookup("CAPBURN_MAX_UPLOAD_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			n = -1
		}
		c.Server.MaxUploadBytes = n
	}
}

func (c *Config) normalize() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Style.PrimaryColour = strings.TrimSpace(c.Style.PrimaryColour)
	c.Style.OutlineColour = strings.TrimSpace(c.Style.OutlineColour)

	dir, err := expandPath(strings.TrimSpace(c.Storage.Dir))
	if err != nil {
		return fmt.Errorf("storage dir: %w", err)
	}
	c.Storage.Dir = dir

	if model := strings.TrimSpace(c.Whisper.Model); model != "" {
		if c.Whisper.Model, err = expandPath(model); err != nil {
			return fmt.Errorf("whisper model: %w", err)
		}
	}

	lang := strings.TrimSpace(c.Whisper.Language)
	if strings.EqualFold(lang, "auto") {
		lang = ""
	}
	if c.Whisper.Language, err = language.Normalize(lang); err != nil {
		return fmt.Errorf("whisper language: %w", err)
	}
	return nil
}
