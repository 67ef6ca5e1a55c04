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

	"github.com/forPelevin/capburn/internal/types"
)

//go:embed sample_config.toml
var sampleConfig string

// Server contains HTTP listener settings.
type Server struct {
	Bind               string `toml:"bind"`
	MaxUploadBytes     int64  `toml:"max_upload_bytes"`
	ReadHeaderTimeout  int    `toml:"read_header_timeout"`
	IdleTimeout        int    `toml:"idle_timeout"`
	ShutdownTimeout    int    `toml:"shutdown_timeout"`
	MaxMultipartMemory int64  `toml:"max_multipart_memory"`
}

// Storage contains the working directory for uploads and outputs.
type Storage struct {
	Dir string `toml:"dir"`
}

type FFmpeg struct {
	Binary string `toml:"binary"`
}

// Whisper contains whisper.cpp settings.
type Whisper struct {
	Binary   string `toml:"binary"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
	Threads  int    `toml:"threads"`
}

// Pipeline bounds each external call, in seconds.
type Pipeline struct {
	ExtractTimeout   int `toml:"extract_timeout"`
	RecognizeTimeout int `toml:"recognize_timeout"`
	RenderTimeout    int `toml:"render_timeout"`
}

type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for capburn.
//
// Sections:
//   - Server: bind address, upload size limit, HTTP timeouts
//   - Storage: working directory
//   - FFmpeg / Whisper: external tools
//   - Pipeline: per-step timeouts
//   - Style: caption styling applied at render time
//   - Logging: log format and level
type Config struct {
	Server   Server      `toml:"server"`
	Storage  Storage     `toml:"storage"`
	FFmpeg   FFmpeg      `toml:"ffmpeg"`
	Whisper  Whisper     `toml:"whisper"`
	Pipeline Pipeline    `toml:"pipeline"`
	Style    types.Style `toml:"style"`
	Logging  Logging     `toml:"logging"`
}

// Load locates and parses a configuration file, applies CAPBURN_* environment
// overrides, then normalizes and validates the result. A missing file is not
// an error; defaults are used.
func Load(path string) (Config, string, bool, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return Config{}, "", false, err
	}
	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return Config{}, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.normalize(); err != nil {
		return Config{}, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", false, err
	}
	return cfg, resolved, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("capburn.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return "", false, nil
}

// ExtractTimeout returns the audio extraction limit.
func (c Config) ExtractTimeout() time.Duration {
	return time.Duration(c.Pipeline.ExtractTimeout) * time.Second
}

// RecognizeTimeout returns the speech recognition limit.
func (c Config) RecognizeTimeout() time.Duration {
	return time.Duration(c.Pipeline.RecognizeTimeout) * time.Second
}

// RenderTimeout returns the subtitle burn-in limit.
func (c Config) RenderTimeout() time.Duration {
	return time.Duration(c.Pipeline.RenderTimeout) * time.Second
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
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}
