package config

import (
	"os"
	"path/filepath"

	"github.com/forPelevin/capburn/internal/types"
)

const (
	defaultBind               = "127.0.0.1:5000"
	defaultMaxUploadBytes     = 500 * 1024 * 1024
	defaultMaxMultipartMemory = 32 << 20
	defaultReadHeaderTimeout  = 10
	defaultIdleTimeout        = 60
	defaultShutdownTimeout    = 10
	defaultFFmpegBinary       = "ffmpeg"
	defaultWhisperBinary      = ".cache/bin/whisper.cpp"
	defaultWhisperModel       = ".cache/models/ggml-small.bin"
	defaultExtractTimeout     = 600
	defaultRecognizeTimeout   = 3600
	defaultRenderTimeout      = 3600
	defaultLogFormat          = "auto"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:               defaultBind,
			MaxUploadBytes:     defaultMaxUploadBytes,
			MaxMultipartMemory: defaultMaxMultipartMemory,
			ReadHeaderTimeout:  defaultReadHeaderTimeout,
			IdleTimeout:        defaultIdleTimeout,
			ShutdownTimeout:    defaultShutdownTimeout,
		},
		Storage: Storage{
			Dir: filepath.Join(os.TempDir(), "capburn"),
		},
		FFmpeg: FFmpeg{
			Binary: defaultFFmpegBinary,
		},
		Whisper: Whisper{
			Binary: defaultWhisperBinary,
			Model:  defaultWhisperModel,
		},
		Pipeline: Pipeline{
			ExtractTimeout:   defaultExtractTimeout,
			RecognizeTimeout: defaultRecognizeTimeout,
			RenderTimeout:    defaultRenderTimeout,
		},
		Style: types.Style{
			FontSize:      24,
			PrimaryColour: "&H00FFFFFF",
			OutlineColour: "&H40000000",
			BorderStyle:   3,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
