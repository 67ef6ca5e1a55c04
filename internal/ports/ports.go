package ports

import (
	"context"

	"github.com/forPelevin/capburn/internal/types"
)

// Transcoder is the media tool capability: audio extraction and subtitle burn-in.
type Transcoder interface {
	ExtractAudioMono16k(ctx context.Context, inMedia, outWav string) error
	RenderSubtitles(ctx context.Context, inMedia, srtPath, outMedia string, style types.Style) error
}

// Recognizer turns a mono 16kHz WAV into timed segments.
type Recognizer interface {
	Transcribe(ctx context.Context, wavPath, workDir, language string) (types.Transcript, error)
}
