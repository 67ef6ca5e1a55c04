package ffmpeg

import (
	"context"
	"os/exec"
	"strings"

	"github.com/forPelevin/capburn/internal/domain/subtitles"
	"github.com/forPelevin/capburn/internal/types"
)

type Adapter struct {
	ffmpeg string
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(ffmpegPath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Adapter{ffmpeg: ffmpegPath, run: combinedOutput}
}

// WithRunner replaces process execution (for tests).
func (a *Adapter) WithRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) *Adapter {
	a.run = run
	return a
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMedia, outWav string) error {
	if b, err := a.run(ctx, a.ffmpeg, extractArgs(inMedia, outWav)...); err != nil {
		return &types.TranscodeError{Op: "ffmpeg extract audio", Output: string(b), Err: err}
	}
	return nil
}

// RenderSubtitles burns srtPath into the video stream and copies audio through.
func (a *Adapter) RenderSubtitles(ctx context.Context, inMedia, srtPath, outMedia string, style types.Style) error {
	if b, err := a.run(ctx, a.ffmpeg, renderArgs(inMedia, srtPath, outMedia, style)...); err != nil {
		return &types.TranscodeError{Op: "ffmpeg render subtitles", Output: string(b), Err: err}
	}
	return nil
}

func extractArgs(inMedia, outWav string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inMedia,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		outWav,
	}
}

func renderArgs(inMedia, srtPath, outMedia string, style types.Style) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", inMedia,
		"-map", "0:v:0",
		"-map", "0:a?",
		"-vf", subtitlesFilter(srtPath, style),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "copy",
		outMedia,
	}
}

func subtitlesFilter(srtPath string, style types.Style) string {
	f := "subtitles=" + escapeFilterPath(srtPath)
	if fs := subtitles.ForceStyle(style); fs != "" {
		f += ":force_style='" + fs + "'"
	}
	return f
}

func escapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "\\\\")
	p = strings.ReplaceAll(p, ":", "\\:")
	p = strings.ReplaceAll(p, "'", "\\'")
	p = strings.ReplaceAll(p, ",", "\\,")
	return p
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
