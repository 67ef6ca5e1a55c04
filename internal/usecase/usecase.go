package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/forPelevin/capburn/internal/domain/subtitles"
	"github.com/forPelevin/capburn/internal/ports"
	"github.com/forPelevin/capburn/internal/types"
)

type Deps struct {
	Transcoder ports.Transcoder
	Recognizer ports.Recognizer
}

// Timeouts bound each external call. Zero means no limit beyond ctx.
type Timeouts struct {
	Extract   time.Duration
	Recognize time.Duration
	Render    time.Duration
}

type Usecase struct {
	d   Deps
	t   Timeouts
	log *slog.Logger
}

func New(d Deps, t Timeouts, logger *slog.Logger) Usecase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return Usecase{d: d, t: t, log: logger}
}

type Input struct {
	Media    string
	WorkDir  string
	SRTPath  string
	OutPath  string
	Language string
	Style    types.Style
}

type Result struct {
	Transcript types.Transcript
	SRTPath    string
	OutPath    string
}

type ExternalInput struct {
	Media       string
	CaptionPath string
	OutPath     string
	Style       types.Style
}

// Transcribe extracts mono 16kHz audio from media into workDir and runs the
// recognizer over it. The extracted audio is removed before returning.
func (u Usecase) Transcribe(ctx context.Context, media, workDir, language string) (types.Transcript, error) {
	wav := filepath.Join(workDir, "audio.wav")
	defer os.Remove(wav)

	started := time.Now()
	if err := u.extract(ctx, media, wav); err != nil {
		return types.Transcript{}, err
	}
	u.log.Debug("audio extracted", slog.String("media", media), slog.Duration("took", time.Since(started)))

	started = time.Now()
	rctx, cancel := withTimeout(ctx, u.t.Recognize)
	defer cancel()
	tr, err := u.d.Recognizer.Transcribe(rctx, wav, workDir, language)
	if err != nil {
		if errors.Is(rctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("recognizer timed out after %s: %w", u.t.Recognize, err)
		}
		return types.Transcript{}, &types.RecognitionError{Err: err}
	}
	u.log.Info("speech recognized",
		slog.String("media", media),
		slog.Int("segments", len(tr.Segments)),
		slog.String("language", tr.Language),
		slog.Duration("took", time.Since(started)),
	)
	return tr, nil
}

// BurnIn writes tr to srtPath and renders it into a copy of media at outPath.
// On failure neither srtPath nor a partial outPath is left behind.
func (u Usecase) BurnIn(ctx context.Context, media string, tr types.Transcript, srtPath, outPath string, style types.Style) (err error) {
	if err := subtitles.WriteSRT(srtPath, tr); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(srtPath)
		}
	}()
	return u.render(ctx, media, srtPath, outPath, style)
}

// Generate runs Transcribe then BurnIn. Either step's error is returned as is.
func (u Usecase) Generate(ctx context.Context, in Input) (Result, error) {
	tr, err := u.Transcribe(ctx, in.Media, in.WorkDir, in.Language)
	if err != nil {
		return Result{}, err
	}
	if err := u.BurnIn(ctx, in.Media, tr, in.SRTPath, in.OutPath, in.Style); err != nil {
		return Result{}, err
	}
	return Result{Transcript: tr, SRTPath: in.SRTPath, OutPath: in.OutPath}, nil
}

// GenerateFromExternalCaptions burns a caller-supplied SRT file without
// transcription. Only the file's presence and extension are checked.
func (u Usecase) GenerateFromExternalCaptions(ctx context.Context, in ExternalInput) error {
	if err := CheckCaptionFile(in.CaptionPath); err != nil {
		return err
	}
	return u.render(ctx, in.Media, in.CaptionPath, in.OutPath, in.Style)
}

// CheckCaptionFile reports a ValidationError unless path is an existing
// regular file with an .srt extension.
func CheckCaptionFile(path string) error {
	if !strings.EqualFold(filepath.Ext(path), ".srt") {
		return &types.ValidationError{Field: "srt", Reason: "caption file must have .srt extension"}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return &types.ValidationError{Field: "srt", Reason: "caption file not found"}
	}
	if !fi.Mode().IsRegular() {
		return &types.ValidationError{Field: "srt", Reason: "caption file is not a regular file"}
	}
	return nil
}

func (u Usecase) extract(ctx context.Context, media, wav string) error {
	ctx, cancel := withTimeout(ctx, u.t.Extract)
	defer cancel()
	if err := u.d.Transcoder.ExtractAudioMono16k(ctx, media, wav); err != nil {
		return transcodeError(ctx, "extract audio", u.t.Extract, err)
	}
	return nil
}

func (u Usecase) render(ctx context.Context, media, srtPath, outPath string, style types.Style) error {
	started := time.Now()
	rctx, cancel := withTimeout(ctx, u.t.Render)
	defer cancel()
	if err := u.d.Transcoder.RenderSubtitles(rctx, media, srtPath, outPath, style); err != nil {
		_ = os.Remove(outPath)
		return transcodeError(rctx, "render subtitles", u.t.Render, err)
	}
	u.log.Info("subtitles rendered",
		slog.String("media", media),
		slog.String("output", outPath),
		slog.Duration("took", time.Since(started)),
	)
	return nil
}

func transcodeError(ctx context.Context, op string, limit time.Duration, err error) error {
	var te *types.TranscodeError
	if !errors.As(err, &te) {
		te = &types.TranscodeError{Op: op, Err: err}
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &types.TranscodeError{
			Op:     te.Op,
			Output: strings.TrimSpace(fmt.Sprintf("timed out after %s\n%s", limit, te.Output)),
			Err:    te.Err,
		}
	}
	return te
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
