package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/forPelevin/capburn/internal/config"
	"github.com/forPelevin/capburn/internal/deps"
	"github.com/forPelevin/capburn/internal/domain/subtitles"
	"github.com/forPelevin/capburn/internal/language"
	"github.com/forPelevin/capburn/internal/ports"
	"github.com/forPelevin/capburn/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/capburn/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/capburn/internal/storage"
	"github.com/forPelevin/capburn/internal/types"
	"github.com/forPelevin/capburn/internal/usecase"
)

// Service runs caption pipelines against files in working storage. It holds
// no per-request state; concurrent calls are independent.
type Service struct {
	cfg   config.Config
	store *storage.Store
	uc    usecase.Usecase
	log   *slog.Logger
}

type Result struct {
	RequestID string
	SRTFile   string
	VideoFile string
	Segments  int
}

// New wires the ffmpeg and whisper.cpp adapters.
func New(cfg config.Config, store *storage.Store, logger *slog.Logger) *Service {
	return NewWithDeps(cfg, store, usecase.Deps{
		Transcoder: ffmpeg.New(cfg.FFmpeg.Binary),
		Recognizer: whispercpp.New(cfg.Whisper.Binary, cfg.Whisper.Model, cfg.Whisper.Threads),
	}, logger)
}

// NewWithDeps builds a Service over arbitrary port implementations.
func NewWithDeps(cfg config.Config, store *storage.Store, d usecase.Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.String("component", "pipeline"))
	t := usecase.Timeouts{
		Extract:   cfg.ExtractTimeout(),
		Recognize: cfg.RecognizeTimeout(),
		Render:    cfg.RenderTimeout(),
	}
	return &Service{cfg: cfg, store: store, uc: usecase.New(d, t, logger), log: logger}
}

// Requirements lists the external tools the configured adapters need.
func (s *Service) Requirements() []deps.Requirement {
	return []deps.Requirement{
		{Name: "ffmpeg", Command: s.cfg.FFmpeg.Binary, Description: "audio extraction and subtitle burn-in"},
		{Name: "whisper.cpp", Command: s.cfg.Whisper.Binary, Description: "speech recognition"},
		{Name: "whisper model", Path: s.cfg.Whisper.Model, Description: "ggml model weights"},
	}
}

// Upload stores a video upload.
func (s *Service) Upload(name string, r io.Reader) (types.MediaAsset, error) {
	a, err := s.store.Save(name, r, storage.VideoExtensions)
	if err != nil {
		return types.MediaAsset{}, err
	}
	s.log.Info("video stored", slog.String("original", name), slog.String("file", a.Name))
	return a, nil
}

// UploadCaptions stores a caption file upload.
func (s *Service) UploadCaptions(name string, r io.Reader) (types.MediaAsset, error) {
	a, err := s.store.Save(name, r, storage.CaptionExtensions)
	if err != nil {
		var ve *types.ValidationError
		if errors.As(err, &ve) {
			ve.Field = "srt"
		}
		return types.MediaAsset{}, err
	}
	s.log.Info("captions stored", slog.String("original", name), slog.String("file", a.Name))
	return a, nil
}

// Open resolves a stored file for download.
func (s *Service) Open(name string) (types.MediaAsset, error) {
	return s.store.Resolve(name)
}

// Generate transcribes a stored video and burns the captions in. An empty
// language falls back to the configured recognizer language.
func (s *Service) Generate(ctx context.Context, videoName, lang string) (Result, error) {
	video, err := s.store.Resolve(videoName)
	if err != nil {
		return Result{}, err
	}
	if lang, err = normalizeLanguage(lang); err != nil {
		return Result{}, err
	}
	if lang == "" {
		lang = s.cfg.Whisper.Language
	}

	ws, err := s.store.NewWorkspace(uuid.NewString())
	if err != nil {
		return Result{}, err
	}
	defer s.cleanup(ws)

	log := s.log.With(slog.String("request_id", ws.ID), slog.String("file", video.Name))
	log.Info("generating captions", slog.String("language", lang))

	// Render inside the workspace so a failing request never touches
	// outputs another request on the same video has already published.
	srt, out := s.store.Outputs(video)
	res, err := s.uc.Generate(ctx, usecase.Input{
		Media:    video.Path,
		WorkDir:  ws.Dir,
		SRTPath:  filepath.Join(ws.Dir, "captions.srt"),
		OutPath:  filepath.Join(ws.Dir, "output.mp4"),
		Language: lang,
		Style:    s.cfg.Style,
	})
	if err != nil {
		log.Warn("caption generation failed", slog.String("error", err.Error()))
		return Result{}, err
	}
	if err := s.store.Publish(res.OutPath, out); err != nil {
		return Result{}, err
	}
	if err := s.store.Publish(res.SRTPath, srt); err != nil {
		return Result{}, err
	}
	log.Info("captions generated", slog.Int("segments", len(res.Transcript.Segments)), slog.String("output", out.Name))
	return Result{RequestID: ws.ID, SRTFile: srt.Name, VideoFile: out.Name, Segments: len(res.Transcript.Segments)}, nil
}

// BurnCaptions renders a stored caption file into a stored video without
// transcription. lang is validated and recorded but does not affect rendering.
func (s *Service) BurnCaptions(ctx context.Context, videoName, captionName, lang string) (Result, error) {
	lang, err := normalizeLanguage(lang)
	if err != nil {
		return Result{}, err
	}
	video, err := s.store.Resolve(videoName)
	if err != nil {
		return Result{}, err
	}
	caption, err := s.store.Resolve(captionName)
	if err != nil {
		var nf *types.NotFoundError
		if errors.As(err, &nf) {
			return Result{}, &types.ValidationError{Field: "srt", Reason: "caption file not found"}
		}
		return Result{}, err
	}

	ws, err := s.store.NewWorkspace(uuid.NewString())
	if err != nil {
		return Result{}, err
	}
	defer s.cleanup(ws)

	log := s.log.With(slog.String("request_id", ws.ID), slog.String("file", video.Name), slog.String("captions", caption.Name))
	cues := countCues(caption.Path, log)
	log.Info("burning supplied captions", slog.Int("cues", cues), slog.String("language", language.Display(lang)))

	_, out := s.store.Outputs(video)
	rendered := filepath.Join(ws.Dir, "output.mp4")
	if err := s.uc.GenerateFromExternalCaptions(ctx, usecase.ExternalInput{
		Media:       video.Path,
		CaptionPath: caption.Path,
		OutPath:     rendered,
		Style:       s.cfg.Style,
	}); err != nil {
		log.Warn("caption burn-in failed", slog.String("error", err.Error()))
		return Result{}, err
	}
	if err := s.store.Publish(rendered, out); err != nil {
		return Result{}, err
	}
	log.Info("captions burned", slog.String("output", out.Name))
	return Result{RequestID: ws.ID, VideoFile: out.Name, Segments: cues}, nil
}

func (s *Service) cleanup(ws storage.Workspace) {
	if err := ws.Cleanup(); err != nil {
		s.log.Warn("workspace cleanup failed", slog.String("request_id", ws.ID), slog.String("error", err.Error()))
	}
}

// countCues is informational; the renderer is the authority on caption validity.
func countCues(path string, log *slog.Logger) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	cues, err := subtitles.ParseSRT(f)
	if err != nil {
		log.Warn("supplied captions do not parse as srt", slog.String("error", err.Error()))
		return 0
	}
	return len(cues)
}

func normalizeLanguage(lang string) (string, error) {
	code, err := language.Normalize(lang)
	if err != nil {
		return "", &types.ValidationError{Field: "language", Reason: err.Error()}
	}
	return code, nil
}

// ensure adapters implement ports
var _ ports.Transcoder = (*ffmpeg.Adapter)(nil)
var _ ports.Recognizer = (*whispercpp.Adapter)(nil)
