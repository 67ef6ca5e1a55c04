package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/forPelevin/capburn/internal/config"
	"github.com/forPelevin/capburn/internal/storage"
	"github.com/forPelevin/capburn/internal/types"
	"github.com/forPelevin/capburn/internal/usecase"
)

type fakeTranscoder struct {
	mu       sync.Mutex
	calls    int
	workDirs []string
}

func (f *fakeTranscoder) ExtractAudioMono16k(_ context.Context, _, outWav string) error {
	f.mu.Lock()
	f.calls++
	f.workDirs = append(f.workDirs, filepath.Dir(outWav))
	f.mu.Unlock()
	return os.WriteFile(outWav, []byte("RIFF"), 0o644)
}

func (f *fakeTranscoder) RenderSubtitles(_ context.Context, _, _, outMedia string, _ types.Style) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return os.WriteFile(outMedia, []byte("mp4"), 0o644)
}

type fakeRecognizer struct {
	mu    sync.Mutex
	langs []string
}

func (f *fakeRecognizer) Transcribe(_ context.Context, _, workDir, language string) (types.Transcript, error) {
	f.mu.Lock()
	f.langs = append(f.langs, language)
	f.mu.Unlock()
	// Scratch output lands in the workspace, like whisper.cpp's -of prefix.
	if err := os.WriteFile(filepath.Join(workDir, "whisper.json"), []byte("{}"), 0o644); err != nil {
		return types.Transcript{}, err
	}
	return types.Transcript{Segments: []types.Segment{{Start: 0, End: 1, Text: "Hi"}}}, nil
}

func newService(t *testing.T) (*Service, *storage.Store, *fakeTranscoder, *fakeRecognizer) {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	cfg := config.Default()
	cfg.Whisper.Language = "de"
	tc := &fakeTranscoder{}
	rec := &fakeRecognizer{}
	return NewWithDeps(cfg, store, usecase.Deps{Transcoder: tc, Recognizer: rec}, nil), store, tc, rec
}

func TestGenerate_ProducesOutputsAndCleansWorkspace(t *testing.T) {
	svc, store, tc, rec := newService(t)
	video, err := svc.Upload("My Talk.mp4", strings.NewReader("video"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	res, err := svc.Generate(context.Background(), video.Name, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	base := strings.TrimSuffix(video.Name, ".mp4")
	if res.SRTFile != base+".srt" || res.VideoFile != base+"_subtitled.mp4" {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, name := range []string{res.SRTFile, res.VideoFile} {
		if _, err := store.Resolve(name); err != nil {
			t.Fatalf("output %s not downloadable: %v", name, err)
		}
	}
	if rec.langs[0] != "de" {
		t.Fatalf("configured language not used: %q", rec.langs[0])
	}
	if _, err := os.Stat(tc.workDirs[0]); !os.IsNotExist(err) {
		t.Fatalf("workspace should be removed, stat err=%v", err)
	}
}

func TestGenerate_MissingFileNeverInvokesTools(t *testing.T) {
	svc, _, tc, _ := newService(t)
	_, err := svc.Generate(context.Background(), "absent.mp4", "")
	var nf *types.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if tc.calls != 0 {
		t.Fatalf("transcoder invoked %d times", tc.calls)
	}
}

func TestGenerate_RejectsUnsupportedLanguage(t *testing.T) {
	svc, _, tc, _ := newService(t)
	video, err := svc.Upload("a.mp4", strings.NewReader("v"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	_, err = svc.Generate(context.Background(), video.Name, "tlh")
	var ve *types.ValidationError
	if !errors.As(err, &ve) || ve.Field != "language" {
		t.Fatalf("expected language ValidationError, got %v", err)
	}
	if tc.calls != 0 {
		t.Fatalf("transcoder invoked after validation failure")
	}
}

func TestGenerate_ConcurrentSameNameUploadsDoNotCollide(t *testing.T) {
	svc, _, tc, _ := newService(t)
	const n = 4
	results := make([]Result, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := svc.Upload("same.mp4", strings.NewReader("v"))
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = svc.Generate(context.Background(), v.Name, "en")
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d: %v", i, errs[i])
		}
		if seen[results[i].VideoFile] {
			t.Fatalf("duplicate output %s", results[i].VideoFile)
		}
		seen[results[i].VideoFile] = true
	}
	dirs := map[string]bool{}
	for _, d := range tc.workDirs {
		dirs[d] = true
	}
	if len(dirs) != n {
		t.Fatalf("expected %d distinct workspaces, got %d", n, len(dirs))
	}
}

func TestBurnCaptions(t *testing.T) {
	svc, _, tc, rec := newService(t)
	video, err := svc.Upload("clip.mkv", strings.NewReader("v"))
	if err != nil {
		t.Fatalf("upload video: %v", err)
	}
	caps, err := svc.UploadCaptions("clip.srt", strings.NewReader("1\n00:00:00,000 --> 00:00:01,000\nHi\n\n"))
	if err != nil {
		t.Fatalf("upload captions: %v", err)
	}

	res, err := svc.BurnCaptions(context.Background(), video.Name, caps.Name, "fr")
	if err != nil {
		t.Fatalf("burn: %v", err)
	}
	if !strings.HasSuffix(res.VideoFile, "_subtitled.mp4") || res.Segments != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if tc.calls != 1 || len(rec.langs) != 0 {
		t.Fatalf("expected a single render and no recognition, calls=%d recognitions=%d", tc.calls, len(rec.langs))
	}
}

func TestBurnCaptions_MissingCaptionsIsValidationError(t *testing.T) {
	svc, _, tc, _ := newService(t)
	video, err := svc.Upload("clip.mkv", strings.NewReader("v"))
	if err != nil {
		t.Fatalf("upload video: %v", err)
	}
	_, err = svc.BurnCaptions(context.Background(), video.Name, "gone.srt", "")
	var ve *types.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if tc.calls != 0 {
		t.Fatalf("transcoder invoked for missing captions")
	}
}

func TestUploadCaptions_RejectsNonSRT(t *testing.T) {
	svc, _, _, _ := newService(t)
	_, err := svc.UploadCaptions("subs.vtt", strings.NewReader("WEBVTT"))
	var ve *types.ValidationError
	if !errors.As(err, &ve) || ve.Field != "srt" {
		t.Fatalf("expected srt ValidationError, got %v", err)
	}
}

// gatedTranscoder holds the first render until released and fails every
// later render.
type gatedTranscoder struct {
	mu      sync.Mutex
	renders int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedTranscoder) ExtractAudioMono16k(_ context.Context, _, outWav string) error {
	return os.WriteFile(outWav, []byte("RIFF"), 0o644)
}

func (g *gatedTranscoder) RenderSubtitles(_ context.Context, _, _, outMedia string, _ types.Style) error {
	g.mu.Lock()
	g.renders++
	n := g.renders
	g.mu.Unlock()
	if err := os.WriteFile(outMedia, []byte("partial"), 0o644); err != nil {
		return err
	}
	if n > 1 {
		return errors.New("render failed")
	}
	close(g.entered)
	<-g.release
	return os.WriteFile(outMedia, []byte("rendered"), 0o644)
}

func TestGenerate_FailedRequestKeepsConcurrentOutputsOnSameVideo(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	tc := &gatedTranscoder{entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewWithDeps(config.Default(), store, usecase.Deps{Transcoder: tc, Recognizer: &fakeRecognizer{}}, nil)
	video, err := svc.Upload("talk.mp4", strings.NewReader("v"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := svc.Generate(context.Background(), video.Name, "en")
		first <- outcome{res, err}
	}()
	<-tc.entered

	_, err = svc.Generate(context.Background(), video.Name, "en")
	var te *types.TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("second request: expected TranscodeError, got %v", err)
	}

	close(tc.release)
	a := <-first
	if a.err != nil {
		t.Fatalf("first request: %v", a.err)
	}
	for _, name := range []string{a.res.SRTFile, a.res.VideoFile} {
		asset, err := store.Resolve(name)
		if err != nil {
			t.Fatalf("output %s missing after concurrent failure: %v", name, err)
		}
		if name == a.res.VideoFile {
			got, _ := os.ReadFile(asset.Path)
			if string(got) != "rendered" {
				t.Fatalf("video content %q", got)
			}
		}
	}
}

func TestGenerate_FailureLeavesEarlierOutputs(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	tc := &fakeTranscoder{}
	svc := NewWithDeps(config.Default(), store, usecase.Deps{Transcoder: tc, Recognizer: &fakeRecognizer{}}, nil)
	video, err := svc.Upload("talk.mp4", strings.NewReader("v"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	res, err := svc.Generate(context.Background(), video.Name, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	failing := NewWithDeps(config.Default(), store, usecase.Deps{
		Transcoder: tc,
		Recognizer: failingRecognizer{},
	}, nil)
	if _, err := failing.Generate(context.Background(), video.Name, ""); err == nil {
		t.Fatalf("expected recognition failure")
	}
	for _, name := range []string{res.SRTFile, res.VideoFile} {
		if _, err := store.Resolve(name); err != nil {
			t.Fatalf("earlier output %s removed: %v", name, err)
		}
	}
}

type failingRecognizer struct{}

func (failingRecognizer) Transcribe(context.Context, string, string, string) (types.Transcript, error) {
	return types.Transcript{}, errors.New("model crashed")
}
