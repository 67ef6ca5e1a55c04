package whispercpp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleJSON = `{
  "result": {"language": "en"},
  "transcription": [
    {"timestamps": {"from": "00:00:00,000", "to": "00:00:01,500"}, "offsets": {"from": 0, "to": 1500}, "text": " Hello there."},
    {"timestamps": {"from": "00:00:01,500", "to": "00:00:01,500"}, "offsets": {"from": 1500, "to": 1500}, "text": " tail"},
    {"timestamps": {"from": "00:00:02,000", "to": "00:00:03,000"}, "offsets": {"from": 2000, "to": 3000}, "text": "   "}
  ]
}`

func TestTranscribe_ReadsJSONOutput(t *testing.T) {
	work := t.TempDir()
	var gotArgs []string
	a := New("whisper-cli", "model.bin", 4).WithRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, os.WriteFile(filepath.Join(work, "whisper.json"), []byte(sampleJSON), 0o644)
	})

	tr, err := a.Transcribe(context.Background(), "/tmp/a.wav", work, "")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if tr.Language != "en" {
		t.Fatalf("language = %q", tr.Language)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", tr.Segments)
	}
	if tr.Segments[0].Text != "Hello there." || tr.Segments[0].End != 1.5 {
		t.Fatalf("unexpected first segment %+v", tr.Segments[0])
	}
	if tr.Segments[1].End <= tr.Segments[1].Start {
		t.Fatalf("zero-length segment not widened: %+v", tr.Segments[1])
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-m model.bin", "-f /tmp/a.wav", "-l auto", "-oj", "-t 4"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestTranscribe_ProcessFailure(t *testing.T) {
	a := New("whisper-cli", "model.bin", 0).WithRunner(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("failed to load model"), errors.New("exit status 1")
	})
	_, err := a.Transcribe(context.Background(), "a.wav", t.TempDir(), "de")
	if err == nil || !strings.Contains(err.Error(), "failed to load model") {
		t.Fatalf("expected diagnostic in error, got %v", err)
	}
}
