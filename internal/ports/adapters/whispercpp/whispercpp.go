package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forPelevin/capburn/internal/types"
)

type Adapter struct {
	bin     string
	model   string
	threads int
	run     func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func New(binPath, modelPath string, threads int) *Adapter {
	return &Adapter{bin: binPath, model: modelPath, threads: threads, run: combinedOutput}
}

// WithRunner replaces process execution (for tests).
func (a *Adapter) WithRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) *Adapter {
	a.run = run
	return a
}

// output mirrors the subset of whisper.cpp's -oj document we read.
type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (a *Adapter) Transcribe(ctx context.Context, wavPath, workDir, language string) (types.Transcript, error) {
	outPrefix := filepath.Join(workDir, "whisper")
	b, err := a.run(ctx, a.bin, a.args(wavPath, outPrefix, language)...)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, strings.TrimSpace(string(b)))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read whisper output: %w", err)
	}
	return decode(jb)
}

func (a *Adapter) args(wavPath, outPrefix, language string) []string {
	if language == "" {
		language = "auto"
	}
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", language,
		"-oj",
		"-of", outPrefix,
		"-np",
	}
	if a.threads > 0 {
		args = append(args, "-t", strconv.Itoa(a.threads))
	}
	return args
}

func decode(jb []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(jb, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("decode whisper output: %w", err)
	}
	tr := types.Transcript{Language: out.Result.Language}
	for _, s := range out.Transcription {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		start := float64(s.Offsets.From) / 1000
		end := float64(s.Offsets.To) / 1000
		if start < 0 {
			start = 0
		}
		if end <= start {
			// whisper.cpp occasionally emits zero-length tail segments.
			end = start + 0.001
		}
		tr.Segments = append(tr.Segments, types.Segment{Start: start, End: end, Text: text})
	}
	return tr, nil
}

func combinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}
