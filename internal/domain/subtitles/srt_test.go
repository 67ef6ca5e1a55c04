package subtitles

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/capburn/internal/types"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{3661.5, "01:01:01,500"},
		{1.25, "00:00:01,250"},
		{59.9996, "00:00:59,999"},
		{31.904, "00:00:31,904"},
		{0.001, "00:00:00,001"},
		{86399.5, "23:59:59,500"},
		{90000, "25:00:00,000"},
		{-3, "00:00:00,000"},
		{math.NaN(), "00:00:00,000"},
	}
	for _, tc := range tests {
		if got := FormatTimestamp(tc.in); got != tc.want {
			t.Fatalf("FormatTimestamp(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatTimestamp_RoundTripsTruncatedMillis(t *testing.T) {
	check := func(s float64) {
		t.Helper()
		ts := FormatTimestamp(s)
		got, err := ParseTimestamp(ts)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", ts, err)
		}
		want := int64(math.Floor(s * 1000))
		if got.Milliseconds() != want {
			t.Fatalf("round trip of %v via %q = %dms, want %dms", s, ts, got.Milliseconds(), want)
		}
	}
	// whisper.cpp offsets arrive as integer milliseconds divided by 1000.
	for i := 0; i < 86400*1000; i += 997 {
		check(float64(i) / 1000)
	}
	for i := 0; i < 86400*8; i += 7 {
		check(float64(i)/8 + 0.0004)
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, in := range []string{"", "00:00:00", "00:00,000", "aa:00:00,000", "00:61:00,000", "00:00:00,1000"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Fatalf("ParseTimestamp(%q): expected error", in)
		}
	}
	got, err := ParseTimestamp("00:01:02.345")
	if err != nil {
		t.Fatalf("period separator: %v", err)
	}
	if got != time.Minute+2*time.Second+345*time.Millisecond {
		t.Fatalf("unexpected duration: %s", got)
	}
}

func TestRenderSRT_SingleSegment(t *testing.T) {
	got := RenderSRT(types.Transcript{Segments: []types.Segment{{Start: 0, End: 1, Text: "Hi"}}})
	want := "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n"
	if got != want {
		t.Fatalf("RenderSRT = %q, want %q", got, want)
	}
}

func TestRenderSRT_TrimsTextWithoutEscaping(t *testing.T) {
	got := RenderSRT(types.Transcript{Segments: []types.Segment{{Start: 2, End: 3.5, Text: "  <i>a & b</i>\t"}}})
	if !strings.Contains(got, "\n<i>a & b</i>\n\n") {
		t.Fatalf("unexpected text line in %q", got)
	}
}

func TestRenderSRT_BlocksAreNumberedFromOne(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17} {
		tr := types.Transcript{}
		for i := 0; i < n; i++ {
			tr.Segments = append(tr.Segments, types.Segment{
				Start: float64(i) * 2,
				End:   float64(i)*2 + 1.5,
				Text:  " line ",
			})
		}
		cues, err := ParseSRT(strings.NewReader(RenderSRT(tr)))
		if err != nil {
			t.Fatalf("n=%d: parse: %v", n, err)
		}
		if len(cues) != n {
			t.Fatalf("n=%d: got %d cues", n, len(cues))
		}
		for i, c := range cues {
			if c.Index != i+1 {
				t.Fatalf("n=%d: cue %d has index %d", n, i, c.Index)
			}
			if c.Text != "line" {
				t.Fatalf("n=%d: cue %d text %q", n, i, c.Text)
			}
			if c.End <= c.Start {
				t.Fatalf("n=%d: cue %d end %s <= start %s", n, i, c.End, c.Start)
			}
		}
	}
}

func TestWriteSRT_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	if err := os.WriteFile(path, []byte("stale content that is longer"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tr := types.Transcript{Segments: []types.Segment{{Start: 0, End: 1, Text: "Привет"}}}
	if err := WriteSRT(path, tr); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "1\n00:00:00,000 --> 00:00:01,000\nПривет\n\n" {
		t.Fatalf("unexpected file content %q", string(b))
	}
}

func TestParseSRT_RejectsMalformedBlock(t *testing.T) {
	_, err := ParseSRT(strings.NewReader("1\nnot a timing line\ntext\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseSRT_CRLFAndBOM(t *testing.T) {
	in := "\ufeff1\r\n00:00:01,000 --> 00:00:02,500 X1:10\r\nfirst\r\nsecond\r\n\r\n"
	cues, err := ParseSRT(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cues) != 1 || cues[0].Text != "first\nsecond" || cues[0].End != 2500*time.Millisecond {
		t.Fatalf("unexpected cues: %+v", cues)
	}
}
