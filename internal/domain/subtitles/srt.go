package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/capburn/internal/types"
)

// Cue is one numbered block read back from an SRT file.
type Cue struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Milliseconds are
// truncated, so values just below a whole second never roll over.
// Negative input is clamped to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Floor(seconds * 1000))
	hours := total / 3600000
	minutes := total / 60000 % 60
	secs := total / 1000 % 60
	millis := total % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp is the inverse of FormatTimestamp. A period is accepted in
// place of the comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(parts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	h, errH := strconv.Atoi(hms[0])
	m, errM := strconv.Atoi(hms[1])
	s, errS := strconv.Atoi(hms[2])
	ms, errMS := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if h < 0 || m < 0 || m > 59 || s < 0 || s > 59 || ms < 0 || ms > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// RenderSRT serializes the transcript as numbered SRT blocks starting at 1.
// Segment text is trimmed and otherwise written as-is.
func RenderSRT(tr types.Transcript) string {
	var b strings.Builder
	for i, seg := range tr.Segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
		b.WriteString(FormatTimestamp(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.End))
		b.WriteString("\n")
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteSRT writes the serialized transcript to path, replacing any existing file.
func WriteSRT(path string, tr types.Transcript) error {
	if err := os.WriteFile(path, []byte(RenderSRT(tr)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// ParseSRT reads numbered cue blocks. Multi-line cue text is joined with
// newlines; blocks without a timing line are rejected.
func ParseSRT(r io.Reader) ([]Cue, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		cues  []Cue
		block []string
	)
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		cue, err := parseBlock(block)
		block = block[:0]
		if err != nil {
			return err
		}
		cues = append(cues, cue)
		return nil
	}
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if len(cues) == 0 && len(block) == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cues, nil
}

func parseBlock(lines []string) (Cue, error) {
	if len(lines) < 2 {
		return Cue{}, fmt.Errorf("srt block %q: missing timing line", lines[0])
	}
	idx, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Cue{}, fmt.Errorf("srt block %q: invalid index", lines[0])
	}
	start, end, ok := strings.Cut(lines[1], "-->")
	if !ok {
		return Cue{}, fmt.Errorf("srt block %d: invalid timing line %q", idx, lines[1])
	}
	st, err := ParseTimestamp(start)
	if err != nil {
		return Cue{}, fmt.Errorf("srt block %d: %w", idx, err)
	}
	// Position hints may follow the end time.
	endField := strings.Fields(end)
	if len(endField) == 0 {
		return Cue{}, fmt.Errorf("srt block %d: missing end time", idx)
	}
	et, err := ParseTimestamp(endField[0])
	if err != nil {
		return Cue{}, fmt.Errorf("srt block %d: %w", idx, err)
	}
	return Cue{Index: idx, Start: st, End: et, Text: strings.Join(lines[2:], "\n")}, nil
}
