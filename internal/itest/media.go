//go:build integration

package itest

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// mediaInfo is the subset of ffprobe's JSON report the tests compare.
type mediaInfo struct {
	Duration float64
	Video    bool
	Audio    bool
}

func inspectMedia(ctx context.Context, path string) (mediaInfo, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type",
		"-of", "json",
		path,
	).CombinedOutput()
	if err != nil {
		return mediaInfo{}, fmt.Errorf("ffprobe %s: %w\n%s", path, err, out)
	}

	var report struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &report); err != nil {
		return mediaInfo{}, fmt.Errorf("decode ffprobe report for %s: %w", path, err)
	}
	dur, err := strconv.ParseFloat(report.Format.Duration, 64)
	if err != nil {
		return mediaInfo{}, fmt.Errorf("parse duration %q: %w", report.Format.Duration, err)
	}
	info := mediaInfo{Duration: dur}
	for _, s := range report.Streams {
		switch s.CodecType {
		case "video":
			info.Video = true
		case "audio":
			info.Audio = true
		}
	}
	return info, nil
}
