package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index          int    `json:"index"`
	CodecName      string `json:"codec_name"`
	CodecType      string `json:"codec_type"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	PixFmt         string `json:"pix_fmt"`
	ColorSpace     string `json:"color_space"`
	ColorRange     string `json:"color_range"`
	ColorTransfer  string `json:"color_transfer"`
	RFrameRate     string `json:"r_frame_rate"`
	AvgFrameRate   string `json:"avg_frame_rate"`
	Duration       string `json:"duration"`
	NBFrames       string `json:"nb_frames"`
	SampleRate     string `json:"sample_rate"`
	Channels       int    `json:"channels"`
	BitRate        string `json:"bit_rate"`
	CodecTagString string `json:"codec_tag_string"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary, path, err := normalizeArgs(binary, path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w%s", err, stderrOf(err))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

type frameList struct {
	Frames []struct {
		BestEffortTimestampTime string `json:"best_effort_timestamp_time"`
		PtsTime                 string `json:"pts_time"`
	} `json:"frames"`
}

// FrameTimes returns the presentation times, in microseconds relative to the
// first frame, of every frame of the first video stream.
func FrameTimes(ctx context.Context, binary string, path string) ([]int64, error) {
	binary, path, err := normalizeArgs(binary, path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe frames: %w", err)
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-select_streams", "v:0",
		"-show_entries", "frame=best_effort_timestamp_time,pts_time", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe frames: %w%s", err, stderrOf(err))
	}
	return ParseFrameTimes(output)
}

// ParseFrameTimes decodes the JSON written by FrameTimes' ffprobe invocation.
func ParseFrameTimes(data []byte) ([]int64, error) {
	var list frameList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("ffprobe parse frames: %w", err)
	}
	times := make([]int64, 0, len(list.Frames))
	var base int64
	for i, frame := range list.Frames {
		value := frame.BestEffortTimestampTime
		if strings.TrimSpace(value) == "" || value == "N/A" {
			value = frame.PtsTime
		}
		seconds := parseFloat(value)
		if math.IsNaN(seconds) || (seconds == 0 && strings.TrimSpace(value) == "") {
			return nil, fmt.Errorf("ffprobe parse frames: frame %d has no timestamp", i)
		}
		us := int64(math.Round(seconds * 1e6))
		if i == 0 {
			base = us
		}
		times = append(times, us-base)
	}
	return times, nil
}

// FirstVideoStream returns the first video stream, if any.
func (r Result) FirstVideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// DurationUs returns the container duration in microseconds, or 0 when
// unavailable or invalid.
func (r Result) DurationUs() int64 {
	seconds := r.DurationSeconds()
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	return int64(math.Round(seconds * 1e6))
}

// FrameRate returns the average frame rate, falling back to the real base
// rate. Zero means unknown.
func (s Stream) FrameRate() float64 {
	if rate := parseRational(s.AvgFrameRate); rate > 0 {
		return rate
	}
	return parseRational(s.RFrameRate)
}

func parseRational(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, ok := strings.Cut(value, "/")
	if !ok {
		f := parseFloat(value)
		if math.IsNaN(f) {
			return 0
		}
		return f
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if math.IsNaN(n) || math.IsNaN(d) || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

func normalizeArgs(binary, path string) (string, string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", errors.New("empty path")
	}
	return binary, path, nil
}

func stderrOf(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return ": " + msg
		}
	}
	return ""
}
