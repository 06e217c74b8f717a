package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1920, Height: 1080, AvgFrameRate: "30000/1001"},
			{CodecType: "audio"},
		},
		Format: Format{
			Duration: "2.5",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationUs() != 2_500_000 {
		t.Fatalf("unexpected duration: %v", result.DurationUs())
	}
	video, ok := result.FirstVideoStream()
	if !ok || video.Width != 1920 {
		t.Fatalf("unexpected video stream %+v", video)
	}
	if rate := video.FrameRate(); math.Abs(rate-29.97) > 0.001 {
		t.Fatalf("unexpected frame rate %v", rate)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.DurationUs() != 0 {
		t.Fatalf("expected zero duration, got %d", result.DurationUs())
	}
	if rate := (Stream{AvgFrameRate: "0/0", RFrameRate: "25/1"}).FrameRate(); rate != 25 {
		t.Fatalf("expected fallback to r_frame_rate, got %v", rate)
	}
	if rate := (Stream{}).FrameRate(); rate != 0 {
		t.Fatalf("expected unknown frame rate, got %v", rate)
	}
}

func TestParseFrameTimesRebasesOnFirstFrame(t *testing.T) {
	data := []byte(`{"frames":[
		{"best_effort_timestamp_time":"1.400000"},
		{"best_effort_timestamp_time":"1.433333"},
		{"best_effort_timestamp_time":"N/A","pts_time":"1.466667"}
	]}`)
	times, err := ParseFrameTimes(data)
	if err != nil {
		t.Fatalf("ParseFrameTimes failed: %v", err)
	}
	want := []int64{0, 33_333, 66_667}
	if len(times) != len(want) {
		t.Fatalf("expected %v, got %v", want, times)
	}
	for i := range want {
		if times[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, times)
		}
	}
}

func TestParseFrameTimesRejectsMissingTimestamp(t *testing.T) {
	if _, err := ParseFrameTimes([]byte(`{"frames":[{"pts_time":"bad"}]}`)); err == nil {
		t.Fatal("expected error for unparseable timestamp")
	}
}
