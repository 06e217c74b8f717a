// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual video/audio stream properties, including colour tags
//   - Format: container-level metadata (duration, size, bitrate)
//
// Entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - FrameTimes: lists the presentation times of the first video stream
//
// Helper methods on Result and Stream provide convenient access to stream
// selection, duration parsing, and rational frame rates.
package ffprobe
