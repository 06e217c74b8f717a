// Package sequencer walks a timeline sequence in order and feeds every entry's
// frames, synthetic or decoded, into the video sink with no gap or overlap
// across entry boundaries.
//
// Each entry's frames carry presentation times relative to the entry; the
// sequencer moves the stream offset to the entry's start before registering
// them. Run returns a Tally with the frame count and both the requested and
// the realized (frame-quantized) duration. Plan performs the same accounting
// without a sink.
package sequencer
