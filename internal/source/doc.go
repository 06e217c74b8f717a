// Package source resolves timeline source references into descriptions the
// sequencer can feed to the video sink: input kind, stream format, duration,
// and for decoded video a Decoder listing frame presentation times.
//
// FileResolver reads image headers with image.DecodeConfig and probes video
// with ffprobe. StaticResolver serves fixed descriptions and backs tests and
// dry runs.
package source
