// Package services defines shared utilities consumed by the compositing,
// sequencing, and export packages.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, timeline entry indexes, and
//     source references for logging.
//   - Structured error markers (lifecycle, source exhaustion, sink failures)
//     plus the Wrap helper, so every failure path reports through one taxonomy
//     regardless of which goroutine detected it.
//
// Use these helpers when wiring new components so failure classification and
// observability stay uniform across the pipeline.
package services
