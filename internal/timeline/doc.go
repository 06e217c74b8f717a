// Package timeline holds the immutable description of an edited output:
// entries, the sequences that order them, and the composition that wraps one
// or more sequences with a global effect chain.
//
// The package owns no timing logic. Frame counting for still images lives in
// internal/synth and per-frame sequencing lives in internal/sequencer; this
// package only validates shape (positive durations and rates, known effect
// kinds) and loads composition files written in TOML.
package timeline
