// Package graph defines the boundary between the video sink and the
// multi-input compositing graph.
//
// A Graph accepts stream registrations and frames in timeline order and
// reports results asynchronously through a Listener whose callbacks run on a
// caller-chosen Executor. Compositor is the in-process implementation used by
// export and playback: it applies effect geometry, assigns output indexes,
// and enforces monotonic render times on a single worker goroutine.
package graph
