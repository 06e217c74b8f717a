// Package compositing owns the video sink and compositing graph of a single
// session.
//
// A Builder configures release control, the graph factory, the initial
// stream offset and the listener executor, and builds exactly once. The
// resulting Provider creates its graph lazily the first time the sink is
// initialized, routes graph output back through the sink's release path, and
// funnels every failure, synchronous or asynchronous, into one channel.
package compositing
