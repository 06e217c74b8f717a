// Package export runs a composition through the compositing provider and
// reports what came out.
//
// An Exporter wires a single-sequence composition to a provider whose sink
// releases frames on a FrameClock, so every frame is on time and nothing is
// dropped. A Player uses the same wiring with a WallClock and paces frames to
// their release instants. Both hand composited frames to an Output; the
// ManifestWriter output records them as JSON lines guarded by a file lock.
package export
