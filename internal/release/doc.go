// Package release decides, once per composited frame, whether the frame is
// force-released, dropped, ignored, or released normally at its render time.
//
// Control is a pure policy: every input it needs arrives in a Timing value, so
// identical inputs always produce identical verdicts. The state that feeds it
// (when the last frame was released, whether the first frame has gone out)
// is tracked by the video sink that consults it.
//
// Two rules hold for every evaluator: a frame flagged as the last frame of the
// stream is never dropped or ignored, and a force verdict wins over drop.
package release
