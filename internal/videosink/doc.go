// Package videosink receives decoded or synthetic frames, stamps them with a
// render time derived from the shared stream offset, and forwards them to the
// compositing graph.
//
// The input side (Initialize, RegisterInputStream, RegisterInputFrame) is
// driven by one goroutine and never blocks on graph processing. The output
// side (OnOutputFrame) runs on the graph listener executor and asks the frame
// release control whether each composited frame is released, dropped, or
// ignored.
package videosink
