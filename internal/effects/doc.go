// Package effects models the opaque transforms attached to timeline entries
// and compositions.
//
// Effects here only describe how they change the output geometry of a frame
// (Presentation and Scale). The pixel kernels themselves belong to the
// compositing graph implementation; this package gives the graph, the
// sequencer, and composition files one shared vocabulary for effect chains.
package effects
