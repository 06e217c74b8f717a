// Package main hosts the reel CLI.
//
// Commands load a composition file, resolve its sources from disk, and either
// export it through the compositing provider, play it against the wall clock,
// or only plan its frame counts. Finished sessions are kept in the history
// database and can be listed or inspected later.
package main
