// Package history persists export and playback sessions in SQLite.
//
// Each session is recorded when it starts, then completed with its realized
// frame count and duration or failed with a status derived from the error
// classification. Per-entry frame contributions are stored alongside so a
// finished export can be inspected later with `reel show`.
package history
