// Package tasks runs the studio's background work: the generation queue,
// library scans, filesystem watching, and model weight downloads.
//
// # Generation Queue
//
// [Engine] owns a single-worker FIFO queue in front of the generator sidecar:
//
//  1. [Engine.Submit] : Validate parameters, persist a pending job, enqueue it
//  2. [Engine.Run] : Drain the queue one job at a time until the context ends
//  3. [Engine.Cancel] : Stop the running job after its current step, or drop a
//     queued job before it starts
//
// Job rows in the database are the source of truth; the channel only carries
// IDs. On startup [Engine.Run] sweeps jobs left in pending or running state by
// a previous process and marks them failed.
//
// # Progress Reporting
//
// All operations use non-blocking channel sends for progress updates.
//
// The [ProgressUpdate] struct carries a phase, step counters, a message, and
// optional data for richer rendering. Updates use select with default so a
// slow consumer never stalls the worker. [Engine.Subscribe] fans updates out
// to any number of listeners.
//
// # Library Maintenance
//
// [Scanner] walks the library directory, probes audio files, and reconciles
// the catalog: new files become songs, changed files are re-probed, vanished
// files are soft deleted. [Watcher] triggers a scan after filesystem events
// settle, so external edits show up without a manual rescan.
//
// # Weight Downloads
//
// [Fetcher] downloads model weights listed in the embedded manifest with a
// bounded worker pool. Partial files resume with Range requests, transfers
// share one rate limiter, and digests are verified on request.
package tasks
