// Package services defines the [Generator] interface for music model backends and the HTTP clients the CLI and TUI use against a running server.
//
// # Generator Interface
//
// All model backends implement a common abstraction: a request goes in, progress
// callbacks fire while the backend plans and renders, and a finished audio file
// comes back. The engine in the tasks package drives generation entirely through
// this interface and never sees model internals.
//
// # Sidecar Implementation
//
// [RemoteGenerator] talks to the inference sidecar over HTTP (default port 8001).
//
// One generation is submit, poll, fetch: POST /generate returns a task ID,
// GET /status/{id} is polled until the task reaches a terminal status, and the
// rendered audio is streamed from GET /audio/{id} to a temporary file. Canceling
// the context posts /cancel/{id} so the sidecar stops after the step in flight.
// Status polls run on an interval; every working stage surfaces through the
// progress callback verbatim.
//
// # Studio Clients
//
// [APIClient] makes raw HTTP requests to a running soundsmith server. CLI
// commands and the TUI use it instead of opening the database so they observe
// the same state the web UI does.
//
// The typed views layer job and queue operations over it:
//   - [JobSummary] : One generation job as the API serves it
//   - [QueueSummary] : The live queue plus recent jobs
//   - [HealthStatus] : Server and generator readiness
//
// # Error Handling
//
// The sidecar client maps failures onto typed errors from the shared package:
//   - [shared.ErrGeneratorUnavailable] : Sidecar unreachable or not ready
//   - [shared.ErrGenerationFailed] : Task ended failed or canceled on the model server
//
// Transport errors from [APIClient] pass through unwrapped; callers wrap them
// as they see fit.
package services
