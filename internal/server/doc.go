// Package server exposes the studio over HTTP: the JSON API under /api and
// the SPA bundle everywhere else.
//
// # Layout
//
// [Server] owns the repositories, the audio store, and the generation
// [tasks.Engine]; each resource gets a handler file and the route tree lives
// in Routes. Handlers stay thin: decode, delegate, encode. Queue semantics
// never leak above the engine.
//
// # Error Envelope
//
// Every error response is the same JSON shape:
//
//	{"error": "song not found: abc123"}
//
// Handlers wrap repository misses in the shared sentinel errors and fail maps
// sentinels onto status codes: not-found sentinels to 404, invalid input to
// 400, a full queue or an unconfigured generator to 503. Anything unmapped is
// logged and answered with an opaque 500.
//
// # Audio
//
// Song, reference, and job-result audio stream through http.ServeContent, so
// range requests work and players can seek. Paths always come from catalog
// rows; the API never serves a path the client names directly.
//
// # Sessions
//
// There are none. The studio runs on localhost for one person; the auth
// endpoints answer with the default user so the front end's account plumbing
// stays inert but functional.
package server
