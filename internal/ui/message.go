package ui

import (
	"time"

	"soundsmith/internal/services"
)

// tickMsg drives the polling loop.
type tickMsg time.Time

// statusFetchedMsg carries one poll round: the queue view and server health
// together. A nil queue with a non-nil err means the server was unreachable.
type statusFetchedMsg struct {
	queue  *services.QueueSummary
	health *services.HealthStatus
	err    error
}

// songsFetchedMsg carries a refreshed song catalog.
type songsFetchedMsg struct {
	songs []services.SongSummary
	err   error
}

// jobCanceledMsg reports the outcome of a cancel request.
type jobCanceledMsg struct {
	job *services.JobSummary
	err error
}
