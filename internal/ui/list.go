package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"soundsmith/internal/models"
	"soundsmith/internal/services"
	"soundsmith/internal/shared"
)

var (
	_ list.Item = jobItem{}
	_ list.Item = songItem{}
)

// jobLabel names a job for display: title, then prompt, then ID.
func jobLabel(job services.JobSummary) string {
	if job.Title != "" {
		return job.Title
	}
	if job.Prompt != "" {
		return job.Prompt
	}
	return job.ID
}

// jobItem wraps [services.JobSummary] to implement [list.Item].
type jobItem struct {
	job services.JobSummary
}

func (i jobItem) FilterValue() string { return i.job.Prompt }
func (i jobItem) Title() string       { return jobLabel(i.job) }
func (i jobItem) Description() string {
	desc := styles.status(i.job.Status).Render(i.job.Status)
	if i.job.Status == models.JobStatusRunning && i.job.ProgressTotal > 0 {
		desc = fmt.Sprintf("%s %d/%d", desc, i.job.ProgressStep, i.job.ProgressTotal)
	}
	if i.job.ProgressMessage != "" && i.job.Status == models.JobStatusRunning {
		desc = fmt.Sprintf("%s • %s", desc, i.job.ProgressMessage)
	}
	if i.job.ErrorMessage != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.job.ErrorMessage)
	}
	return desc
}

// songItem wraps [services.SongSummary] to implement [list.Item].
type songItem struct {
	song services.SongSummary
}

func (i songItem) FilterValue() string { return i.song.Title }
func (i songItem) Title() string       { return i.song.Title }
func (i songItem) Description() string {
	desc := fmt.Sprintf("%s • %s", shared.FormatDuration(i.song.DurationSeconds), i.song.Source)
	if i.song.Artist != "" {
		desc = fmt.Sprintf("%s • %s", i.song.Artist, desc)
	}
	return desc
}

func jobItems(jobs []services.JobSummary) []list.Item {
	items := make([]list.Item, len(jobs))
	for i, job := range jobs {
		items[i] = jobItem{job: job}
	}
	return items
}

func songItems(songs []services.SongSummary) []list.Item {
	items := make([]list.Item, len(songs))
	for i, song := range songs {
		items[i] = songItem{song: song}
	}
	return items
}
