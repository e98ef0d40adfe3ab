package ui

import (
	"github.com/charmbracelet/lipgloss"

	"soundsmith/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF5F87", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, o, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(o),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// status picks the palette entry for a job status string. Terminal states
// get strong colors; pending and canceled stay dim.
func (p *Palette) status(status string) lipgloss.Style {
	switch status {
	case models.JobStatusCompleted:
		return p.ok
	case models.JobStatusFailed:
		return p.err
	case models.JobStatusRunning:
		return p.warn
	default:
		return p.help
	}
}
