package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"soundsmith/internal/models"
	"soundsmith/internal/services"
)

// ViewState represents the current view in the monitor.
type ViewState int

const (
	QueueView ViewState = iota
	LibraryView
	HelpView
)

// pollInterval is how often the monitor refreshes from the server.
const pollInterval = 2 * time.Second

// Model represents the monitor state.
type Model struct {
	ctx    context.Context
	client *services.APIClient

	view     ViewState
	lastView ViewState
	width    int
	height   int

	jobList     list.Model
	songList    list.Model
	progressBar progress.Model

	queue  services.QueueStatus
	jobs   []services.JobSummary
	health *services.HealthStatus

	// notice is transient feedback (cancel results, poll failures); the next
	// successful poll clears it.
	notice string

	help help.Model
	keys keyMap
}

// NewModel creates a monitor bound to a running server.
func NewModel(ctx context.Context, client *services.APIClient) *Model {
	jobList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	jobList.Title = "Generation Queue"
	jobList.SetShowHelp(false)
	jobList.SetFilteringEnabled(false)

	songList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	songList.Title = "Library"
	songList.SetShowHelp(false)
	songList.SetFilteringEnabled(false)

	return &Model{
		ctx:         ctx,
		client:      client,
		view:        QueueView,
		jobList:     jobList,
		songList:    songList,
		progressBar: progress.New(progress.WithDefaultGradient()),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the first fetch round and the polling clock.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchStatus(), m.fetchSongs(), m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.jobList.SetSize(msg.Width-4, msg.Height-8)
		m.songList.SetSize(msg.Width-4, msg.Height-8)
		barWidth := msg.Width - 30
		if barWidth > 48 {
			barWidth = 48
		}
		if barWidth < 10 {
			barWidth = 10
		}
		m.progressBar.Width = barWidth
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tickMsg:
		return m, tea.Batch(m.fetchStatus(), m.fetchSongs(), m.tick())

	case statusFetchedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("poll failed: %v", msg.err)
		}
		m.health = msg.health
		if msg.queue == nil {
			return m, nil
		}
		m.queue = msg.queue.Queue
		m.jobs = msg.queue.Jobs
		if msg.err == nil {
			m.notice = ""
		}
		return m, m.jobList.SetItems(jobItems(msg.queue.Jobs))

	case songsFetchedMsg:
		// The queue poll already reports an unreachable server.
		if msg.err != nil {
			return m, nil
		}
		return m, m.songList.SetItems(songItems(msg.songs))

	case jobCanceledMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("cancel failed: %v", msg.err)
			return m, nil
		}
		m.notice = fmt.Sprintf("canceled %s", jobLabel(*msg.job))
		return m, m.fetchStatus()
	}

	return m.updateLists(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		if m.view == HelpView {
			m.view = m.lastView
		} else {
			m.lastView = m.view
			m.view = HelpView
		}
		return m, nil

	case key.Matches(msg, m.keys.back):
		if m.view == HelpView {
			m.view = m.lastView
		}
		m.notice = ""
		return m, nil

	case key.Matches(msg, m.keys.tab):
		switch m.view {
		case QueueView:
			m.view = LibraryView
		case LibraryView:
			m.view = QueueView
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		return m, tea.Batch(m.fetchStatus(), m.fetchSongs())

	case key.Matches(msg, m.keys.cancel):
		if m.view == QueueView {
			return m, m.cancelSelected()
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case QueueView:
		m.jobList, cmd = m.jobList.Update(msg)
	case LibraryView:
		m.songList, cmd = m.songList.Update(msg)
	}
	return m, cmd
}

// cancelSelected requests cancellation of the selected job. Jobs already in
// a terminal state are refused locally instead of bouncing off the server.
func (m *Model) cancelSelected() tea.Cmd {
	item, ok := m.jobList.SelectedItem().(jobItem)
	if !ok {
		return nil
	}
	if item.job.Status != models.JobStatusPending && item.job.Status != models.JobStatusRunning {
		m.notice = fmt.Sprintf("%s is already %s", jobLabel(item.job), item.job.Status)
		return nil
	}

	id := item.job.ID
	return func() tea.Msg {
		job, err := m.client.CancelJob(m.ctx, id)
		return jobCanceledMsg{job: job, err: err}
	}
}

func (m *Model) fetchStatus() tea.Cmd {
	return func() tea.Msg {
		queue, err := m.client.GetQueue(m.ctx)
		if err != nil {
			return statusFetchedMsg{err: err}
		}
		health, err := m.client.GetHealth(m.ctx)
		return statusFetchedMsg{queue: queue, health: health, err: err}
	}
}

func (m *Model) fetchSongs() tea.Cmd {
	return func() tea.Msg {
		songs, err := m.client.GetSongs(m.ctx, "")
		return songsFetchedMsg{songs: songs, err: err}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case HelpView:
		return m.renderHelp()
	default:
		return m.renderQueue()
	}
}

func (m *Model) renderQueue() string {
	footKeys := []key.Binding{m.keys.cancel, m.keys.refresh, m.keys.tab, m.keys.help, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s\n%s",
		m.renderHeader(),
		m.renderActivity(),
		m.jobList.View(),
		m.renderFooter(footKeys),
	)
}

func (m *Model) renderLibrary() string {
	footKeys := []key.Binding{m.keys.refresh, m.keys.tab, m.keys.help, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s\n%s",
		m.renderHeader(),
		m.songList.View(),
		m.renderFooter(footKeys),
	)
}

func (m *Model) renderHelp() string {
	title := styles.title.Render("Key Bindings")
	body := m.help.FullHelpView(m.keys.FullHelp())
	hint := styles.help.Render("esc to go back")
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, hint)
}

func (m *Model) renderHeader() string {
	title := styles.title.Render("soundsmith monitor")

	server := styles.help.Render(m.client.BaseURL())
	gen := styles.warn.Render("generator: unknown")
	if m.health != nil {
		label := fmt.Sprintf("generator: %s %s", m.health.Generator.Name, m.health.Generator.Status)
		if m.health.Generator.Status == "ok" {
			gen = styles.ok.Render(label)
		} else {
			gen = styles.err.Render(label)
		}
	}

	return fmt.Sprintf("%s\n%s • %s", title, server, gen)
}

// renderActivity shows the live job's progress bar, or the idle queue.
func (m *Model) renderActivity() string {
	waiting := styles.help.Render(fmt.Sprintf("%d waiting", len(m.queue.Queued)))

	job := m.runningJob()
	if job == nil {
		return fmt.Sprintf("%s • %s", styles.help.Render("queue idle"), waiting)
	}

	percent := 0.0
	if job.ProgressTotal > 0 {
		percent = float64(job.ProgressStep) / float64(job.ProgressTotal)
	}

	return fmt.Sprintf("%s %s %s • %s",
		styles.warn.Render("rendering"),
		m.progressBar.ViewAs(percent),
		truncate(jobLabel(*job), 40),
		waiting,
	)
}

func (m *Model) renderFooter(keys []key.Binding) string {
	short := m.help.ShortHelpView(keys)
	if m.notice != "" {
		return fmt.Sprintf("%s\n%s", styles.warn.Render(m.notice), short)
	}
	return short
}

func (m *Model) runningJob() *services.JobSummary {
	for i := range m.jobs {
		if m.jobs[i].Status == models.JobStatusRunning {
			return &m.jobs[i]
		}
	}
	return nil
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
