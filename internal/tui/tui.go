// Package tui provides a Bubble Tea terminal user interface for comic-downloader.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/handiism/comic-downloader/internal/config"
	"github.com/handiism/comic-downloader/internal/download"
	"github.com/handiism/comic-downloader/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500"))

	badgeStyle = lipgloss.NewStyle().
			Width(14)
)

// Controller is the part of download.Manager the TUI drives.
type Controller interface {
	CreateTask(comic *model.Comic, chapterUUID string) error
	PauseTask(chapterUUID string) error
	ResumeTask(chapterUUID string) error
	CancelTask(chapterUUID string) error
	Tasks() []download.TaskSnapshot
	TotalBytes() int64
}

// ComicFetcher loads a comic with its chapters.
type ComicFetcher interface {
	FetchComic(ctx context.Context, pathWord string) (*model.Comic, error)
}

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateLoading
	StateTasks
	StateError
)

const (
	eventBuffer  = 256
	pollInterval = 200 * time.Millisecond
	maxNotices   = 5
)

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	ctrl    Controller
	fetcher ComicFetcher
	events  <-chan download.Event

	comics   map[string]*model.Comic
	tasks    []download.TaskSnapshot
	selected int

	speed      string
	countdowns map[string]string
	notices    []string

	width  int
	height int
}

// NewModel creates a new TUI model. events is usually the channel returned
// by EventSink, with the sink handed to the download manager.
func NewModel(settings *config.Settings, ctrl Controller, fetcher ComicFetcher, events <-chan download.Event) Model {
	ti := textinput.New()
	ti.Placeholder = "comic path word, e.g. dragonball"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 30

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:      StateInput,
		textInput:  ti,
		spinner:    sp,
		progress:   prog,
		settings:   settings,
		ctx:        ctx,
		cancel:     cancel,
		ctrl:       ctrl,
		fetcher:    fetcher,
		events:     events,
		comics:     make(map[string]*model.Comic),
		speed:      download.FormatSpeed(0),
		countdowns: make(map[string]string),
	}
}

// EventSink returns a channel of engine events and a sink that feeds it
// without blocking. Events that do not fit are dropped; task progress is
// polled separately.
func EventSink() (<-chan download.Event, download.EventSink) {
	ch := make(chan download.Event, eventBuffer)
	return ch, func(e download.Event) {
		select {
		case ch <- e:
		default:
		}
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForEvent(), m.tickTasks())
}

// Message types
type (
	// EventMsg carries an engine event.
	EventMsg struct {
		Event download.Event
	}

	// ComicLoadedMsg is sent when a comic has been fetched.
	ComicLoadedMsg struct {
		Comic *model.Comic
		Err   error
	}

	// TickMsg polls the task list.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-70, 10), 40)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ComicLoadedMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
			break
		}
		m.queueComic(msg.Comic)
		m.tasks = m.ctrl.Tasks()
		m.state = StateTasks

	case EventMsg:
		m.applyEvent(msg.Event)
		cmds = append(cmds, m.waitForEvent())

	case TickMsg:
		m.tasks = m.ctrl.Tasks()
		if m.selected >= len(m.tasks) {
			m.selected = max(len(m.tasks)-1, 0)
		}
		cmds = append(cmds, m.tickTasks())
	}

	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if key == "ctrl+c" {
		m.cancel()
		return tea.Quit, true
	}

	switch m.state {
	case StateInput:
		switch key {
		case "esc":
			if len(m.tasks) > 0 {
				m.state = StateTasks
				return nil, true
			}
			m.cancel()
			return tea.Quit, true
		case "enter":
			pathWord := strings.TrimSpace(m.textInput.Value())
			if pathWord == "" {
				return nil, true
			}
			m.state = StateLoading
			return tea.Batch(m.fetchComic(pathWord), m.spinner.Tick), true
		}

	case StateTasks:
		return m.handleTaskKey(key), true

	case StateError:
		switch key {
		case "q":
			m.cancel()
			return tea.Quit, true
		case "n", "esc", "enter":
			m.err = nil
			m.resetInput()
			return nil, true
		}
		return nil, true
	}
	return nil, false
}

func (m *Model) handleTaskKey(key string) tea.Cmd {
	switch key {
	case "q":
		m.cancel()
		return tea.Quit
	case "n":
		m.resetInput()
		return textinput.Blink
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.tasks)-1 {
			m.selected++
		}
	case "p", "r", "c", "a":
		if m.selected < len(m.tasks) {
			m.control(key, m.tasks[m.selected])
			m.tasks = m.ctrl.Tasks()
		}
	}
	return nil
}

func (m *Model) control(key string, snap download.TaskSnapshot) {
	var err error
	switch key {
	case "p":
		err = m.ctrl.PauseTask(snap.ChapterUUID)
	case "r":
		err = m.ctrl.ResumeTask(snap.ChapterUUID)
	case "c":
		err = m.ctrl.CancelTask(snap.ChapterUUID)
	case "a":
		if snap.State != download.StateFailed && snap.State != download.StateCancelled {
			return
		}
		comic, ok := m.comics[snap.ComicPathWord]
		if !ok {
			return
		}
		err = m.ctrl.CreateTask(comic, snap.ChapterUUID)
	}
	if err != nil {
		m.notice(errorStyle.Render("✗ " + err.Error()))
	}
}

// queueComic creates a task for every chapter of the comic's main group
// that is not downloaded yet.
func (m *Model) queueComic(comic *model.Comic) {
	m.comics[comic.PathWord] = comic

	keys := comic.GroupKeys()
	if len(keys) == 0 {
		m.notice(warningStyle.Render("! " + comic.Name + " has no chapters"))
		return
	}
	group := comic.Groups[keys[0]]

	queued, skipped := 0, 0
	for _, ch := range group.Chapters {
		if ch.IsDownloaded {
			skipped++
			continue
		}
		err := m.ctrl.CreateTask(comic, ch.ChapterUUID)
		switch {
		case err == nil:
			queued++
		case errors.Is(err, download.ErrDuplicateTask):
			skipped++
		default:
			m.notice(errorStyle.Render("✗ " + err.Error()))
		}
	}
	m.notice(successStyle.Render(fmt.Sprintf("✓ %s: queued %d chapter(s) of %s, skipped %d", comic.Name, queued, group.Name, skipped)))
}

func (m *Model) applyEvent(e download.Event) {
	switch e := e.(type) {
	case download.SpeedEvent:
		m.speed = e.Speed
	case download.RiskControlEvent:
		if e.RetryAfter > 0 {
			m.countdowns[e.ChapterUUID] = warningStyle.Render(fmt.Sprintf("risk control, retry in %ds", e.RetryAfter))
		} else {
			delete(m.countdowns, e.ChapterUUID)
		}
	case download.SleepingEvent:
		if e.Remaining > 0 {
			m.countdowns[e.ChapterUUID] = dimStyle.Render(fmt.Sprintf("next chapter in %ds", e.Remaining))
		} else {
			delete(m.countdowns, e.ChapterUUID)
		}
	case download.TaskUpdateEvent:
		if e.State.IsTerminal() {
			delete(m.countdowns, e.ChapterUUID)
		}
	}
}

func (m *Model) notice(s string) {
	m.notices = append(m.notices, s)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
}

func (m *Model) resetInput() {
	m.state = StateInput
	m.textInput.SetValue("")
	m.textInput.Focus()
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: e}
	}
}

// tickTasks returns a command that polls the task list.
func (m Model) tickTasks() tea.Cmd {
	return tea.Tick(pollInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) fetchComic(pathWord string) tea.Cmd {
	ctx, fetcher := m.ctx, m.fetcher
	return func() tea.Msg {
		comic, err := fetcher.FetchComic(ctx, pathWord)
		return ComicLoadedMsg{Comic: comic, Err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("📚 Comic Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Saving to %s as %s", m.settings.DownloadDir, m.settings.DownloadFormat)))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(subtitleStyle.Render("Enter comic path word:"))
		b.WriteString("\n\n")
		b.WriteString(m.textInput.View())
		b.WriteString("\n")
	case StateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Fetching comic..."))
		b.WriteString("\n")
	case StateTasks:
		b.WriteString(m.viewTasks())
	case StateError:
		b.WriteString(errorStyle.Render("✗ Error occurred:"))
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString("  " + m.err.Error())
		}
		b.WriteString("\n")
	}

	if len(m.notices) > 0 {
		b.WriteString("\n")
		for _, n := range m.notices {
			b.WriteString(n)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))
	return b.String()
}

func (m Model) viewTasks() string {
	var b strings.Builder

	var active, done int
	for _, t := range m.tasks {
		if t.State.IsActive() {
			active++
		} else if t.State == download.StateCompleted {
			done++
		}
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("⚡ %s • %s received • %d active • %d/%d completed",
		m.speed, humanize.IBytes(uint64(m.ctrl.TotalBytes())), active, done, len(m.tasks))))
	b.WriteString("\n\n")

	if len(m.tasks) == 0 {
		b.WriteString(dimStyle.Render("No tasks. Press n to add a comic."))
		b.WriteString("\n")
		return b.String()
	}

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		b.WriteString(m.renderTask(i))
		b.WriteString("\n")
	}
	if end < len(m.tasks) || start > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  showing %d-%d of %d", start+1, end, len(m.tasks))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) visibleRange() (int, int) {
	rows := len(m.tasks)
	if m.height > 0 {
		rows = max(m.height-14, 3)
	}
	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	return start, min(start+rows, len(m.tasks))
}

func (m Model) renderTask(i int) string {
	t := m.tasks[i]

	cursor := "  "
	title := t.ChapterTitle
	if i == m.selected {
		cursor = selectedStyle.Render("› ")
		title = selectedStyle.Render(title)
	}

	var percent float64
	if t.Total > 0 {
		percent = float64(t.Downloaded) / float64(t.Total)
	}

	line := fmt.Sprintf("%s%s %s %s %d/%d  %s",
		cursor,
		badge(t.State),
		m.progress.ViewAs(percent),
		dimStyle.Render(t.ComicTitle+" /"),
		t.Downloaded, t.Total,
		title,
	)
	if c, ok := m.countdowns[t.ChapterUUID]; ok && t.State.IsActive() {
		line += "  " + c
	}
	if t.Err != "" {
		line += "\n      " + errorStyle.Render(t.Err)
	}
	return line
}

func badge(s download.State) string {
	var style lipgloss.Style
	switch s {
	case download.StateDownloading:
		style = infoStyle
	case download.StatePaused:
		style = warningStyle
	case download.StateCompleted:
		style = successStyle
	case download.StateFailed:
		style = errorStyle
	default:
		style = dimStyle
	}
	return badgeStyle.Inherit(style).Render("[" + s.String() + "]")
}

func (m Model) helpText() string {
	switch m.state {
	case StateInput:
		return "enter: fetch and queue • esc: back/quit"
	case StateLoading:
		return "ctrl+c: quit"
	case StateTasks:
		return "↑/↓: select • p: pause • r: resume • c: cancel • a: retry • n: add comic • q: quit"
	case StateError:
		return "n: new comic • q: quit"
	}
	return ""
}

// Run starts the TUI application and blocks until the user quits.
func Run(settings *config.Settings, ctrl Controller, fetcher ComicFetcher, events <-chan download.Event) error {
	p := tea.NewProgram(NewModel(settings, ctrl, fetcher, events), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
