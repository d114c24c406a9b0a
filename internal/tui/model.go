package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/nguyentantai21042004/video-narrator/internal/narrator"
	"github.com/nguyentantai21042004/video-narrator/internal/segment"
)

// Controller is the part of the coordinator the UI drives
type Controller interface {
	Start(ctx context.Context, settings narrator.Settings) error
	Stop(ctx context.Context) error
	UpdateSettings(ctx context.Context, settings narrator.Settings) error
}

type eventMsg narrator.Event

type eventsClosedMsg struct{}

type commandDoneMsg struct {
	action string
	err    error
}

const maxStatuses = 6

// Model is the bubbletea model for one narration run
type Model struct {
	ctx      context.Context
	ctrl     Controller
	events   <-chan narrator.Event
	title    string
	settings narrator.Settings

	spinner  spinner.Model
	progress progress.Model
	help     help.Model

	running   bool
	segment   int
	segments  int
	frames    int
	expected  int
	countdown int
	summary   string
	partial   bool
	statuses  []string
	errorMsg  string
	quitting  bool
}

// NewModel builds the UI for one video. events must be fed by the
// coordinator's event handler.
func NewModel(ctx context.Context, ctrl Controller, events <-chan narrator.Event, title string, settings narrator.Settings) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		events:   events,
		title:    title,
		settings: settings,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
	}
}

// Init starts the spinner and the event subscription
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func waitForEvent(events <-chan narrator.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) command(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return commandDoneMsg{action: action, err: fn(ctx)}
	}
}

// Update handles key presses, coordinator events and command results
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case eventMsg:
		m.apply(narrator.Event(msg))
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		m.running = false
		return m, nil

	case commandDoneMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			m.addStatus(ErrorStyle.Render(m.errorMsg))
			if msg.action == "start" {
				m.running = false
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		if m.running {
			return m, tea.Sequence(m.command("stop", m.ctrl.Stop), tea.Quit)
		}
		return m, tea.Quit

	case key.Matches(msg, keys.Toggle):
		m.errorMsg = ""
		if m.running {
			m.running = false
			return m, m.command("stop", m.ctrl.Stop)
		}
		m.running = true
		m.resetSegment()
		settings := m.settings
		return m, m.command("start", func(ctx context.Context) error {
			return m.ctrl.Start(ctx, settings)
		})

	case key.Matches(msg, keys.Mode):
		if m.settings.Mode == segment.ModeMulti {
			m.settings.Mode = segment.ModeSingle
		} else {
			m.settings.Mode = segment.ModeMulti
		}
		return m, m.settingsChanged()

	case key.Matches(msg, keys.Interval):
		m.settings.IntervalSeconds = segment.NextInterval(m.settings.IntervalSeconds)
		return m, m.settingsChanged()
	}

	return m, nil
}

// settingsChanged pushes new settings to a running session; they apply
// from the next segment.
func (m *Model) settingsChanged() tea.Cmd {
	m.addStatus(SettingsStyle.Render("Settings: " + m.settingsLabel()))
	if !m.running {
		return nil
	}
	settings := m.settings
	return m.command("update settings", func(ctx context.Context) error {
		return m.ctrl.UpdateSettings(ctx, settings)
	})
}

func (m *Model) apply(ev narrator.Event) {
	switch ev.Kind {
	case narrator.EventSegmentStarted:
		m.running = true
		m.resetSegment()
		m.segment = ev.SegmentIndex
		m.segments = ev.SegmentCount
		m.expected = ev.ExpectedFrames
		m.addStatus(fmt.Sprintf("Segment %d/%d started (%.0fs, %d frames)",
			ev.SegmentIndex+1, ev.SegmentCount, ev.DurationSeconds, ev.ExpectedFrames))

	case narrator.EventFrameCaptured:
		m.frames++

	case narrator.EventCountdown:
		m.countdown = ev.SecondsRemaining

	case narrator.EventSegmentSummarized:
		m.summary = ev.Summary
		m.partial = ev.Partial
		m.countdown = 0

	case narrator.EventError:
		m.errorMsg = ev.Message
		m.addStatus(ErrorStyle.Render(ev.Message))
		if ev.Fatal {
			m.running = false
		}

	case narrator.EventSessionComplete:
		m.running = false
		m.addStatus(SuccessStyle.Render("Narration complete"))

	case narrator.EventSessionStopped:
		m.running = false
		m.addStatus("Narration stopped")
	}
}

func (m *Model) resetSegment() {
	m.frames = 0
	m.expected = 0
	m.countdown = 0
}

func (m *Model) addStatus(s string) {
	m.statuses = append(m.statuses, s)
	if len(m.statuses) > maxStatuses {
		m.statuses = m.statuses[len(m.statuses)-maxStatuses:]
	}
}

func (m Model) settingsLabel() string {
	return fmt.Sprintf("%s mode, every %ds", m.settings.Mode, m.settings.IntervalSeconds)
}

// View renders the current segment, its summary and recent statuses
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(BulletStyle.Render("┌") + TitleStyle.Render("video-narrator") + " " + DimTextStyle.Render(m.title) + "\n")
	b.WriteString(BulletStyle.Render("├") + SettingsStyle.Render(m.settingsLabel()) + "\n")

	for _, s := range m.statuses {
		b.WriteString(BulletStyle.Render("├") + TextStyle.Render(s) + "\n")
	}

	if m.running && m.segments > 0 {
		line := fmt.Sprintf("Segment %d/%d", m.segment+1, m.segments)
		if m.expected > 0 {
			line += fmt.Sprintf("  frames %d/%d", m.frames, m.expected)
		}
		if m.countdown > 0 {
			line += fmt.Sprintf("  summary in %ds", m.countdown)
		}
		b.WriteString(BulletStyle.Render("├") + m.spinner.View() + TextStyle.Render(line) + "\n")
		if m.expected > 0 {
			b.WriteString(BulletStyle.Render("│") + m.progress.ViewAs(float64(m.frames)/float64(m.expected)) + "\n")
		}
	}

	if m.summary != "" {
		label := "Last narration"
		if m.partial {
			label = PartialStyle.Render("Last narration (partial)")
		}
		b.WriteString(BulletStyle.Render("├") + TextStyle.Render(label) + "\n")
		b.WriteString(SummaryStyle.Render(m.summary) + "\n")
	}

	if m.quitting {
		return b.String()
	}

	b.WriteString(BulletStyle.Render("└") + m.help.View(keys) + "\n")
	return b.String()
}
