package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/digest-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/digest-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/digest-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// Progress follows one job and renders its event log with a spinner on
// the phase in flight.
type Progress struct {
	ports *Ports
	jobID string
	title string

	ctx    context.Context
	stop   context.CancelFunc
	events chan domain.Event
	result chan error

	spinner spinner.Model
	help    help.Model
	styles  *styles.Styles
	keys    keymap.KeyMap

	log        []domain.Event
	job        *domain.Job
	stats      *domain.ChapterStats
	err        error
	done       bool
	detached   bool
	cancelling bool
}

// NewProgress creates a progress view for jobID.
func NewProgress(ctx context.Context, ports *Ports, jobID, title string) (*Progress, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if jobID == "" {
		return nil, ErrMissingJobID
	}

	s := styles.DefaultStyles()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	ctx, stop := context.WithCancel(ctx)
	return &Progress{
		ports:   ports,
		jobID:   jobID,
		title:   title,
		ctx:     ctx,
		stop:    stop,
		events:  make(chan domain.Event),
		result:  make(chan error, 1),
		spinner: sp,
		help:    help.New(),
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
	}, nil
}

// Init starts following the job.
func (m *Progress) Init() tea.Cmd {
	go m.follow()
	return tea.Batch(m.spinner.Tick, m.listen())
}

// follow forwards the job's events until the log closes. The final
// error is sent before the channel is closed.
func (m *Progress) follow() {
	err := m.ports.Jobs.Follow(m.ctx, m.jobID, 0, 0, func(ev domain.Event) error {
		select {
		case m.events <- ev:
			return nil
		case <-m.ctx.Done():
			return m.ctx.Err()
		}
	})
	m.result <- err
	close(m.events)
}

// listen waits for the next event.
func (m *Progress) listen() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return messages.FollowEnded{Err: <-m.result}
		}
		return messages.EventReceived{Event: ev}
	}
}

// Update handles messages.
func (m *Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case messages.EventReceived:
		m.log = append(m.log, msg.Event)
		return m, m.listen()

	case messages.FollowEnded:
		m.done = true
		m.err = msg.Err
		m.finish()
		return m, tea.Quit

	case messages.CancelRequested:
		if msg.Err != nil {
			m.err = msg.Err
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Progress) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Detach):
		m.detached = true
		m.stop()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.cancelling || m.done {
			return m, nil
		}
		m.cancelling = true
		jobs, ctx, id := m.ports.Jobs, m.ctx, m.jobID
		return m, func() tea.Msg {
			return messages.CancelRequested{Err: jobs.Cancel(ctx, id)}
		}
	}
	return m, nil
}

// finish loads the final job record and, on success, the chapter stats.
func (m *Progress) finish() {
	ctx := context.WithoutCancel(m.ctx)
	job, err := m.ports.Jobs.Get(ctx, m.jobID)
	if err != nil {
		if m.err == nil {
			m.err = err
		}
		return
	}
	m.job = job
	if job.State == domain.StateCompleted && m.ports.Chapters != nil {
		if stats, err := m.ports.Chapters.Stats(ctx, job.ChapterID); err == nil {
			m.stats = stats
		}
	}
}

// View renders the event log.
func (m *Progress) View() string {
	var b strings.Builder

	title := m.title
	if title == "" {
		title = m.jobID
	}
	b.WriteString(m.styles.Title.Render("Digesting " + title))
	b.WriteString("\n\n")

	for i, ev := range m.log {
		marker := m.styles.Muted.Render("•")
		switch {
		case ev.Status == domain.EventCompleted:
			marker = m.styles.Success.Render("✓")
		case ev.Status == domain.EventError:
			marker = m.styles.Error.Render("✗")
		case i == len(m.log)-1 && !m.done:
			marker = m.spinner.View()
		}
		fmt.Fprintf(&b, "%s %s %s\n",
			marker,
			m.styles.ForPhase(ev.Phase).Render(ev.Phase.String()),
			m.styles.ForStatus(ev.Status).Render(ev.Message))
	}
	if len(m.log) == 0 && !m.done {
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), m.styles.Muted.Render("Waiting for the job to start..."))
	}

	b.WriteString("\n")
	switch {
	case m.detached:
		b.WriteString(m.styles.Warning.Render("Detached; job " + m.jobID + " keeps running."))
		b.WriteString("\n")
	case m.done:
		b.WriteString(m.summary())
	default:
		if m.cancelling {
			b.WriteString(m.styles.Warning.Render("Cancelling..."))
			b.WriteString("\n")
		}
		b.WriteString(m.help.View(m.keys))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Progress) summary() string {
	if m.err != nil {
		return m.styles.Error.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.job == nil {
		return ""
	}
	if m.job.State != domain.StateCompleted {
		return m.styles.Error.Render("Failed: "+m.job.Error) + "\n"
	}

	lines := []string{"Chapter " + m.job.ChapterID + " saved"}
	if m.stats != nil {
		lines = append(lines, fmt.Sprintf("%d sections, %d propositions, %d takeaways",
			m.stats.Sections, m.stats.Propositions, m.stats.Takeaways))
	}
	return m.styles.Border.Render(m.styles.Success.Render(strings.Join(lines, "\n"))) + "\n"
}

// Job returns the final job record, once the log has closed.
func (m *Progress) Job() *domain.Job {
	return m.job
}

// Err returns the error that ended following, if any.
func (m *Progress) Err() error {
	return m.err
}

// Detached reports whether the user left before the job finished.
func (m *Progress) Detached() bool {
	return m.detached
}

// Events returns the events received so far.
func (m *Progress) Events() []domain.Event {
	return m.log
}
