// Package styles holds the lipgloss palette of the progress view.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// phaseWidth fits the longest state name.
const phaseWidth = 13

// Palette is the set of colours the progress view draws with.
type Palette struct {
	Accent lipgloss.Color
	Phase  lipgloss.Color
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Good   lipgloss.Color
	Warn   lipgloss.Color
	Bad    lipgloss.Color
	Border lipgloss.Color
}

// DefaultPalette returns the dark-terminal palette.
func DefaultPalette() Palette {
	return Palette{
		Accent: lipgloss.Color("#7C3AED"),
		Phase:  lipgloss.Color("#06B6D4"),
		Text:   lipgloss.Color("#CDD6F4"),
		Muted:  lipgloss.Color("#6C7086"),
		Good:   lipgloss.Color("#A6E3A1"),
		Warn:   lipgloss.Color("#F9E2AF"),
		Bad:    lipgloss.Color("#F38BA8"),
		Border: lipgloss.Color("#45475A"),
	}
}

// Styles are the rendered styles derived from a Palette.
type Styles struct {
	Palette Palette

	Title   lipgloss.Style
	Phase   lipgloss.Style
	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Spinner lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles derives styles from p.
func NewStyles(p Palette) *Styles {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	return &Styles{
		Palette: p,
		Title:   fg(p.Accent).Bold(true),
		Phase:   fg(p.Phase).Bold(true).Width(phaseWidth),
		Normal:  fg(p.Text),
		Muted:   fg(p.Muted),
		Success: fg(p.Good),
		Warning: fg(p.Warn),
		Error:   fg(p.Bad),
		Spinner: fg(p.Accent),
		Border: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles for the default palette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// ForStatus returns the message style for an event status.
func (s *Styles) ForStatus(status domain.EventStatus) lipgloss.Style {
	switch status {
	case domain.EventCompleted:
		return s.Success
	case domain.EventError:
		return s.Error
	default:
		return s.Normal
	}
}

// ForPhase returns the label style for a job state. Terminal states take
// the outcome colour.
func (s *Styles) ForPhase(state domain.State) lipgloss.Style {
	switch state {
	case domain.StateCompleted:
		return s.Phase.Foreground(s.Palette.Good)
	case domain.StateFailed:
		return s.Phase.Foreground(s.Palette.Bad)
	default:
		return s.Phase
	}
}
