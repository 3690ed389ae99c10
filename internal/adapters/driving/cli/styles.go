package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette used for answers printed to a terminal.
var (
	colourPrimary   = lipgloss.Color("#7C3AED") // Purple
	colourSecondary = lipgloss.Color("#06B6D4") // Cyan
	colourMuted     = lipgloss.Color("#6C7086")
	colourSuccess   = lipgloss.Color("#A6E3A1")
	colourWarning   = lipgloss.Color("#F9E2AF")
	colourError     = lipgloss.Color("#F38BA8")
	colourBorder    = lipgloss.Color("#45475A")
)

// answerStyles renders answer output. When disabled every style is a
// pass-through so piped output stays plain text.
type answerStyles struct {
	enabled bool

	Answer   lipgloss.Style
	Heading  lipgloss.Style
	Citation lipgloss.Style
	Link     lipgloss.Style
	Muted    lipgloss.Style
	Warning  lipgloss.Style

	confidence map[string]lipgloss.Style
}

func newAnswerStyles(enabled bool) *answerStyles {
	return &answerStyles{
		enabled: enabled,

		Answer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colourBorder).
			Padding(0, 1),

		Heading: lipgloss.NewStyle().
			Bold(true).
			Foreground(colourPrimary),

		Citation: lipgloss.NewStyle().
			Foreground(colourSecondary),

		Link: lipgloss.NewStyle().
			Underline(true).
			Foreground(colourMuted),

		Muted: lipgloss.NewStyle().
			Foreground(colourMuted),

		Warning: lipgloss.NewStyle().
			Italic(true).
			Foreground(colourWarning),

		confidence: map[string]lipgloss.Style{
			"high":   lipgloss.NewStyle().Bold(true).Foreground(colourSuccess),
			"medium": lipgloss.NewStyle().Bold(true).Foreground(colourWarning),
			"low":    lipgloss.NewStyle().Bold(true).Foreground(colourError),
		},
	}
}

func (s *answerStyles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

func (s *answerStyles) renderConfidence(level string) string {
	style, ok := s.confidence[level]
	if !ok {
		return level
	}
	return s.render(style, level)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
