package chat

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan          = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	purple        = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	emerald       = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}
	amber         = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}
	rose          = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	textSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

	promptStyle = lipgloss.NewStyle().
			Foreground(cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(textSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(emerald)

	warningStyle = lipgloss.NewStyle().
			Foreground(amber)

	errorStyle = lipgloss.NewStyle().
			Foreground(rose).
			Bold(true)

	summaryHeaderStyle = lipgloss.NewStyle().
				Foreground(cyan).
				Bold(true)
)

// Renderer turns a reply into the text printed on the console.
type Renderer func(string) string

// PlainRenderer prints replies unchanged.
func PlainRenderer(text string) string {
	return text
}

// MarkdownRenderer renders replies as terminal markdown, falling back to the
// raw text when the renderer cannot be built or fails.
func MarkdownRenderer(wordWrap int) Renderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return PlainRenderer
	}
	return func(text string) string {
		rendered, err := renderer.Render(text)
		if err != nil {
			return text
		}
		return rendered
	}
}
