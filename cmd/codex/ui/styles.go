// Package ui provides the visual styling for the interactive codex CLI.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the active color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// Semantic colors shared by both themes.
var (
	colorSuccess = lipgloss.Color("#4caf50")
	colorError   = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#ffc107")
	colorInfo    = lipgloss.Color("#2196f3")
)

// LightTheme returns the light color scheme.
func LightTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#1d2430"),
		Primary:    lipgloss.Color("#1d2430"),
		Accent:     lipgloss.Color("#7c3aed"),
		Muted:      lipgloss.Color("#9aa3af"),
		Border:     lipgloss.Color("#d5d9e0"),
		IsDark:     false,
	}
}

// DarkTheme returns the dark color scheme.
func DarkTheme() Theme {
	return Theme{
		Foreground: lipgloss.Color("#e8eaed"),
		Primary:    lipgloss.Color("#a78bfa"),
		Accent:     lipgloss.Color("#a78bfa"),
		Muted:      lipgloss.Color("#6b7280"),
		Border:     lipgloss.Color("#374151"),
		IsDark:     true,
	}
}

// DetectTheme picks dark mode from COLORFGBG or CODEX_DARK_MODE,
// defaulting to light.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}
	if os.Getenv("CODEX_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds the styled components used by the chat view.
type Styles struct {
	Theme Theme

	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style

	Title lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style

	Prompt    lipgloss.Style
	UserInput lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Spinner lipgloss.Style
	Divider lipgloss.Style
	Badge   lipgloss.Style

	// Diff rendering for approval previews.
	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffHeader lipgloss.Style
}

// NewStyles creates a Styles instance for the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Success: lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(colorInfo),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		DiffAdd: lipgloss.NewStyle().
			Foreground(colorSuccess),

		DiffRemove: lipgloss.NewStyle().
			Foreground(colorError),

		DiffHeader: lipgloss.NewStyle().
			Foreground(colorInfo).
			Bold(true),
	}
}

// DefaultStyles returns styles with the auto-detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// RenderDivider returns a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		width = 80
	}
	return s.Divider.Render(strings.Repeat("─", width))
}

// RenderDiff colorizes unified-diff text for approval prompts.
func (s Styles) RenderDiff(diff string) string {
	var sb strings.Builder
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			sb.WriteString(s.DiffAdd.Render(line))
		case strings.HasPrefix(line, "-"):
			sb.WriteString(s.DiffRemove.Render(line))
		case strings.HasPrefix(line, "@@"):
			sb.WriteString(s.DiffHeader.Render(line))
		default:
			sb.WriteString(line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
