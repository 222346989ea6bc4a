package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/assetdesk/internal/version"
)

// AppName is shown in the container header.
const AppName = "ASSETDESK"

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red

	TextColor      = lipgloss.Color("#FFFFFF") // White
	SubtleColor    = lipgloss.Color("#626262") // Gray
	BorderColor    = lipgloss.Color("#7D56F4") // Purple (same as primary)
	HighlightColor = lipgloss.Color("#43BF6D") // Green (same as secondary)
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(10)

	// InvalidLabelStyle marks a field that failed validation
	InvalidLabelStyle = LabelStyle.
				Foreground(ErrorColor).
				Bold(true)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 3)

	FocusedButtonStyle = ButtonStyle.
				Background(HighlightColor).
				Bold(true)

	DisabledButtonStyle = ButtonStyle.
				Foreground(SubtleColor).
				Background(lipgloss.Color("#3A3A3A"))

	// BannerStyle is the error banner under the form
	BannerStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(HighlightColor).
				Bold(true)
)

// buildHeaderContent creates header content with app name and version
func buildHeaderContent(server string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + version.Version)
	if server == "" {
		return left
	}
	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(server)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps every screen: header with app name and
// server, the screen content, and a footer with key help.
func RenderApplicationContainer(content, server, footerText string, width, height int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	section := func(border lipgloss.Border) lipgloss.Style {
		return lipgloss.NewStyle().
			BorderStyle(border).
			BorderForeground(BorderColor).
			Width(width-4).
			Padding(0, 1)
	}

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		section(lipgloss.Border{Bottom: "─"}).Render(buildHeaderContent(server)),
		lipgloss.NewStyle().Width(width-4).Render(content),
		section(lipgloss.Border{Top: "─"}).Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	outer := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2)
	if height > 2 {
		outer = outer.Height(height - 2).AlignVertical(lipgloss.Top)
	}

	return lipgloss.Place(width, max(height, 0), lipgloss.Left, lipgloss.Top, outer.Render(inner))
}
