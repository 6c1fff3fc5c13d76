package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PrimaryColor = lipgloss.Color("#38BDF8") // Sky
	UpColor      = lipgloss.Color("#34D399") // Green
	DownColor    = lipgloss.Color("#F87171") // Red

	BorderColor      = lipgloss.Color("#334155")
	FocusBorderColor = lipgloss.Color("#38BDF8")

	TextColor          = lipgloss.Color("#F1F5F9")
	TextSecondaryColor = lipgloss.Color("#94A3B8")
	TextMutedColor     = lipgloss.Color("#64748B")
)

// Panel styles
var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(FocusBorderColor).
				Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextSecondaryColor)

	RowStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(lipgloss.Color("#334155"))
)

// Text styles
var (
	UpStyle = lipgloss.NewStyle().
		Foreground(UpColor)

	DownStyle = lipgloss.NewStyle().
			Foreground(DownColor)

	TimeStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor)

	HighlightStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FBBF24"))

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)
)

// RenderTitle renders a panel title bar.
func RenderTitle(title string, focused bool) string {
	style := TitleStyle
	if focused {
		style = style.Foreground(FocusBorderColor)
	}
	return style.Render(title)
}
