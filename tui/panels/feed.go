package panels

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duskvale/patternmarket/internal/feed"
	"github.com/duskvale/patternmarket/tui/styles"
)

// FeedPanel displays the market event log, newest first.
type FeedPanel struct {
	items   []feed.Item
	focused bool
	width   int
	height  int
}

// NewFeedPanel creates a new feed panel.
func NewFeedPanel() *FeedPanel {
	return &FeedPanel{}
}

// Init initializes the panel.
func (p *FeedPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *FeedPanel) Update(msg tea.Msg) (*FeedPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *FeedPanel) View() string {
	var content strings.Builder

	limit := p.height - 4
	if limit < 1 {
		limit = 1
	}
	shown := p.items
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for i, it := range shown {
		style := styles.RowStyle
		switch it.Kind {
		case feed.KindShock, feed.KindCancel:
			style = styles.DownStyle
		case feed.KindChallenge:
			style = styles.HighlightStyle
		case feed.KindFill:
			style = styles.UpStyle
		}
		line := fmt.Sprintf("%s %s",
			styles.TimeStyle.Render(fmt.Sprintf("#%-5d", it.Tick)),
			style.Render(it.Message))
		content.WriteString(line)
		if i < len(shown)-1 {
			content.WriteString("\n")
		}
	}
	if len(shown) == 0 {
		content.WriteString(styles.TimeStyle.Render("waiting for events"))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Events", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *FeedPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *FeedPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetItems replaces the shown events, newest first.
func (p *FeedPanel) SetItems(items []feed.Item) {
	p.items = items
}
