package panels

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duskvale/patternmarket/internal/exchange"
	"github.com/duskvale/patternmarket/tui/styles"
)

// PortfolioPanel displays the tracked owner's ledger.
type PortfolioPanel struct {
	owner   string
	view    exchange.PortfolioView
	loaded  bool
	focused bool
	width   int
	height  int
}

// NewPortfolioPanel creates a new portfolio panel.
func NewPortfolioPanel(owner string) *PortfolioPanel {
	return &PortfolioPanel{owner: owner}
}

// Init initializes the panel.
func (p *PortfolioPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *PortfolioPanel) Update(msg tea.Msg) (*PortfolioPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *PortfolioPanel) View() string {
	var content strings.Builder

	switch {
	case p.owner == "":
		content.WriteString(styles.TimeStyle.Render("no portfolio tracked (--owner)"))
	case !p.loaded:
		content.WriteString(styles.TimeStyle.Render("loading " + p.owner))
	default:
		content.WriteString(fmt.Sprintf("cash      %s\n", p.view.Cash))
		content.WriteString(fmt.Sprintf("realized  %s\n", p.view.Realized))
		unrealStyle := styles.UpStyle
		if p.view.Unrealized < 0 {
			unrealStyle = styles.DownStyle
		}
		content.WriteString("unreal    " + unrealStyle.Render(fmt.Sprintf("%.2f", p.view.Unrealized)))

		for _, sym := range sortedKeys(p.view.Holdings) {
			content.WriteString(fmt.Sprintf("\nlong  %-6s %d", sym, p.view.Holdings[sym]))
		}
		for _, sym := range sortedKeys(p.view.Shorts) {
			content.WriteString(fmt.Sprintf("\nshort %-6s %d", sym, p.view.Shorts[sym]))
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Portfolio "+p.owner, p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *PortfolioPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PortfolioPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetView replaces the ledger contents.
func (p *PortfolioPanel) SetView(view exchange.PortfolioView) {
	p.view = view
	p.loaded = true
}

// Owner returns the tracked owner id.
func (p *PortfolioPanel) Owner() string {
	return p.owner
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
