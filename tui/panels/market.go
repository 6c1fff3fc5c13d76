package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duskvale/patternmarket/internal/market"
	"github.com/duskvale/patternmarket/tui/styles"
)

// MarketPanel displays the instrument board.
type MarketPanel struct {
	instruments   []market.Snapshot
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewMarketPanel creates a new market panel.
func NewMarketPanel() *MarketPanel {
	return &MarketPanel{}
}

// Init initializes the panel.
func (p *MarketPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MarketPanel) Update(msg tea.Msg) (*MarketPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.instruments)-1 {
				p.selectedIndex++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *MarketPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-6s %10s %8s %7s %6s %6s",
		"Sym", "Price", "Chg%", "RSI", "SMA7", "Bonus")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	for i, in := range p.instruments {
		chg := 0.0
		if in.OpenPrice > 0 {
			chg = (in.Price - in.OpenPrice) / in.OpenPrice * 100
		}
		row := fmt.Sprintf("%-6s %10.2f %7.2f%% %7.1f %6.1f %5.2fx",
			in.Symbol, in.Price, chg, in.Indicators.RSI, in.Indicators.SMA7, in.Bonus)

		style := styles.RowStyle
		switch {
		case i == p.selectedIndex && p.focused:
			style = styles.SelectedRowStyle
		case chg > 0:
			style = styles.UpStyle
		case chg < 0:
			style = styles.DownStyle
		}
		content.WriteString(style.Render(row))
		if i < len(p.instruments)-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}
	title := styles.RenderTitle("Instruments", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())
	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MarketPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MarketPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetInstruments replaces the board contents.
func (p *MarketPanel) SetInstruments(ins []market.Snapshot) {
	p.instruments = ins
	if p.selectedIndex >= len(ins) {
		p.selectedIndex = 0
	}
}

// Selected returns the currently selected instrument.
func (p *MarketPanel) Selected() market.Snapshot {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.instruments) {
		return p.instruments[p.selectedIndex]
	}
	return market.Snapshot{}
}
