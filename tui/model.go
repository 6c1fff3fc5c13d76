package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/duskvale/patternmarket/internal/client"
	"github.com/duskvale/patternmarket/internal/exchange"
	"github.com/duskvale/patternmarket/tui/panels"
	"github.com/duskvale/patternmarket/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusMarket    PanelFocus = 0
	FocusFeed      PanelFocus = 1
	FocusPortfolio PanelFocus = 2
)

const panelCount = 3

// Model is the main TUI application model.
type Model struct {
	api   *client.Client
	owner string

	marketPanel    *panels.MarketPanel
	feedPanel      *panels.FeedPanel
	portfolioPanel *panels.PortfolioPanel

	snapshot exchange.MarketSnapshot

	focusedPanel PanelFocus

	width  int
	height int

	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model backed by an API client.
func NewModel(api *client.Client, owner string) *Model {
	return &Model{
		api:            api,
		owner:          owner,
		marketPanel:    panels.NewMarketPanel(),
		feedPanel:      panels.NewFeedPanel(),
		portfolioPanel: panels.NewPortfolioPanel(owner),
		focusedPanel:   FocusMarket,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.marketPanel.Init(),
		m.feedPanel.Init(),
		m.portfolioPanel.Init(),
		m.fetchSnapshot(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "tab":
			m.focusedPanel = (m.focusedPanel + 1) % panelCount

		case "shift+tab":
			m.focusedPanel--
			if m.focusedPanel < 0 {
				m.focusedPanel = panelCount - 1
			}

		case "f1":
			m.focusedPanel = FocusMarket
		case "f2":
			m.focusedPanel = FocusFeed
		case "f3":
			m.focusedPanel = FocusPortfolio

		case "r":
			cmds = append(cmds, m.fetchSnapshot())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.marketPanel.SetInstruments(msg.snapshot.Instruments)
		m.feedPanel.SetItems(msg.snapshot.Events)
		m.statusMsg = ""

	case portfolioMsg:
		m.portfolioPanel.SetView(msg.view)

	case fetchErrMsg:
		m.statusMsg = "fetch failed: " + msg.err.Error()

	case tickMsg:
		cmds = append(cmds, m.fetchSnapshot(), m.tickRefresh())
		if m.owner != "" {
			cmds = append(cmds, m.fetchPortfolio())
		}
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusMarket:
		m.marketPanel, cmd = m.marketPanel.Update(msg)
	case FocusFeed:
		m.feedPanel, cmd = m.feedPanel.Update(msg)
	case FocusPortfolio:
		m.portfolioPanel, cmd = m.portfolioPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	m.marketPanel.SetFocus(m.focusedPanel == FocusMarket)
	m.feedPanel.SetFocus(m.focusedPanel == FocusFeed)
	m.portfolioPanel.SetFocus(m.focusedPanel == FocusPortfolio)

	// Layout:
	// ┌──────────────────────────┬──────────────┐
	// │          Market          │              │
	// ├──────────────────────────┤  Event Feed  │
	// │         Portfolio        │              │
	// └──────────────────────────┴──────────────┘

	leftWidth := m.width * 3 / 5
	rightWidth := m.width - leftWidth

	bodyHeight := m.height - 1
	topHeight := bodyHeight * 3 / 5
	bottomHeight := bodyHeight - topHeight

	m.marketPanel.SetSize(leftWidth, topHeight)
	m.portfolioPanel.SetSize(leftWidth, bottomHeight)
	m.feedPanel.SetSize(rightWidth, bodyHeight)

	leftColumn := lipgloss.JoinVertical(lipgloss.Left,
		m.marketPanel.View(),
		m.portfolioPanel.View(),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		leftColumn,
		m.feedPanel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	st := m.snapshot.State
	left := fmt.Sprintf(" tick %d │ %s x%.2f │ idx %.1f │ vol %.3f",
		st.Tick, st.Trend, st.Multiplier, st.Index, st.VolatilityIndex)

	help := styles.HighlightStyle.Render("tab") + " panels │ " +
		styles.HighlightStyle.Render("↑↓") + " select │ " +
		styles.HighlightStyle.Render("r") + " refresh │ " +
		styles.HighlightStyle.Render("q") + " quit"

	status := ""
	if m.statusMsg != "" {
		status = " │ " + styles.DownStyle.Render(m.statusMsg)
	}

	return styles.StatusBarStyle.Width(m.width).Render(left + " │ " + help + status)
}

// snapshotMsg carries a fresh market snapshot from the API.
type snapshotMsg struct {
	snapshot exchange.MarketSnapshot
}

// portfolioMsg carries the tracked owner's portfolio from the API.
type portfolioMsg struct {
	view exchange.PortfolioView
}

type fetchErrMsg struct {
	err error
}

// tickMsg is sent periodically to refresh data.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *Model) fetchSnapshot() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		snap, err := m.api.Market(ctx)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return snapshotMsg{snapshot: snap}
	}
}

func (m *Model) fetchPortfolio() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		view, err := m.api.Portfolio(ctx, m.owner)
		if err != nil {
			return fetchErrMsg{err: err}
		}
		return portfolioMsg{view: view}
	}
}

// Run starts the dashboard against the given API client. It blocks until the
// user quits.
func Run(api *client.Client, owner string) error {
	p := tea.NewProgram(NewModel(api, owner), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
