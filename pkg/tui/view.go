package tui

import (
	"fmt"
	"strings"

	"walletbridge/pkg/config"
	"walletbridge/pkg/utils"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

func (m model) View() string {
	if m.showHelp {
		return m.viewHelp()
	}
	if m.showGraph {
		return m.viewLatencyGraph()
	}

	header := titleStyle.Render(fmt.Sprintf("walletbridge %s", Version))

	status := disconnectedStyle.Render("Disconnected")
	if m.connecting {
		status = m.spinner.View() + " Connecting..."
	} else if m.state.Connected {
		status = connectedStyle.Render("Connected")
	}

	address := subtleStyle.Render("none")
	if m.state.Address != "" {
		address = m.state.TruncatedAddress
	}

	network := subtleStyle.Render("not reconciled")
	if m.state.Network != nil {
		marker := noticeStyle.Render("≠ target")
		if m.state.Network.ChainID == m.ctrl.Target().ChainID {
			marker = connectedStyle.Render("✓ target")
		}
		network = fmt.Sprintf("%s (chain %d) %s", m.state.Network.Name, m.state.Network.ChainID, marker)
	}

	endpoint := config.ResolveBridgeURL(m.cfg)
	var bridge string
	if endpoint == "" {
		bridge = disconnectedStyle.Render("no endpoint configured")
	} else if m.bridgeUp {
		bridge = connectedStyle.Render("reachable") + subtleStyle.Render(" "+endpoint)
	} else {
		bridge = disconnectedStyle.Render("unreachable") + subtleStyle.Render(" "+endpoint)
	}

	statePanel := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("Status")+status,
		labelStyle.Render("Account")+address,
		labelStyle.Render("Network")+network,
		labelStyle.Render("Bridge")+bridge,
	))

	logLines := "no events yet"
	if len(m.events) > 0 {
		var rows []string
		for _, e := range m.events {
			rows = append(rows, utils.TruncateString(e, 76))
		}
		logLines = strings.Join(rows, "\n")
	}
	eventPanel := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		subtleStyle.Render("Events"),
		logLines,
	))

	footer := subtleStyle.Render("(c) connect • (y) copy address • (g) latency • (?) help • (q) quit")

	var parts []string
	parts = append(parts, header, statePanel, eventPanel)
	if m.statusMessage != "" {
		parts = append(parts, noticeStyle.Render(m.statusMessage))
	}
	parts = append(parts, footer)

	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m model) viewLatencyGraph() string {
	var body string
	if len(m.latencies) < 2 {
		body = subtleStyle.Render("Not enough samples yet. Provider requests populate this graph.")
	} else {
		body = asciigraph.Plot(m.latencies,
			asciigraph.Height(10),
			asciigraph.Width(max(20, m.width-10)),
			asciigraph.Caption("provider request latency (ms)"),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Bridge Latency"),
		boxStyle.Render(body),
		subtleStyle.Render("(g/q) back"),
	) + "\n"
}

func (m model) viewHelp() string {
	rows := []string{
		"c      request wallet connection (runs network reconciliation)",
		"y      copy the full active address to the clipboard",
		"g      toggle the provider latency graph",
		"?      toggle this help",
		"q      quit",
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Help"),
		boxStyle.Render(strings.Join(rows, "\n")),
		subtleStyle.Render("(q/esc/?) close"),
	) + "\n"
}
