package tui

import (
	"context"
	"fmt"
	"time"

	"walletbridge/pkg/models"
	"walletbridge/pkg/provider"
	"walletbridge/pkg/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case wallet.Event:
		cmds = append(cmds, listenForEvents(m.sub))
		m.logEvent(msg)
		if state, ok := msg.Data.(models.ConnectionState); ok {
			m.state = state
		}
		if msg.Type == wallet.EventNotice {
			if notice, ok := msg.Data.(string); ok {
				m.statusMessage = notice
				cmds = append(cmds, clearStatusAfter(5*time.Second))
			}
		}
		m.lastUpdate = time.Now()

	case connectResultMsg:
		m.connecting = false
		if msg.err != nil {
			// The failure notice arrives via the event feed; nothing more here.
			break
		}
		if msg.state != nil {
			m.state = *msg.state
		}
		m.statusMessage = "Wallet connected"
		cmds = append(cmds, clearStatusAfter(2*time.Second))

	case uiTickMsg:
		m.latencies = m.bridge.Latencies()
		cmds = append(cmds,
			checkBridge(m.bridge),
			tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
		)

	case bridgeStatusMsg:
		m.bridgeUp = bool(msg)

	case clearStatusMsg:
		m.statusMessage = ""

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "?" {
			m.showHelp = !m.showHelp
			return m, nil
		}
		if m.showHelp {
			if msg.String() == "q" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			if m.showGraph {
				m.showGraph = false
				return m, nil
			}
			m.ctrl.Unsubscribe(m.sub)
			return m, tea.Quit

		case "c":
			if m.connecting {
				break
			}
			m.connecting = true
			m.statusMessage = "Connecting..."
			ctrl := m.ctrl
			cmds = append(cmds, func() tea.Msg {
				state, err := ctrl.Connect(context.Background())
				return connectResultMsg{state: state, err: err}
			})

		case "y":
			if m.state.Address == "" {
				m.statusMessage = "No address to copy"
			} else if err := clipboard.WriteAll(m.state.Address); err != nil {
				m.statusMessage = "Failed to copy to clipboard"
			} else {
				m.statusMessage = "Full address copied to clipboard!"
			}
			cmds = append(cmds, clearStatusAfter(2*time.Second))

		case "g":
			m.showGraph = !m.showGraph
		}
	}

	if m.connecting {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

type bridgeStatusMsg bool

// checkBridge re-inspects provider presence off the UI loop; Available may
// dial.
func checkBridge(b *provider.Bridge) tea.Cmd {
	return func() tea.Msg {
		return bridgeStatusMsg(b.Available())
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m *model) logEvent(ev wallet.Event) {
	line := fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), describeEvent(ev))
	m.events = append(m.events, line)
	if len(m.events) > eventLogSize {
		m.events = m.events[len(m.events)-eventLogSize:]
	}
}

func describeEvent(ev wallet.Event) string {
	switch ev.Type {
	case wallet.EventConnected:
		if state, ok := ev.Data.(models.ConnectionState); ok {
			return fmt.Sprintf("connected as %s", state.TruncatedAddress)
		}
		return "connected"
	case wallet.EventDisconnected:
		return "wallet disconnected"
	case wallet.EventAccountChanged:
		if state, ok := ev.Data.(models.ConnectionState); ok {
			return fmt.Sprintf("account switched to %s", state.TruncatedAddress)
		}
		return "account switched"
	case wallet.EventChainChanged:
		return "chain changed out of band"
	case wallet.EventNotice:
		if notice, ok := ev.Data.(string); ok {
			return notice
		}
		return "notice"
	default:
		return string(ev.Type)
	}
}
