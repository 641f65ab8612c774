package tui

import (
	"time"

	"walletbridge/pkg/config"
	"walletbridge/pkg/models"
	"walletbridge/pkg/provider"
	"walletbridge/pkg/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Version is set by Start()
var Version = "dev"

const eventLogSize = 10

// --- Messages ---

type clearStatusMsg struct{}
type uiTickMsg time.Time
type connectResultMsg struct {
	state *models.ConnectionState
	err   error
}

// --- Model ---

type model struct {
	ctrl   *wallet.Controller
	bridge *provider.Bridge
	sub    wallet.Subscriber
	cfg    config.Config

	state         models.ConnectionState
	events        []string
	latencies     []float64
	bridgeUp      bool
	connecting    bool
	statusMessage string
	lastUpdate    time.Time
	showHelp      bool
	showGraph     bool
	spinner       spinner.Model
	width         int
	height        int
}

func initialModel(ctrl *wallet.Controller, bridge *provider.Bridge, cfg config.Config) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		ctrl:    ctrl,
		bridge:  bridge,
		sub:     ctrl.Subscribe(),
		cfg:     cfg,
		state:   ctrl.Snapshot(),
		spinner: s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		listenForEvents(m.sub),
		checkBridge(m.bridge),
		m.spinner.Tick,
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return uiTickMsg(t) }),
	)
}

// listenForEvents waits for the next published wallet event on the one
// subscription held for the console's lifetime.
func listenForEvents(sub wallet.Subscriber) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}
