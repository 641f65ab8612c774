package tui

import (
	"fmt"
	"os"

	"walletbridge/pkg/config"
	"walletbridge/pkg/provider"
	"walletbridge/pkg/wallet"

	tea "github.com/charmbracelet/bubbletea"
)

func Start(ctrl *wallet.Controller, bridge *provider.Bridge, cfg config.Config, version string) {
	Version = version
	p := tea.NewProgram(
		initialModel(ctrl, bridge, cfg),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
