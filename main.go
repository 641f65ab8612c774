package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"walletbridge/pkg/config"
	"walletbridge/pkg/models"
	"walletbridge/pkg/provider"
	"walletbridge/pkg/server"
	"walletbridge/pkg/tui"
	"walletbridge/pkg/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Version should be set during build
var Version = "dev"

func main() {
	testFlag := flag.Bool("t", false, "Probe the bridge endpoint and exit")
	testLongFlag := flag.Bool("test", false, "Probe the bridge endpoint and exit")
	jsonFlag := flag.Bool("json", false, "Output probe results as JSON")
	configFlag := flag.String("config", "", "Path to configuration file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	serverFlag := flag.Bool("server", false, "Run in headless server mode")
	portFlag := flag.Int("port", 0, "Port for API server (overrides config)")
	noProbeFlag := flag.Bool("no-probe", false, "Skip the startup silent probe")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("walletbridge version %s\n", Version)
		os.Exit(0)
	}

	cfgInput := *configFlag
	if cfgInput == "" && len(flag.Args()) > 0 {
		cfgInput = flag.Args()[0]
	}
	path, err := config.GetConfigPath(cfgInput)
	if err != nil {
		fmt.Printf("Error determining config path: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfigFromFile(path)
	if err != nil {
		fmt.Printf("Error loading config from %s: %v\n", path, err)
		os.Exit(1)
	}

	bridge := provider.NewBridge(cfg)
	defer func() { _ = bridge.Close() }()

	if *testFlag || *testLongFlag {
		report := probeReport(bridge, config.ResolveBridgeURL(cfg))
		if *jsonFlag {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		} else {
			printProbeReport(report)
		}
		if !report.Available || report.Error != "" {
			os.Exit(1)
		}
		os.Exit(0)
	}

	port := cfg.ServerPort
	if *portFlag != 0 {
		port = *portFlag
	}

	logger := setupLogger(cfg, *serverFlag)
	ctrl := wallet.New(bridge,
		wallet.WithLogger(logger),
		wallet.WithReloadFunc(reloadProcess(logger)),
	)

	ctrl.Start(context.Background(), cfg.SilentProbe && !*noProbeFlag)
	defer ctrl.Stop()

	srv := server.NewServer(ctrl)
	go func() {
		if err := srv.Start(port); err != nil {
			logger.Error("server error", "err", err)
		}
	}()

	if *serverFlag {
		fmt.Printf("Running in server mode on port %d...\n", port)
		select {} // Keep alive
	}

	tui.Start(ctrl, bridge, cfg, Version)
}

// probeReport checks the bridge endpoint the way -t checks configuration:
// reachability, current chain, and which accounts are already authorized.
func probeReport(p provider.Provider, bridgeURL string) models.ProbeReport {
	report := models.ProbeReport{
		BridgeURL:     bridgeURL,
		TargetChainID: wallet.Amoy.ChainID,
	}

	if !p.Available() {
		report.Error = "no wallet provider reachable"
		return report
	}
	report.Available = true

	ctx := context.Background()
	res, err := p.Request(ctx, "eth_chainId")
	if err != nil {
		report.Error = err.Error()
		return report
	}
	var hexID string
	if err := json.Unmarshal(res, &hexID); err != nil {
		report.Error = fmt.Sprintf("malformed chain id response: %v", err)
		return report
	}
	id, err := hexutil.DecodeBig(hexID)
	if err != nil {
		report.Error = fmt.Sprintf("malformed chain id %q: %v", hexID, err)
		return report
	}
	report.ChainID = id.Int64()
	if name, ok := wallet.NetworkName(report.ChainID); ok {
		report.ChainName = name
	}
	report.TargetMatch = report.ChainID == wallet.Amoy.ChainID

	res, err = p.Request(ctx, "eth_accounts")
	if err != nil {
		report.Error = err.Error()
		return report
	}
	var accounts []string
	if err := json.Unmarshal(res, &accounts); err != nil {
		report.Error = fmt.Sprintf("malformed accounts response: %v", err)
		return report
	}
	report.AuthorizedCount = len(accounts)
	for _, a := range accounts {
		if !common.IsHexAddress(a) {
			report.InvalidAccounts = append(report.InvalidAccounts, a)
		}
	}
	return report
}

func printProbeReport(r models.ProbeReport) {
	fmt.Printf("Probing bridge endpoint: %s\n", r.BridgeURL)
	if !r.Available {
		fmt.Printf("Provider unavailable: %s\n", r.Error)
		return
	}
	if r.Error != "" {
		fmt.Printf("Probe failed: %s\n", r.Error)
		return
	}
	name := r.ChainName
	if name == "" {
		name = "unknown"
	}
	fmt.Printf("Current chain: %d (%s)\n", r.ChainID, name)
	if r.TargetMatch {
		fmt.Printf("Target chain %d - Verified\n", r.TargetChainID)
	} else {
		fmt.Printf("Target chain %d - MISMATCH! Connect will reconcile.\n", r.TargetChainID)
	}
	fmt.Printf("Authorized accounts: %d\n", r.AuthorizedCount)
	for _, a := range r.InvalidAccounts {
		fmt.Printf("  WARNING: invalid account identifier %q\n", a)
	}
}

func setupLogger(cfg config.Config, serverMode bool) *slog.Logger {
	if serverMode {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	// The console owns the terminal; diagnostics go to a file or nowhere.
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err == nil {
			return slog.New(slog.NewJSONHandler(f, nil))
		}
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// reloadProcess restarts the whole program, the blunt-instrument recovery for
// an out-of-band chain switch.
func reloadProcess(log *slog.Logger) func() {
	return func() {
		log.Warn("restarting after out-of-band chain change")
		exe, err := os.Executable()
		if err == nil {
			cmd := exec.Command(exe, os.Args[1:]...)
			cmd.Stdout = os.Stdout
			cmd.Stderr = os.Stderr
			cmd.Stdin = os.Stdin
			if err := cmd.Start(); err == nil {
				os.Exit(0)
			}
		}
		os.Exit(wallet.ExitCodeReload)
	}
}
