package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"walletbridge/pkg/models"
	"walletbridge/pkg/provider"
	"walletbridge/pkg/utils"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Controller owns the connection state machine: it drives the connect and
// network-reconciliation protocol, reacts to provider-originated events, and
// republishes a consistent snapshot after every commit.
type Controller struct {
	provider provider.Provider
	target   models.TargetNetwork
	reload   func()
	log      *slog.Logger

	mu    sync.RWMutex
	state models.ConnectionState

	// Serializes Connect; a second caller waits, then observes the already
	// reconciled provider and commits the same result.
	connectMu sync.Mutex

	pubMu       sync.RWMutex
	subscribers []Subscriber

	startOnce sync.Once
	subs      []*provider.Subscription
}

// Option configures a Controller.
type Option func(*Controller)

func WithTarget(target models.TargetNetwork) Option {
	return func(c *Controller) { c.target = target }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithReloadFunc sets the hard-reset hook invoked on an out-of-band chain
// switch. The default terminates the process; main installs a re-exec.
func WithReloadFunc(fn func()) Option {
	return func(c *Controller) { c.reload = fn }
}

// ExitCodeReload is the default exit status after an out-of-band chain
// switch, signalling a supervisor to restart us.
const ExitCodeReload = 3

func New(p provider.Provider, opts ...Option) *Controller {
	c := &Controller{
		provider: p,
		target:   Amoy,
		log:      slog.Default(),
		reload:   func() { os.Exit(ExitCodeReload) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the one-shot silent probe and installs the provider event
// subscriptions. Safe to call once per process; repeat calls are no-ops.
func (c *Controller) Start(ctx context.Context, silentProbe bool) {
	c.startOnce.Do(func() {
		if silentProbe && c.provider.Available() {
			c.probe(ctx)
		}
		c.subs = append(c.subs,
			c.provider.Subscribe(provider.EventAccountsChanged, c.handleAccountsChanged),
			c.provider.Subscribe(provider.EventChainChanged, c.handleChainChanged),
		)
	})
}

// Stop releases the provider event subscriptions.
func (c *Controller) Stop() {
	for _, sub := range c.subs {
		sub.Cancel()
	}
	c.subs = nil
}

// probe adopts an already-authorized account without prompting the user and
// without running network reconciliation.
func (c *Controller) probe(ctx context.Context) {
	res, err := c.provider.Request(ctx, "eth_accounts")
	if err != nil {
		c.log.Debug("silent probe failed", "err", err)
		return
	}
	var accounts []string
	if err := json.Unmarshal(res, &accounts); err != nil || len(accounts) == 0 {
		return
	}

	c.mu.Lock()
	c.state.Connected = true
	c.state.Address = accounts[0]
	c.state.TruncatedAddress = utils.TruncateAddress(accounts[0])
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("silent probe adopted authorized account", "address", state.TruncatedAddress)
	c.notify(Event{Type: EventConnected, Data: state})
}

// Connect runs the full connection protocol: request account authorization,
// reconcile the provider onto the target network, commit and publish. On any
// failure the state is left untouched; partial results are never visible to
// subscribers.
func (c *Controller) Connect(ctx context.Context) (*models.ConnectionState, error) {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if !c.provider.Available() {
		err := provider.ErrUnavailable
		c.fail(err, "No wallet provider detected")
		return nil, err
	}

	res, err := c.provider.Request(ctx, "eth_requestAccounts")
	if err != nil {
		c.fail(err, "Wallet connection failed")
		return nil, err
	}
	var accounts []string
	if err := json.Unmarshal(res, &accounts); err != nil {
		c.fail(err, "Wallet connection failed")
		return nil, err
	}
	// An empty account list is a valid, if unusual, outcome.
	address := ""
	if len(accounts) > 0 {
		address = accounts[0]
	}

	network, err := c.currentNetwork(ctx)
	if err != nil {
		c.fail(err, "Wallet connection failed")
		return nil, err
	}

	if network.ChainID != c.target.ChainID {
		if err := c.reconcile(ctx, network.ChainID); err != nil {
			c.fail(err, "Network switch failed")
			return nil, err
		}
		network, err = c.currentNetwork(ctx)
		if err != nil {
			c.fail(err, "Wallet connection failed")
			return nil, err
		}
	}
	EnrichNetworkName(&network)

	c.mu.Lock()
	c.state = models.ConnectionState{
		Connected:        address != "",
		Address:          address,
		TruncatedAddress: utils.TruncateAddress(address),
		Network:          &network,
	}
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("wallet connected",
		"address", state.TruncatedAddress,
		"chain_id", network.ChainID,
		"network", network.Name)
	c.notify(Event{Type: EventConnected, Data: state})
	return &state, nil
}

// reconcile drives the provider onto the target chain: switch first, and if
// the wallet does not know the chain yet (code 4902), register it with the
// full descriptor.
func (c *Controller) reconcile(ctx context.Context, current int64) error {
	c.log.Info("chain mismatch, reconciling",
		"current", current, "target", c.target.ChainID)

	_, err := c.provider.Request(ctx, "wallet_switchEthereumChain",
		models.SwitchChainParam{ChainID: c.target.HexChainID})
	if err == nil {
		return nil
	}

	var rpcErr *provider.RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != provider.CodeChainNotRegistered {
		return fmt.Errorf("switch to %s rejected: %w", c.target.DisplayName, err)
	}

	c.log.Info("target chain not registered with wallet, adding",
		"chain", c.target.DisplayName)
	_, err = c.provider.Request(ctx, "wallet_addEthereumChain", addChainParam(c.target))
	if err != nil {
		return fmt.Errorf("add chain %s rejected: %w", c.target.DisplayName, err)
	}
	return nil
}

// currentNetwork reads the provider's chain id. The provider reports no
// display name, so the descriptor starts with the sentinel.
func (c *Controller) currentNetwork(ctx context.Context) (models.NetworkDescriptor, error) {
	res, err := c.provider.Request(ctx, "eth_chainId")
	if err != nil {
		return models.NetworkDescriptor{}, err
	}
	var hexID string
	if err := json.Unmarshal(res, &hexID); err != nil {
		return models.NetworkDescriptor{}, fmt.Errorf("malformed chain id response: %w", err)
	}
	id, err := hexutil.DecodeBig(hexID)
	if err != nil {
		return models.NetworkDescriptor{}, fmt.Errorf("malformed chain id %q: %w", hexID, err)
	}
	return models.NetworkDescriptor{Name: UnknownNetwork, ChainID: id.Int64()}, nil
}

// fail reports a connect failure: diagnostic to the log, user-facing notice
// to subscribers. State is never mutated on this path.
func (c *Controller) fail(err error, notice string) {
	c.log.Error("connect attempt failed", "err", err)
	c.notify(Event{Type: EventNotice, Data: fmt.Sprintf("%s: %v", notice, err)})
}

func (c *Controller) handleAccountsChanged(payload json.RawMessage) {
	var accounts []string
	if err := json.Unmarshal(payload, &accounts); err != nil {
		c.log.Warn("malformed accountsChanged payload", "err", err)
		return
	}

	if len(accounts) == 0 {
		// Wallet revoked authorization: full disconnect, network cleared.
		c.mu.Lock()
		c.state = models.ConnectionState{}
		state := c.snapshotLocked()
		c.mu.Unlock()

		c.log.Info("wallet disconnected (no authorized accounts)")
		c.notify(Event{Type: EventDisconnected, Data: state})
		return
	}

	c.mu.Lock()
	if !c.state.Connected {
		c.mu.Unlock()
		return
	}
	c.state.Address = accounts[0]
	c.state.TruncatedAddress = utils.TruncateAddress(accounts[0])
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info("active account switched", "address", state.TruncatedAddress)
	c.notify(Event{Type: EventAccountChanged, Data: state})
}

// handleChainChanged hard-resets the process. Reconciling in place after an
// out-of-band chain switch would leave in-memory state inconsistent with the
// provider, so the whole environment restarts instead.
func (c *Controller) handleChainChanged(payload json.RawMessage) {
	c.log.Warn("provider chain changed out of band, reloading", "payload", string(payload))
	c.notify(Event{Type: EventChainChanged, Data: string(payload)})
	c.reload()
}

// Snapshot returns a copy of the current connection state.
func (c *Controller) Snapshot() models.ConnectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() models.ConnectionState {
	state := c.state
	if c.state.Network != nil {
		network := *c.state.Network
		state.Network = &network
	}
	return state
}

// Provider exposes the live provider handle for callers needing direct
// interaction beyond the published state.
func (c *Controller) Provider() provider.Provider {
	return c.provider
}

// Target returns the network connections are reconciled onto.
func (c *Controller) Target() models.TargetNetwork {
	return c.target
}
