package models

// NetworkDescriptor identifies the chain the provider is currently on. The
// provider only reports a numeric chain id; Name starts as the sentinel
// "unknown" until enriched.
type NetworkDescriptor struct {
	Name    string `json:"name"`
	ChainID int64  `json:"chain_id"`
}

// ConnectionState is the snapshot republished to every consumer. Connected is
// true iff Address is non-empty. Network is populated once a connect attempt
// has completed against a live provider.
type ConnectionState struct {
	Connected        bool               `json:"connected"`
	Address          string             `json:"address"`
	TruncatedAddress string             `json:"truncated_address"`
	Network          *NetworkDescriptor `json:"network,omitempty"`
}

// NativeCurrency describes a chain's native coin as wallets expect it.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// TargetNetwork is the single chain connections are required to land on.
// Never mutated at runtime.
type TargetNetwork struct {
	ChainID           int64
	HexChainID        string
	DisplayName       string
	NativeCurrency    NativeCurrency
	RPCURLs           []string
	BlockExplorerURLs []string
}

// SwitchChainParam is the wire parameter of wallet_switchEthereumChain.
type SwitchChainParam struct {
	ChainID string `json:"chainId"`
}

// AddChainParam is the wire parameter of wallet_addEthereumChain.
type AddChainParam struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

// ProbeReport holds the results of a bridge probe (-t flag).
type ProbeReport struct {
	BridgeURL       string   `json:"bridge_url"`
	Available       bool     `json:"available"`
	Error           string   `json:"error,omitempty"`
	ChainID         int64    `json:"chain_id,omitempty"`
	ChainName       string   `json:"chain_name,omitempty"`
	TargetChainID   int64    `json:"target_chain_id"`
	TargetMatch     bool     `json:"target_match"`
	AuthorizedCount int      `json:"authorized_count"`
	InvalidAccounts []string `json:"invalid_accounts,omitempty"`
}
