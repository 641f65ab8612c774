package wallet

import "walletbridge/pkg/models"

// UnknownNetwork is the sentinel name providers report for chains they have
// no display name for.
const UnknownNetwork = "unknown"

var chainNames = map[int64]string{
	137:      "Polygon",
	80002:    "Amoy (Polygon testnet)",
	11155111: "Sepolia (Ethereum testnet)",
}

// NetworkName looks up the display name for a chain id.
func NetworkName(chainID int64) (string, bool) {
	name, ok := chainNames[chainID]
	return name, ok
}

// EnrichNetworkName fills in the descriptor's name when the provider reported
// the sentinel. Names the provider did supply are left untouched, as are
// sentinels for chain ids we have no entry for.
func EnrichNetworkName(n *models.NetworkDescriptor) {
	if n == nil || n.Name != UnknownNetwork {
		return
	}
	if name, ok := chainNames[n.ChainID]; ok {
		n.Name = name
	}
}
