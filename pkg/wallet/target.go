package wallet

import (
	"walletbridge/pkg/models"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// AmoyChainID is the chain id every connection must end up on.
const AmoyChainID int64 = 80002

// Amoy is the required target network. The descriptor must match what the
// wallet expects bit-for-bit or reconciliation fails.
var Amoy = models.TargetNetwork{
	ChainID:     AmoyChainID,
	HexChainID:  hexutil.EncodeUint64(uint64(AmoyChainID)), // "0x13882"
	DisplayName: "Polygon Amoy Testnet",
	NativeCurrency: models.NativeCurrency{
		Name:     "POL",
		Symbol:   "POL",
		Decimals: 18,
	},
	RPCURLs:           []string{"https://rpc-amoy.polygon.technology"},
	BlockExplorerURLs: []string{"https://amoy.polygonscan.com/"},
}

// addChainParam builds the wallet_addEthereumChain parameter for a target.
func addChainParam(target models.TargetNetwork) models.AddChainParam {
	return models.AddChainParam{
		ChainID:           target.HexChainID,
		ChainName:         target.DisplayName,
		NativeCurrency:    target.NativeCurrency,
		RPCURLs:           target.RPCURLs,
		BlockExplorerURLs: target.BlockExplorerURLs,
	}
}
