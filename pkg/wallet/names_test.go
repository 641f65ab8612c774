package wallet

import (
	"testing"

	"walletbridge/pkg/models"
)

func TestEnrichNetworkName(t *testing.T) {
	tests := []struct {
		name     string
		input    models.NetworkDescriptor
		expected string
	}{
		{"polygon mainnet", models.NetworkDescriptor{Name: "unknown", ChainID: 137}, "Polygon"},
		{"amoy", models.NetworkDescriptor{Name: "unknown", ChainID: 80002}, "Amoy (Polygon testnet)"},
		{"sepolia", models.NetworkDescriptor{Name: "unknown", ChainID: 11155111}, "Sepolia (Ethereum testnet)"},
		{"unmapped chain keeps sentinel", models.NetworkDescriptor{Name: "unknown", ChainID: 42161}, "unknown"},
		{"provider-supplied name untouched", models.NetworkDescriptor{Name: "matic-amoy", ChainID: 80002}, "matic-amoy"},
		{"named mainnet untouched", models.NetworkDescriptor{Name: "homestead", ChainID: 1}, "homestead"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.input
			EnrichNetworkName(&n)
			if n.Name != tt.expected {
				t.Errorf("EnrichNetworkName(%+v) name = %q; want %q", tt.input, n.Name, tt.expected)
			}
			if n.ChainID != tt.input.ChainID {
				t.Errorf("chain id mutated: %d -> %d", tt.input.ChainID, n.ChainID)
			}
		})
	}
}

func TestEnrichNetworkName_Nil(t *testing.T) {
	EnrichNetworkName(nil) // must not panic
}

func TestNetworkName(t *testing.T) {
	if name, ok := NetworkName(137); !ok || name != "Polygon" {
		t.Errorf("NetworkName(137) = %q, %v", name, ok)
	}
	if _, ok := NetworkName(99999); ok {
		t.Error("NetworkName(99999) should not resolve")
	}
}
