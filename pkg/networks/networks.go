// Package networks holds the catalog of chains the agent can operate on.
// Registry contract addresses are fixed per network; altering them breaks
// compatibility with the deployed contracts.
package networks

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/DeBrosOfficial/agentpay/pkg/errors"
)

// ContractAddresses holds the pre-deployed registry contracts for a network.
type ContractAddresses struct {
	Identity   common.Address
	Reputation common.Address
	Validation common.Address
}

// NativeCurrency describes a network's gas token.
type NativeCurrency struct {
	Symbol   string
	Decimals int
}

// Network describes a supported chain.
type Network struct {
	Name           string
	ChainID        int64
	RPCURL         string
	ExplorerURL    string
	NativeCurrency NativeCurrency
	Contracts      ContractAddresses

	// USDC is the canonical USDC token contract on this network.
	USDC common.Address

	// Treasury receives the protocol fee leg of each settlement.
	Treasury common.Address
}

var catalog = map[string]Network{
	"ethereum": {
		Name:           "ethereum",
		ChainID:        1,
		RPCURL:         "https://eth.llamarpc.com",
		ExplorerURL:    "https://etherscan.io",
		NativeCurrency: NativeCurrency{Symbol: "ETH", Decimals: 18},
		Contracts: ContractAddresses{
			Identity:   common.HexToAddress("0x8004A818BFC14C3a8B1d9774b74E2ce95D559a84"),
			Reputation: common.HexToAddress("0x8004B663056A597Dffe9eCcC1965F193F3dD918b"),
			Validation: common.HexToAddress("0x8004C2eC0E823601bCaa8793b83dDDe139e58a61"),
		},
		USDC:     common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		Treasury: common.HexToAddress("0x1ab52EcC6a7b4893b04f9e22cBcBae80035E5bB8"),
	},
	"sepolia": {
		Name:           "sepolia",
		ChainID:        11155111,
		RPCURL:         "https://ethereum-sepolia-rpc.publicnode.com",
		ExplorerURL:    "https://sepolia.etherscan.io",
		NativeCurrency: NativeCurrency{Symbol: "ETH", Decimals: 18},
		Contracts: ContractAddresses{
			Identity:   common.HexToAddress("0x8004A818BFC14C3a8B1d9774b74E2ce95D559a84"),
			Reputation: common.HexToAddress("0x8004B663056A597Dffe9eCcC1965F193F3dD918b"),
			Validation: common.HexToAddress("0x8004C2eC0E823601bCaa8793b83dDDe139e58a61"),
		},
		USDC:     common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"),
		Treasury: common.HexToAddress("0x1ab52EcC6a7b4893b04f9e22cBcBae80035E5bB8"),
	},
	"base": {
		Name:           "base",
		ChainID:        8453,
		RPCURL:         "https://mainnet.base.org",
		ExplorerURL:    "https://basescan.org",
		NativeCurrency: NativeCurrency{Symbol: "ETH", Decimals: 18},
		Contracts: ContractAddresses{
			Identity:   common.HexToAddress("0x8004A818BFC14C3a8B1d9774b74E2ce95D559a84"),
			Reputation: common.HexToAddress("0x8004B663056A597Dffe9eCcC1965F193F3dD918b"),
			Validation: common.HexToAddress("0x8004C2eC0E823601bCaa8793b83dDDe139e58a61"),
		},
		USDC:     common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		Treasury: common.HexToAddress("0x1ab52EcC6a7b4893b04f9e22cBcBae80035E5bB8"),
	},
	"base-sepolia": {
		Name:           "base-sepolia",
		ChainID:        84532,
		RPCURL:         "https://sepolia.base.org",
		ExplorerURL:    "https://sepolia.basescan.org",
		NativeCurrency: NativeCurrency{Symbol: "ETH", Decimals: 18},
		Contracts: ContractAddresses{
			Identity:   common.HexToAddress("0x8004A818BFC14C3a8B1d9774b74E2ce95D559a84"),
			Reputation: common.HexToAddress("0x8004B663056A597Dffe9eCcC1965F193F3dD918b"),
			Validation: common.HexToAddress("0x8004C2eC0E823601bCaa8793b83dDDe139e58a61"),
		},
		USDC:     common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
		Treasury: common.HexToAddress("0x1ab52EcC6a7b4893b04f9e22cBcBae80035E5bB8"),
	},
	"polygon": {
		Name:           "polygon",
		ChainID:        137,
		RPCURL:         "https://polygon-rpc.com",
		ExplorerURL:    "https://polygonscan.com",
		NativeCurrency: NativeCurrency{Symbol: "POL", Decimals: 18},
		Contracts: ContractAddresses{
			Identity:   common.HexToAddress("0x8004A818BFC14C3a8B1d9774b74E2ce95D559a84"),
			Reputation: common.HexToAddress("0x8004B663056A597Dffe9eCcC1965F193F3dD918b"),
			Validation: common.HexToAddress("0x8004C2eC0E823601bCaa8793b83dDDe139e58a61"),
		},
		USDC:     common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"),
		Treasury: common.HexToAddress("0x1ab52EcC6a7b4893b04f9e22cBcBae80035E5bB8"),
	},
}

// Lookup returns the network info for a supported network name.
// Unknown names return an UnsupportedNetworkError naming the offender.
func Lookup(name string) (Network, error) {
	n, ok := catalog[name]
	if !ok {
		return Network{}, errors.NewUnsupportedNetworkError(name)
	}
	return n, nil
}

// IsSupported reports whether a network name is in the catalog.
func IsSupported(name string) bool {
	_, ok := catalog[name]
	return ok
}

// Names returns the supported network names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
