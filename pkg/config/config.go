// Package config holds the agent configuration surface: identity, target
// network, wallet material, feature toggles and provider credentials.
package config

import (
	"time"

	"github.com/DeBrosOfficial/agentpay/pkg/storage"
)

// Config is the root agent configuration.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Network   NetworkConfig   `yaml:"network"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Storage   StorageConfig   `yaml:"storage"`
	Paywall   PaywallConfig   `yaml:"paywall"`
	Integrity IntegrityConfig `yaml:"integrity"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AgentConfig identifies the agent.
type AgentConfig struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
	Role   string `yaml:"role"` // "server", "client" or "hybrid"
}

// NetworkConfig selects the chain the agent operates on.
type NetworkConfig struct {
	// Name must be a supported network ("base-sepolia", "base", ...).
	Name string `yaml:"name"`

	// RPCURL overrides the network's default RPC endpoint.
	RPCURL string `yaml:"rpc_url"`

	// ReceiptPollInterval controls transaction confirmation polling.
	// If zero, defaults to 2 seconds.
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval"`
}

// WalletConfig supplies signing material. Exactly one of PrivateKey,
// Mnemonic or KeystoreFile should be set; all empty means read-only.
type WalletConfig struct {
	PrivateKey string `yaml:"private_key"`
	Mnemonic   string `yaml:"mnemonic"`

	// AccountIndex selects the derivation index for mnemonic wallets.
	AccountIndex uint32 `yaml:"account_index"`

	KeystoreFile       string `yaml:"keystore_file"`
	KeystorePassphrase string `yaml:"keystore_passphrase"`
}

// PaymentsConfig controls payment execution.
type PaymentsConfig struct {
	Enabled bool `yaml:"enabled"`

	// FeePercent is the protocol fee percentage; defaults to 2.5.
	FeePercent float64 `yaml:"fee_percent"`

	// TokenSecret signs payment tokens minted after settlement.
	TokenSecret string `yaml:"token_secret"`

	// ReceiptStorePath is the SQLite file persisting receipts.
	// Empty disables persistence; ":memory:" keeps an ephemeral store.
	ReceiptStorePath string `yaml:"receipt_store_path"`
}

// StorageConfig controls evidence storage.
type StorageConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Backends storage.Config `yaml:"backends"`
}

// PaywallConfig controls the paywall HTTP server.
type PaywallConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`

	// Recipient overrides the payment recipient; defaults to the
	// agent's own wallet address.
	Recipient string `yaml:"recipient"`
}

// IntegrityConfig controls verified execution of registered functions.
type IntegrityConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Colors     bool   `yaml:"colors"`      // colored console output
	OutputFile string `yaml:"output_file"` // empty for stdout
}

// DefaultConfig returns a config with conservative defaults: base-sepolia,
// payments on, storage off, paywall off.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Role: "hybrid",
		},
		Network: NetworkConfig{
			Name:                "base-sepolia",
			ReceiptPollInterval: 2 * time.Second,
		},
		Payments: PaymentsConfig{
			Enabled:    true,
			FeePercent: 2.5,
		},
		Paywall: PaywallConfig{
			ListenAddr: ":8402",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Colors: true,
		},
	}
}
