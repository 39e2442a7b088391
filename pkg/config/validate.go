package config

import (
	"fmt"

	"github.com/DeBrosOfficial/agentpay/pkg/httputil"
	"github.com/DeBrosOfficial/agentpay/pkg/networks"
)

// ValidationError is one validation failure with its config path.
type ValidationError struct {
	Path    string // e.g. "wallet.private_key"
	Message string
	Hint    string
}

func (e ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s; %s", e.Path, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks the whole config and returns every problem found, so
// the caller can report all issues at once.
func (c *Config) Validate() []error {
	var errs []error
	errs = append(errs, c.validateAgent()...)
	errs = append(errs, c.validateNetwork()...)
	errs = append(errs, c.validateWallet()...)
	errs = append(errs, c.validatePayments()...)
	errs = append(errs, c.validatePaywall()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateAgent() []error {
	var errs []error
	switch c.Agent.Role {
	case "", "server", "client", "hybrid":
	default:
		errs = append(errs, ValidationError{
			Path:    "agent.role",
			Message: fmt.Sprintf("unknown role %q", c.Agent.Role),
			Hint:    "expected server, client or hybrid",
		})
	}
	return errs
}

func (c *Config) validateNetwork() []error {
	var errs []error
	if c.Network.Name == "" {
		errs = append(errs, ValidationError{Path: "network.name", Message: "network name is required"})
	} else if _, err := networks.Lookup(c.Network.Name); err != nil {
		errs = append(errs, ValidationError{
			Path:    "network.name",
			Message: err.Error(),
			Hint:    fmt.Sprintf("supported: %v", networks.Names()),
		})
	}
	if c.Network.ReceiptPollInterval < 0 {
		errs = append(errs, ValidationError{Path: "network.receipt_poll_interval", Message: "must not be negative"})
	}
	return errs
}

func (c *Config) validateWallet() []error {
	var errs []error
	set := 0
	if c.Wallet.PrivateKey != "" {
		set++
	}
	if c.Wallet.Mnemonic != "" {
		set++
	}
	if c.Wallet.KeystoreFile != "" {
		set++
	}
	if set > 1 {
		errs = append(errs, ValidationError{
			Path:    "wallet",
			Message: "multiple signing sources configured",
			Hint:    "set exactly one of private_key, mnemonic, keystore_file",
		})
	}
	if c.Wallet.KeystoreFile != "" && c.Wallet.KeystorePassphrase == "" {
		errs = append(errs, ValidationError{
			Path:    "wallet.keystore_passphrase",
			Message: "required with keystore_file",
		})
	}
	return errs
}

func (c *Config) validatePayments() []error {
	var errs []error
	if c.Payments.FeePercent < 0 || c.Payments.FeePercent > 100 {
		errs = append(errs, ValidationError{
			Path:    "payments.fee_percent",
			Message: fmt.Sprintf("%v is outside [0, 100]", c.Payments.FeePercent),
		})
	}
	return errs
}

func (c *Config) validatePaywall() []error {
	var errs []error
	if !c.Paywall.Enabled {
		return errs
	}
	if c.Paywall.ListenAddr == "" {
		errs = append(errs, ValidationError{Path: "paywall.listen_addr", Message: "required when the paywall is enabled"})
	}
	if c.Paywall.Recipient != "" && !httputil.ValidateWalletAddress(c.Paywall.Recipient) {
		errs = append(errs, ValidationError{Path: "paywall.recipient", Message: "not a wallet address"})
	}
	if !c.Payments.Enabled {
		errs = append(errs, ValidationError{
			Path:    "paywall.enabled",
			Message: "the paywall requires payments to be enabled",
		})
	}
	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Path:    "logging.level",
			Message: fmt.Sprintf("unknown level %q", c.Logging.Level),
			Hint:    "expected debug, info, warn or error",
		})
	}
	return errs
}
