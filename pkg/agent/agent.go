// Package agent wires the configured capabilities together: wallet, chain
// client, registry clients, payments, storage and the paywall. It is the
// single entry point applications construct.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/chain"
	"github.com/DeBrosOfficial/agentpay/pkg/config"
	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/integrity"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
	"github.com/DeBrosOfficial/agentpay/pkg/networks"
	"github.com/DeBrosOfficial/agentpay/pkg/payments"
	"github.com/DeBrosOfficial/agentpay/pkg/paywall"
	"github.com/DeBrosOfficial/agentpay/pkg/registry"
	"github.com/DeBrosOfficial/agentpay/pkg/storage"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

// Agent bundles the capabilities enabled by the config. Disabled
// capabilities leave their accessor nil.
type Agent struct {
	cfg     *config.Config
	network networks.Network
	logger  *logging.ColoredLogger

	wallet     *wallet.Wallet
	chain      *chain.Client
	identity   *registry.IdentityClient
	reputation *registry.ReputationClient
	validation *registry.ValidationClient
	payments   *payments.Client
	store      *payments.ReceiptStore
	storage    *storage.Selector
	paywall    *paywall.Server
	integrity  *integrity.Verifier
}

// New validates the config and constructs every enabled capability.
func New(ctx context.Context, cfg *config.Config, logger *logging.ColoredLogger) (*Agent, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigError("config", fmt.Sprintf("%d validation errors, first: %v", len(errs), errs[0]))
	}

	network, err := networks.Lookup(cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	a := &Agent{cfg: cfg, network: network, logger: logger}

	if err := a.setupWallet(); err != nil {
		return nil, err
	}
	if err := a.setupChain(ctx); err != nil {
		return nil, err
	}
	if err := a.setupRegistries(); err != nil {
		return nil, err
	}
	if cfg.Payments.Enabled {
		if err := a.setupPayments(); err != nil {
			return nil, err
		}
	}
	if cfg.Storage.Enabled {
		if err := a.setupStorage(); err != nil {
			return nil, err
		}
	}
	if cfg.Paywall.Enabled {
		if err := a.setupPaywall(); err != nil {
			return nil, err
		}
	}
	if cfg.Integrity.Enabled {
		a.integrity = integrity.NewVerifier(a.wallet, a.logger)
	}

	if logger != nil {
		logger.ComponentInfo(logging.ComponentAgent, "agent ready",
			zap.String("name", cfg.Agent.Name),
			zap.String("network", network.Name),
			zap.Bool("payments", cfg.Payments.Enabled),
			zap.Bool("storage", cfg.Storage.Enabled),
			zap.Bool("paywall", cfg.Paywall.Enabled),
		)
	}
	return a, nil
}

func (a *Agent) setupWallet() error {
	wc := a.cfg.Wallet
	var (
		w   *wallet.Wallet
		err error
	)
	switch {
	case wc.PrivateKey != "":
		w, err = wallet.NewFromPrivateKey(wc.PrivateKey)
	case wc.Mnemonic != "":
		w, err = wallet.NewFromMnemonic(wc.Mnemonic, wc.AccountIndex)
	case wc.KeystoreFile != "":
		w, err = wallet.NewFromKeystoreFile(wc.KeystoreFile, wc.KeystorePassphrase)
	default:
		// Read-only agent: views and paywall verification still work.
		return nil
	}
	if err != nil {
		return errors.NewConfigError("wallet", err.Error())
	}
	a.wallet = w
	if a.logger != nil {
		a.logger.ComponentInfo(logging.ComponentWallet, "wallet loaded",
			zap.String("address", w.Address().Hex()),
		)
	}
	return nil
}

func (a *Agent) setupChain(ctx context.Context) error {
	client, err := chain.Dial(ctx, a.network, a.wallet, chain.Options{
		RPCURL:              a.cfg.Network.RPCURL,
		ReceiptPollInterval: a.cfg.Network.ReceiptPollInterval,
	}, a.logger)
	if err != nil {
		return err
	}
	a.chain = client
	return nil
}

func (a *Agent) setupRegistries() error {
	identity, err := registry.NewIdentityClient(a.chain, a.logger)
	if err != nil {
		return err
	}
	reputation, err := registry.NewReputationClient(a.chain, a.logger)
	if err != nil {
		return err
	}
	validation, err := registry.NewValidationClient(a.chain, a.logger)
	if err != nil {
		return err
	}
	a.identity, a.reputation, a.validation = identity, reputation, validation
	return nil
}

func (a *Agent) setupPayments() error {
	// The config always carries an explicit fee percentage, so a zero
	// there means zero fee, not "use the default".
	opts := payments.Options{
		FeePercent: payments.FeePercentOf(a.cfg.Payments.FeePercent),
	}
	if a.cfg.Payments.TokenSecret != "" {
		opts.TokenSecret = []byte(a.cfg.Payments.TokenSecret)
	}
	if a.cfg.Payments.ReceiptStorePath != "" {
		store, err := payments.OpenReceiptStore(a.cfg.Payments.ReceiptStorePath)
		if err != nil {
			return err
		}
		a.store = store
		opts.Store = store
	}

	client, err := payments.NewClient(a.chain, opts, a.logger)
	if err != nil {
		return err
	}
	a.payments = client
	return nil
}

func (a *Agent) setupStorage() error {
	selector, err := storage.NewSelector(a.cfg.Storage.Backends, a.logger)
	if err != nil {
		return err
	}
	a.storage = selector
	return nil
}

func (a *Agent) setupPaywall() error {
	recipient := a.cfg.Paywall.Recipient
	if recipient == "" {
		if a.wallet == nil {
			return errors.NewConfigError("paywall.recipient",
				"a recipient address or a wallet is required")
		}
		recipient = a.wallet.Address().Hex()
	}

	srv, err := paywall.NewServer(a.payments, paywall.Options{Recipient: recipient}, a.logger)
	if err != nil {
		return err
	}
	a.paywall = srv
	return nil
}

// Wallet returns the signing wallet, or nil for a read-only agent.
func (a *Agent) Wallet() *wallet.Wallet { return a.wallet }

// Chain returns the chain client.
func (a *Agent) Chain() *chain.Client { return a.chain }

// Network returns the network the agent is bound to.
func (a *Agent) Network() networks.Network { return a.network }

// Identity returns the identity registry client.
func (a *Agent) Identity() *registry.IdentityClient { return a.identity }

// Reputation returns the reputation registry client.
func (a *Agent) Reputation() *registry.ReputationClient { return a.reputation }

// Validation returns the validation registry client.
func (a *Agent) Validation() *registry.ValidationClient { return a.validation }

// Payments returns the payment client, or nil when payments are disabled.
func (a *Agent) Payments() *payments.Client { return a.payments }

// Storage returns the storage selector, or nil when storage is disabled.
func (a *Agent) Storage() *storage.Selector { return a.storage }

// Paywall returns the paywall server, or nil when the paywall is disabled.
func (a *Agent) Paywall() *paywall.Server { return a.paywall }

// Integrity returns the process-integrity verifier, or nil when disabled.
func (a *Agent) Integrity() *integrity.Verifier { return a.integrity }

// ServePaywall runs the paywall HTTP server until the context is cancelled.
func (a *Agent) ServePaywall(ctx context.Context) error {
	if a.paywall == nil {
		return errors.NewConfigError("paywall", "paywall is not enabled")
	}
	return a.paywall.ListenAndServe(ctx, a.cfg.Paywall.ListenAddr)
}

// Close releases held resources: the receipt store and the RPC connection.
func (a *Agent) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if a.chain != nil {
		a.chain.Close()
	}
	return err
}
