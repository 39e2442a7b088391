// Package chain wraps the Ethereum JSON-RPC client with the small surface
// the agent needs: signed transactions awaited for one confirmation, view
// calls, and polled log subscriptions.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/logging"
	"github.com/DeBrosOfficial/agentpay/pkg/networks"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

// Backend is the subset of the Ethereum RPC client the agent uses.
// *ethclient.Client satisfies it; tests substitute fakes.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client executes transactions and view calls against one network.
type Client struct {
	backend Backend
	network networks.Network
	wallet  *wallet.Wallet
	logger  *logging.ColoredLogger

	// receiptPollInterval controls how often a submitted transaction is
	// polled for its receipt.
	receiptPollInterval time.Duration
}

// Options configures a chain client.
type Options struct {
	// RPCURL overrides the network's default RPC endpoint.
	RPCURL string

	// ReceiptPollInterval defaults to 2 seconds.
	ReceiptPollInterval time.Duration
}

// Dial connects to the network's RPC endpoint.
// The wallet may be nil for a read-only client.
func Dial(ctx context.Context, network networks.Network, w *wallet.Wallet, opts Options, logger *logging.ColoredLogger) (*Client, error) {
	rpcURL := opts.RPCURL
	if rpcURL == "" {
		rpcURL = network.RPCURL
	}

	backend, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}

	return NewClient(backend, network, w, opts, logger), nil
}

// NewClient builds a client over an existing backend.
func NewClient(backend Backend, network networks.Network, w *wallet.Wallet, opts Options, logger *logging.ColoredLogger) *Client {
	interval := opts.ReceiptPollInterval
	if interval == 0 {
		interval = 2 * time.Second
	}
	return &Client{
		backend:             backend,
		network:             network,
		wallet:              w,
		logger:              logger,
		receiptPollInterval: interval,
	}
}

// Network returns the network this client is bound to.
func (c *Client) Network() networks.Network {
	return c.network
}

// Wallet returns the signing wallet, or nil for a read-only client.
func (c *Client) Wallet() *wallet.Wallet {
	return c.wallet
}

// Backend exposes the underlying RPC backend.
func (c *Client) Backend() Backend {
	return c.backend
}

// Close releases the underlying RPC connection when the backend holds
// one. In-memory test backends without a Close method are unaffected.
func (c *Client) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

// Transact builds, signs, submits a transaction and waits for one
// confirmation. Value may be nil for zero-value calls.
func (c *Client) Transact(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	if c.wallet == nil {
		return nil, fmt.Errorf("no signer configured for write operation")
	}
	if value == nil {
		value = big.NewInt(0)
	}

	from := c.wallet.Address()

	nonce, err := c.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}

	gasLimit, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("gas estimation failed: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := c.wallet.SignTx(tx, big.NewInt(c.network.ChainID))
	if err != nil {
		return nil, err
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	if c.logger != nil {
		c.logger.ComponentDebug(logging.ComponentChain, "transaction submitted",
			zap.String("tx", signed.Hash().Hex()),
			zap.String("to", to.Hex()),
		)
	}

	return c.WaitMined(ctx, signed.Hash())
}

// WaitMined polls for a transaction receipt until it appears or the
// context is cancelled.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("transaction %s reverted", txHash.Hex())
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// CallView executes a read-only contract call at the latest block.
func (c *Client) CallView(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var from common.Address
	if c.wallet != nil {
		from = c.wallet.Address()
	}
	return c.backend.CallContract(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: data,
	}, nil)
}

// NativeBalance returns the account's native token balance at the latest block.
func (c *Client) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, account, nil)
}
