package payments

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/chain"
	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
	"github.com/DeBrosOfficial/agentpay/pkg/networks"
)

// Settlement status values. A payment whose fee leg failed after a
// successful main leg is partial, never silently settled.
const (
	StatusSettled = "settled"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Request describes a payment to execute.
type Request struct {
	To          common.Address
	Amount      string
	Currency    string
	Description string
}

// Settlement is the outcome of a payment.
type Settlement struct {
	Payment Payment `json:"payment"`
	Status  string  `json:"status"`

	// FeeError carries the fee-leg failure for partial settlements.
	FeeError string `json:"feeError,omitempty"`
}

const erc20ABI = `[
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

// Client executes fee-adjusted payments on one network.
type Client struct {
	chain      *chain.Client
	logger     *logging.ColoredLogger
	store      *ReceiptStore
	cache      *VerificationCache
	erc20      abi.ABI
	feePercent float64
	secret     []byte
}

// Options configures a payment client.
type Options struct {
	// FeePercent overrides DefaultFeePercent when set. An explicit zero
	// disables the fee leg entirely; nil means unset.
	FeePercent *float64

	// TokenSecret signs payment tokens. Token minting is disabled when empty.
	TokenSecret []byte

	// Store persists receipts; optional.
	Store *ReceiptStore
}

// FeePercentOf is a convenience for populating Options.FeePercent.
func FeePercentOf(percent float64) *float64 {
	return &percent
}

// NewClient builds a payment client over a chain client.
func NewClient(chainClient *chain.Client, opts Options, logger *logging.ColoredLogger) (*Client, error) {
	feePercent := DefaultFeePercent
	if opts.FeePercent != nil {
		feePercent = *opts.FeePercent
	}
	if err := ValidateFeePercent(feePercent); err != nil {
		return nil, err
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	return &Client{
		chain:      chainClient,
		logger:     logger,
		store:      opts.Store,
		cache:      NewVerificationCache(),
		erc20:      parsed,
		feePercent: feePercent,
		secret:     opts.TokenSecret,
	}, nil
}

// FeePercent returns the configured protocol fee percentage.
func (c *Client) FeePercent() float64 {
	return c.feePercent
}

// SetFeePercent updates the protocol fee percentage, rejecting values
// outside [0, 100].
func (c *Client) SetFeePercent(feePercent float64) error {
	if err := ValidateFeePercent(feePercent); err != nil {
		return err
	}
	c.feePercent = feePercent
	return nil
}

// Network returns the network settlements execute on.
func (c *Client) Network() networks.Network {
	return c.chain.Network()
}

// Cache exposes the in-memory verification cache.
func (c *Client) Cache() *VerificationCache {
	return c.cache
}

// CalculateTotalCost quotes the payer's total for a requested amount.
func (c *Client) CalculateTotalCost(amount, currency string) (Quote, error) {
	return QuoteTotalCost(amount, currency, c.feePercent)
}

// Pay executes a two-leg settlement: the requested amount to the payee,
// then the protocol fee to the network's treasury. The legs are awaited
// sequentially; a fee-leg failure after a confirmed main leg yields a
// partial settlement carrying the main transaction hash and the fee error.
func (c *Client) Pay(ctx context.Context, req Request) (*Settlement, error) {
	if c.chain.Wallet() == nil {
		return nil, errors.NewConfigError("private_key", "payment execution requires a signer")
	}

	info, err := LookupCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	amountMinor, err := ToMinorUnits(req.Amount, info.Decimals)
	if err != nil {
		return nil, errors.NewValidationError("amount", err.Error(), req.Amount)
	}
	if amountMinor.Sign() == 0 {
		return nil, errors.NewValidationError("amount", "amount must be positive", req.Amount)
	}

	feeMinor := CalculateFee(amountMinor, c.feePercent)
	network := c.chain.Network()

	payment := Payment{
		ID:        uuid.NewString(),
		From:      c.chain.Wallet().Address().Hex(),
		To:        req.To.Hex(),
		Amount:    req.Amount,
		Fee:       FromMinorUnits(feeMinor, info.Decimals),
		Currency:  info.Symbol,
		Network:   network.Name,
	}

	// Main leg.
	mainTx, err := c.transfer(ctx, req.To, amountMinor, info)
	if err != nil {
		return &Settlement{Payment: payment, Status: StatusFailed},
			errors.NewPaymentError("settlement failed", err).WithCurrency(info.Symbol)
	}
	payment.TxHash = mainTx
	payment.Timestamp = time.Now().Unix()

	c.logInfo("payment leg confirmed",
		zap.String("tx", mainTx),
		zap.String("amount", req.Amount),
		zap.String("currency", info.Symbol),
	)

	settlement := &Settlement{Payment: payment, Status: StatusSettled}

	// Fee leg.
	if feeMinor.Sign() > 0 {
		feeTx, err := c.transfer(ctx, network.Treasury, feeMinor, info)
		if err != nil {
			settlement.Status = StatusPartial
			settlement.FeeError = err.Error()
			c.logWarn("fee leg failed after main leg confirmed",
				zap.String("main_tx", mainTx),
				zap.Error(err),
			)
		} else {
			settlement.Payment.FeeTxHash = feeTx
		}
	}

	c.cache.Add(settlement.Payment)

	if c.store != nil {
		receipt := CreateReceipt(settlement.Payment)
		if err := c.store.Save(ctx, receipt); err != nil {
			c.logWarn("failed to persist receipt", zap.Error(err))
		}
		_ = c.store.MarkVerified(ctx, settlement.Payment.TxHash, settlement.Payment.ID)
	}

	return settlement, nil
}

// transfer sends minor units of a currency and returns the transaction hash.
func (c *Client) transfer(ctx context.Context, to common.Address, minor *big.Int, info CurrencyInfo) (string, error) {
	if info.Native {
		receipt, err := c.chain.Transact(ctx, to, minor, nil)
		if err != nil {
			return "", err
		}
		return receipt.TxHash.Hex(), nil
	}

	token, err := c.tokenAddress(info)
	if err != nil {
		return "", err
	}

	data, err := c.erc20.Pack("transfer", to, minor)
	if err != nil {
		return "", fmt.Errorf("failed to pack transfer: %w", err)
	}

	receipt, err := c.chain.Transact(ctx, token, nil, data)
	if err != nil {
		return "", err
	}
	return receipt.TxHash.Hex(), nil
}

func (c *Client) tokenAddress(info CurrencyInfo) (common.Address, error) {
	switch info.Symbol {
	case "USDC":
		return c.chain.Network().USDC, nil
	default:
		return common.Address{}, errors.NewUnsupportedCurrencyError(info.Symbol)
	}
}

// TokenBalance reads an account's ERC-20 balance for a supported currency.
func (c *Client) TokenBalance(ctx context.Context, account common.Address, currency string) (*big.Int, error) {
	info, err := LookupCurrency(currency)
	if err != nil {
		return nil, err
	}
	if info.Native {
		return c.chain.NativeBalance(ctx, account)
	}

	token, err := c.tokenAddress(info)
	if err != nil {
		return nil, err
	}

	data, err := c.erc20.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}

	out, err := c.chain.CallView(ctx, token, data)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(out), nil
}

// VerifyPaymentTx checks a transaction hash against the cache, the
// persistent store, and finally chain state. Verified hashes are cached.
func (c *Client) VerifyPaymentTx(ctx context.Context, txHash string) (bool, error) {
	if _, ok := c.cache.Get(txHash); ok {
		return true, nil
	}

	if c.store != nil {
		if ok, err := c.store.IsVerified(ctx, txHash); err == nil && ok {
			c.cache.Add(Payment{TxHash: txHash})
			return true, nil
		}
	}

	receipt, err := c.chain.Backend().TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return false, err
	}
	if receipt == nil || receipt.Status != 1 {
		return false, nil
	}

	c.cache.Add(Payment{TxHash: txHash})
	if c.store != nil {
		_ = c.store.MarkVerified(ctx, txHash, "")
	}
	return true, nil
}

// MintToken issues a payment token for a settled payment.
func (c *Client) MintToken(r Receipt, ttl time.Duration) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.NewConfigError("token_secret", "payment tokens require a configured secret")
	}
	return MintPaymentToken(c.secret, r, ttl)
}

// VerifyToken validates a payment token minted by this client.
func (c *Client) VerifyToken(tokenString string) (*PaymentClaims, error) {
	if len(c.secret) == 0 {
		return nil, errors.NewConfigError("token_secret", "payment tokens require a configured secret")
	}
	return VerifyPaymentToken(c.secret, tokenString)
}

func (c *Client) logInfo(msg string, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.ComponentInfo(logging.ComponentPayments, msg, fields...)
	}
}

func (c *Client) logWarn(msg string, fields ...zap.Field) {
	if c.logger != nil {
		c.logger.ComponentWarn(logging.ComponentPayments, msg, fields...)
	}
}
