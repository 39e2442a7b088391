package registry

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/chain"
	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
	"github.com/DeBrosOfficial/agentpay/pkg/wallet"
)

const reputationABI = `[
	{"name":"giveFeedback","type":"function","inputs":[{"name":"agentId","type":"uint256"},{"name":"score","type":"uint8"},{"name":"uri","type":"string"},{"name":"feedbackAuth","type":"bytes"}],"outputs":[]},
	{"name":"revokeFeedback","type":"function","inputs":[{"name":"agentId","type":"uint256"},{"name":"index","type":"uint64"}],"outputs":[]},
	{"name":"readFeedback","type":"function","stateMutability":"view","inputs":[{"name":"agentId","type":"uint256"},{"name":"client","type":"address"},{"name":"index","type":"uint64"}],"outputs":[{"name":"score","type":"uint8"},{"name":"uri","type":"string"},{"name":"revoked","type":"bool"}]},
	{"name":"getSummary","type":"function","stateMutability":"view","inputs":[{"name":"agentId","type":"uint256"}],"outputs":[{"name":"count","type":"uint64"},{"name":"averageScore","type":"uint8"}]},
	{"name":"NewFeedback","type":"event","inputs":[{"name":"agentId","type":"uint256","indexed":true},{"name":"client","type":"address","indexed":true},{"name":"score","type":"uint8","indexed":false},{"name":"index","type":"uint64","indexed":false}]}
]`

// FeedbackAuth authorizes a client to submit feedback for an agent. The
// encoded form is consumed by the reputation registry contract; field
// order and byte widths must match the contract's decoding exactly.
type FeedbackAuth struct {
	AgentID       *big.Int
	Client        common.Address
	IndexLimit    uint64
	Expiry        uint64
	ChainID       *big.Int
	Registry      common.Address
	SignerAddress common.Address
}

// Fixed field widths of the encoded authorization struct.
const (
	authStructLen = 32 + 20 + 8 + 8 + 32 + 20 + 20
	authBlobLen   = authStructLen + 65
)

// Encode serializes the authorization struct without its signature.
func (a FeedbackAuth) Encode() []byte {
	buf := make([]byte, 0, authStructLen)
	buf = append(buf, common.LeftPadBytes(a.AgentID.Bytes(), 32)...)
	buf = append(buf, a.Client.Bytes()...)
	buf = appendUint64(buf, a.IndexLimit)
	buf = appendUint64(buf, a.Expiry)
	buf = append(buf, common.LeftPadBytes(a.ChainID.Bytes(), 32)...)
	buf = append(buf, a.Registry.Bytes()...)
	buf = append(buf, a.SignerAddress.Bytes()...)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	for shift := 56; shift >= 0; shift -= 8 {
		buf = append(buf, byte(v>>shift))
	}
	return buf
}

// SignFeedbackAuth signs an authorization with the agent owner's wallet
// and returns the opaque blob the registry contract expects: the encoded
// struct followed by the 65-byte EIP-191 signature over its keccak hash.
func SignFeedbackAuth(w *wallet.Wallet, auth FeedbackAuth) ([]byte, error) {
	if auth.SignerAddress != w.Address() {
		return nil, fmt.Errorf("authorization names signer %s but wallet is %s",
			auth.SignerAddress.Hex(), w.Address().Hex())
	}

	encoded := auth.Encode()
	hash := ethcrypto.Keccak256(encoded)
	sig, err := w.SignPersonal(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign feedback authorization: %w", err)
	}

	blob := make([]byte, 0, authBlobLen)
	blob = append(blob, encoded...)
	blob = append(blob, sig...)
	return blob, nil
}

// Feedback is one stored feedback entry.
type Feedback struct {
	AgentID *big.Int `json:"agentId"`
	Client  string   `json:"client"`
	Index   uint64   `json:"index"`
	Score   uint8    `json:"score"`
	URI     string   `json:"uri"`
	Revoked bool     `json:"revoked"`
}

// FeedbackSummary aggregates an agent's feedback.
type FeedbackSummary struct {
	AgentID      *big.Int `json:"agentId"`
	Count        uint64   `json:"count"`
	AverageScore uint8    `json:"averageScore"`
}

// ReputationClient calls the reputation registry contract.
type ReputationClient struct {
	chain   *chain.Client
	abi     abi.ABI
	address common.Address
	logger  *logging.ColoredLogger
}

// NewReputationClient binds the reputation registry on the client's network.
func NewReputationClient(chainClient *chain.Client, logger *logging.ColoredLogger) (*ReputationClient, error) {
	parsed, err := abi.JSON(strings.NewReader(reputationABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse reputation registry ABI: %w", err)
	}
	return &ReputationClient{
		chain:   chainClient,
		abi:     parsed,
		address: chainClient.Network().Contracts.Reputation,
		logger:  logger,
	}, nil
}

// Address returns the bound registry contract address.
func (c *ReputationClient) Address() common.Address {
	return c.address
}

// NewAuth builds an authorization for a client on this network's registry,
// signed later by the agent owner. Expiry is relative to now.
func (c *ReputationClient) NewAuth(agentID *big.Int, client common.Address, indexLimit uint64, validFor time.Duration, signer common.Address) FeedbackAuth {
	return FeedbackAuth{
		AgentID:       agentID,
		Client:        client,
		IndexLimit:    indexLimit,
		Expiry:        uint64(time.Now().Add(validFor).Unix()),
		ChainID:       big.NewInt(c.chain.Network().ChainID),
		Registry:      c.address,
		SignerAddress: signer,
	}
}

// GiveFeedback submits a scored feedback entry with its authorization blob
// and returns the index assigned by the registry.
func (c *ReputationClient) GiveFeedback(ctx context.Context, agentID *big.Int, score uint8, uri string, feedbackAuth []byte) (uint64, error) {
	if score > 100 {
		return 0, errors.NewValidationError("score", "score must be in [0, 100]", score)
	}
	if len(feedbackAuth) != authBlobLen {
		return 0, errors.NewValidationError("feedbackAuth",
			fmt.Sprintf("authorization blob must be %d bytes", authBlobLen), len(feedbackAuth))
	}

	data, err := c.abi.Pack("giveFeedback", agentID, score, uri, feedbackAuth)
	if err != nil {
		return 0, errors.NewContractError("reputation", "giveFeedback", "failed to pack arguments", err)
	}

	receipt, err := c.chain.Transact(ctx, c.address, nil, data)
	if err != nil {
		return 0, errors.NewContractError("reputation", "giveFeedback", "transaction failed", err)
	}

	event := c.abi.Events["NewFeedback"]
	for _, lg := range receipt.Logs {
		if lg.Address != c.address || len(lg.Topics) < 3 || lg.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(lg.Data)
		if err != nil {
			return 0, errors.NewContractError("reputation", "giveFeedback", "failed to decode event", err)
		}
		index := values[1].(uint64)
		if c.logger != nil {
			c.logger.ComponentInfo(logging.ComponentIdentity, "feedback recorded",
				zap.String("agent_id", agentID.String()),
				zap.Uint64("index", index),
			)
		}
		return index, nil
	}

	return 0, errors.NewContractError("reputation", "giveFeedback",
		fmt.Sprintf("no NewFeedback event in receipt %s", receipt.TxHash.Hex()), nil)
}

// RevokeFeedback revokes a previously submitted feedback entry.
func (c *ReputationClient) RevokeFeedback(ctx context.Context, agentID *big.Int, index uint64) error {
	data, err := c.abi.Pack("revokeFeedback", agentID, index)
	if err != nil {
		return errors.NewContractError("reputation", "revokeFeedback", "failed to pack arguments", err)
	}
	if _, err := c.chain.Transact(ctx, c.address, nil, data); err != nil {
		return errors.NewContractError("reputation", "revokeFeedback", "transaction failed", err)
	}
	return nil
}

// ReadFeedback loads one feedback entry.
func (c *ReputationClient) ReadFeedback(ctx context.Context, agentID *big.Int, client common.Address, index uint64) (*Feedback, error) {
	data, err := c.abi.Pack("readFeedback", agentID, client, index)
	if err != nil {
		return nil, errors.NewContractError("reputation", "readFeedback", "failed to pack arguments", err)
	}

	out, err := c.chain.CallView(ctx, c.address, data)
	if err != nil {
		return nil, errors.NewContractError("reputation", "readFeedback", "call failed", err)
	}

	values, err := c.abi.Unpack("readFeedback", out)
	if err != nil {
		return nil, errors.NewContractError("reputation", "readFeedback", "failed to decode result", err)
	}

	return &Feedback{
		AgentID: agentID,
		Client:  client.Hex(),
		Index:   index,
		Score:   values[0].(uint8),
		URI:     values[1].(string),
		Revoked: values[2].(bool),
	}, nil
}

// GetSummary loads the aggregate feedback for an agent.
func (c *ReputationClient) GetSummary(ctx context.Context, agentID *big.Int) (*FeedbackSummary, error) {
	data, err := c.abi.Pack("getSummary", agentID)
	if err != nil {
		return nil, errors.NewContractError("reputation", "getSummary", "failed to pack arguments", err)
	}

	out, err := c.chain.CallView(ctx, c.address, data)
	if err != nil {
		return nil, errors.NewContractError("reputation", "getSummary", "call failed", err)
	}

	values, err := c.abi.Unpack("getSummary", out)
	if err != nil {
		return nil, errors.NewContractError("reputation", "getSummary", "failed to decode result", err)
	}

	return &FeedbackSummary{
		AgentID:      agentID,
		Count:        values[0].(uint64),
		AverageScore: values[1].(uint8),
	}, nil
}
