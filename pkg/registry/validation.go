package registry

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/chain"
	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
)

const validationABI = `[
	{"name":"validationRequest","type":"function","inputs":[{"name":"validator","type":"address"},{"name":"agentId","type":"uint256"},{"name":"requestURI","type":"string"},{"name":"requestHash","type":"bytes32"}],"outputs":[]},
	{"name":"validationResponse","type":"function","inputs":[{"name":"requestHash","type":"bytes32"},{"name":"response","type":"uint8"},{"name":"responseURI","type":"string"}],"outputs":[]},
	{"name":"getValidationStatus","type":"function","stateMutability":"view","inputs":[{"name":"requestHash","type":"bytes32"}],"outputs":[{"name":"validator","type":"address"},{"name":"agentId","type":"uint256"},{"name":"response","type":"uint8"},{"name":"responded","type":"bool"}]}
]`

// ValidationStatus is the registry's view of one validation request.
type ValidationStatus struct {
	RequestHash string   `json:"requestHash"`
	Validator   string   `json:"validator"`
	AgentID     *big.Int `json:"agentId"`
	Response    uint8    `json:"response"`
	Responded   bool     `json:"responded"`
}

// ValidationClient calls the validation registry contract.
type ValidationClient struct {
	chain   *chain.Client
	abi     abi.ABI
	address common.Address
	logger  *logging.ColoredLogger
}

// NewValidationClient binds the validation registry on the client's network.
func NewValidationClient(chainClient *chain.Client, logger *logging.ColoredLogger) (*ValidationClient, error) {
	parsed, err := abi.JSON(strings.NewReader(validationABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse validation registry ABI: %w", err)
	}
	return &ValidationClient{
		chain:   chainClient,
		abi:     parsed,
		address: chainClient.Network().Contracts.Validation,
		logger:  logger,
	}, nil
}

// Address returns the bound registry contract address.
func (c *ValidationClient) Address() common.Address {
	return c.address
}

// Request asks a validator to attest work identified by requestHash.
func (c *ValidationClient) Request(ctx context.Context, validator common.Address, agentID *big.Int, requestURI string, requestHash [32]byte) error {
	data, err := c.abi.Pack("validationRequest", validator, agentID, requestURI, requestHash)
	if err != nil {
		return errors.NewContractError("validation", "validationRequest", "failed to pack arguments", err)
	}
	if _, err := c.chain.Transact(ctx, c.address, nil, data); err != nil {
		return errors.NewContractError("validation", "validationRequest", "transaction failed", err)
	}
	if c.logger != nil {
		c.logger.ComponentInfo(logging.ComponentIdentity, "validation requested",
			zap.String("validator", validator.Hex()),
			zap.String("agent_id", agentID.String()),
		)
	}
	return nil
}

// Respond records the validator's response for a pending request.
// Response is a score in [0, 100].
func (c *ValidationClient) Respond(ctx context.Context, requestHash [32]byte, response uint8, responseURI string) error {
	if response > 100 {
		return errors.NewValidationError("response", "response must be in [0, 100]", response)
	}

	data, err := c.abi.Pack("validationResponse", requestHash, response, responseURI)
	if err != nil {
		return errors.NewContractError("validation", "validationResponse", "failed to pack arguments", err)
	}
	if _, err := c.chain.Transact(ctx, c.address, nil, data); err != nil {
		return errors.NewContractError("validation", "validationResponse", "transaction failed", err)
	}
	return nil
}

// Status loads the current state of a validation request.
func (c *ValidationClient) Status(ctx context.Context, requestHash [32]byte) (*ValidationStatus, error) {
	data, err := c.abi.Pack("getValidationStatus", requestHash)
	if err != nil {
		return nil, errors.NewContractError("validation", "getValidationStatus", "failed to pack arguments", err)
	}

	out, err := c.chain.CallView(ctx, c.address, data)
	if err != nil {
		return nil, errors.NewContractError("validation", "getValidationStatus", "call failed", err)
	}

	values, err := c.abi.Unpack("getValidationStatus", out)
	if err != nil {
		return nil, errors.NewContractError("validation", "getValidationStatus", "failed to decode result", err)
	}

	return &ValidationStatus{
		RequestHash: common.Hash(requestHash).Hex(),
		Validator:   values[0].(common.Address).Hex(),
		AgentID:     values[1].(*big.Int),
		Response:    values[2].(uint8),
		Responded:   values[3].(bool),
	}, nil
}
