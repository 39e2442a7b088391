// Package registry wraps the pre-deployed identity, reputation and
// validation registry contracts. Method signatures and event shapes are
// dictated by the deployed contracts and must not be altered.
package registry

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/agentpay/pkg/chain"
	"github.com/DeBrosOfficial/agentpay/pkg/errors"
	"github.com/DeBrosOfficial/agentpay/pkg/logging"
)

const identityABI = `[
	{"name":"register","type":"function","inputs":[{"name":"metadataURI","type":"string"}],"outputs":[{"name":"agentId","type":"uint256"}]},
	{"name":"getMetadata","type":"function","stateMutability":"view","inputs":[{"name":"agentId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
	{"name":"setMetadata","type":"function","inputs":[{"name":"agentId","type":"uint256"},{"name":"metadataURI","type":"string"}],"outputs":[]},
	{"name":"ownerOf","type":"function","stateMutability":"view","inputs":[{"name":"agentId","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"name":"transfer","type":"function","inputs":[{"name":"to","type":"address"},{"name":"agentId","type":"uint256"}],"outputs":[]},
	{"name":"Registered","type":"event","inputs":[{"name":"agentId","type":"uint256","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"metadataURI","type":"string","indexed":false}]},
	{"name":"Transferred","type":"event","inputs":[{"name":"agentId","type":"uint256","indexed":true},{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true}]}
]`

// AgentIdentity is an on-chain agent record.
type AgentIdentity struct {
	AgentID     *big.Int `json:"agentId"`
	Owner       string   `json:"owner"`
	MetadataURI string   `json:"metadataUri"`
}

// IdentityClient calls the identity registry contract.
type IdentityClient struct {
	chain   *chain.Client
	abi     abi.ABI
	address common.Address
	logger  *logging.ColoredLogger
}

// NewIdentityClient binds the identity registry on the client's network.
func NewIdentityClient(chainClient *chain.Client, logger *logging.ColoredLogger) (*IdentityClient, error) {
	parsed, err := abi.JSON(strings.NewReader(identityABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse identity registry ABI: %w", err)
	}
	return &IdentityClient{
		chain:   chainClient,
		abi:     parsed,
		address: chainClient.Network().Contracts.Identity,
		logger:  logger,
	}, nil
}

// Address returns the bound registry contract address.
func (c *IdentityClient) Address() common.Address {
	return c.address
}

// Register mints a new agent identity owned by the wallet. The agent id
// is read back from the Registered event in the transaction receipt.
func (c *IdentityClient) Register(ctx context.Context, metadataURI string) (*AgentIdentity, error) {
	data, err := c.abi.Pack("register", metadataURI)
	if err != nil {
		return nil, errors.NewContractError("identity", "register", "failed to pack arguments", err)
	}

	receipt, err := c.chain.Transact(ctx, c.address, nil, data)
	if err != nil {
		return nil, errors.NewContractError("identity", "register", "transaction failed", err)
	}

	agentID, owner, err := c.parseRegistered(receipt)
	if err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.ComponentInfo(logging.ComponentIdentity, "agent registered",
			zap.String("agent_id", agentID.String()),
			zap.String("owner", owner.Hex()),
		)
	}

	return &AgentIdentity{
		AgentID:     agentID,
		Owner:       owner.Hex(),
		MetadataURI: metadataURI,
	}, nil
}

// GetMetadata reads an agent's metadata URI.
func (c *IdentityClient) GetMetadata(ctx context.Context, agentID *big.Int) (string, error) {
	data, err := c.abi.Pack("getMetadata", agentID)
	if err != nil {
		return "", errors.NewContractError("identity", "getMetadata", "failed to pack arguments", err)
	}

	out, err := c.chain.CallView(ctx, c.address, data)
	if err != nil {
		return "", errors.NewContractError("identity", "getMetadata", "call failed", err)
	}

	values, err := c.abi.Unpack("getMetadata", out)
	if err != nil {
		return "", errors.NewContractError("identity", "getMetadata", "failed to decode result", err)
	}
	return values[0].(string), nil
}

// SetMetadata updates an agent's metadata URI. Only the owner may call it.
func (c *IdentityClient) SetMetadata(ctx context.Context, agentID *big.Int, metadataURI string) error {
	data, err := c.abi.Pack("setMetadata", agentID, metadataURI)
	if err != nil {
		return errors.NewContractError("identity", "setMetadata", "failed to pack arguments", err)
	}
	if _, err := c.chain.Transact(ctx, c.address, nil, data); err != nil {
		return errors.NewContractError("identity", "setMetadata", "transaction failed", err)
	}
	return nil
}

// OwnerOf reads the current owner of an agent identity.
func (c *IdentityClient) OwnerOf(ctx context.Context, agentID *big.Int) (common.Address, error) {
	data, err := c.abi.Pack("ownerOf", agentID)
	if err != nil {
		return common.Address{}, errors.NewContractError("identity", "ownerOf", "failed to pack arguments", err)
	}

	out, err := c.chain.CallView(ctx, c.address, data)
	if err != nil {
		return common.Address{}, errors.NewContractError("identity", "ownerOf", "call failed", err)
	}

	values, err := c.abi.Unpack("ownerOf", out)
	if err != nil {
		return common.Address{}, errors.NewContractError("identity", "ownerOf", "failed to decode result", err)
	}
	return values[0].(common.Address), nil
}

// Transfer moves an agent identity to a new owner.
func (c *IdentityClient) Transfer(ctx context.Context, to common.Address, agentID *big.Int) error {
	data, err := c.abi.Pack("transfer", to, agentID)
	if err != nil {
		return errors.NewContractError("identity", "transfer", "failed to pack arguments", err)
	}
	if _, err := c.chain.Transact(ctx, c.address, nil, data); err != nil {
		return errors.NewContractError("identity", "transfer", "transaction failed", err)
	}
	return nil
}

// Resolve loads the full identity record for an agent id.
func (c *IdentityClient) Resolve(ctx context.Context, agentID *big.Int) (*AgentIdentity, error) {
	owner, err := c.OwnerOf(ctx, agentID)
	if err != nil {
		return nil, err
	}
	uri, err := c.GetMetadata(ctx, agentID)
	if err != nil {
		return nil, err
	}
	return &AgentIdentity{AgentID: agentID, Owner: owner.Hex(), MetadataURI: uri}, nil
}

// parseRegistered extracts the agent id and owner from the Registered
// event. A receipt without the event means the registry did not behave as
// expected and is surfaced as a contract error.
func (c *IdentityClient) parseRegistered(receipt *types.Receipt) (*big.Int, common.Address, error) {
	topic := c.abi.Events["Registered"].ID
	for _, lg := range receipt.Logs {
		if lg.Address != c.address || len(lg.Topics) < 3 || lg.Topics[0] != topic {
			continue
		}
		agentID := new(big.Int).SetBytes(lg.Topics[1].Bytes())
		owner := common.BytesToAddress(lg.Topics[2].Bytes())
		return agentID, owner, nil
	}
	return nil, common.Address{}, errors.NewContractError("identity", "register",
		fmt.Sprintf("no Registered event in receipt %s", receipt.TxHash.Hex()), nil)
}
