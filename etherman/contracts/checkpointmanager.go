package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CheckpointManagerABI is the subset of the root chain checkpoint contract used to read checkpoints
const CheckpointManagerABI = `[
	{"type":"function","name":"currentHeaderBlock","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getLastChildBlock","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"headerBlocks","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],
	 "outputs":[{"name":"root","type":"bytes32"},{"name":"start","type":"uint256"},{"name":"end","type":"uint256"},
	            {"name":"createdAt","type":"uint256"},{"name":"proposer","type":"address"}]},
	{"type":"event","name":"NewHeaderBlock","anonymous":false,"inputs":[
		{"name":"proposer","type":"address","indexed":true},
		{"name":"headerBlockId","type":"uint256","indexed":true},
		{"name":"reward","type":"uint256","indexed":true},
		{"name":"start","type":"uint256","indexed":false},
		{"name":"end","type":"uint256","indexed":false},
		{"name":"root","type":"bytes32","indexed":false}]}
]`

const newHeaderBlockEvent = "NewHeaderBlock"

// HeaderBlock is a checkpoint as stored by the checkpoint manager
type HeaderBlock struct {
	Root      common.Hash
	Start     *big.Int
	End       *big.Int
	CreatedAt *big.Int
	Proposer  common.Address
}

// NewHeaderBlockEvent is emitted each time a checkpoint is submitted.
// Field names follow the ABI argument names
type NewHeaderBlockEvent struct {
	Proposer      common.Address
	HeaderBlockId *big.Int //nolint:stylecheck
	Reward        *big.Int
	Start         *big.Int
	End           *big.Int
	Root          [32]byte
}

type CheckpointManager struct {
	*ContractBase
}

func NewCheckpointManager(address common.Address, backend bind.ContractBackend) (*CheckpointManager, error) {
	base, err := NewContractBase(CheckpointManagerABI, address, backend, ContractNameCheckpointManager)
	if err != nil {
		return nil, err
	}
	return &CheckpointManager{ContractBase: base}, nil
}

// CurrentHeaderBlock returns the id of the last submitted checkpoint
func (c *CheckpointManager) CurrentHeaderBlock(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, "currentHeaderBlock")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// GetLastChildBlock returns the end of the last submitted checkpoint
func (c *CheckpointManager) GetLastChildBlock(ctx context.Context) (*big.Int, error) {
	out, err := c.call(ctx, "getLastChildBlock")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// HeaderBlocks returns the checkpoint with the given id. Unknown ids return a zero HeaderBlock
func (c *CheckpointManager) HeaderBlocks(ctx context.Context, headerBlockID *big.Int) (HeaderBlock, error) {
	out, err := c.call(ctx, "headerBlocks", headerBlockID)
	if err != nil {
		return HeaderBlock{}, err
	}
	return HeaderBlock{
		Root:      *abi.ConvertType(out[0], new([32]byte)).(*[32]byte),
		Start:     *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		End:       *abi.ConvertType(out[2], new(*big.Int)).(**big.Int),
		CreatedAt: *abi.ConvertType(out[3], new(*big.Int)).(**big.Int),
		Proposer:  *abi.ConvertType(out[4], new(common.Address)).(*common.Address),
	}, nil
}

// NewHeaderBlockTopic is the topic 0 of NewHeaderBlock logs
func (c *CheckpointManager) NewHeaderBlockTopic() common.Hash {
	return c.abi.Events[newHeaderBlockEvent].ID
}

// ParseNewHeaderBlock decodes a NewHeaderBlock log
func (c *CheckpointManager) ParseNewHeaderBlock(l types.Log) (*NewHeaderBlockEvent, error) {
	event := new(NewHeaderBlockEvent)
	if err := c.unpackLog(event, newHeaderBlockEvent, l); err != nil {
		return nil, err
	}
	return event, nil
}
