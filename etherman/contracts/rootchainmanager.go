package contracts

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// RootChainManagerABI is the subset of the bridge entry point used by exits
const RootChainManagerABI = `[
	{"type":"function","name":"checkpointManagerAddress","stateMutability":"view","inputs":[],
	 "outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"processedExits","stateMutability":"view","inputs":[{"name":"","type":"bytes32"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

type RootChainManager struct {
	*ContractBase
}

func NewRootChainManager(address common.Address, backend bind.ContractBackend) (*RootChainManager, error) {
	base, err := NewContractBase(RootChainManagerABI, address, backend, ContractNameRootChainManager)
	if err != nil {
		return nil, err
	}
	return &RootChainManager{ContractBase: base}, nil
}

// CheckpointManagerAddress returns the checkpoint manager the exits are verified against
func (r *RootChainManager) CheckpointManagerAddress(ctx context.Context) (common.Address, error) {
	out, err := r.call(ctx, "checkpointManagerAddress")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// ProcessedExits tells whether the exit identified by exitHash was already claimed
func (r *RootChainManager) ProcessedExits(ctx context.Context, exitHash common.Hash) (bool, error) {
	out, err := r.call(ctx, "processedExits", [32]byte(exitHash))
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}
