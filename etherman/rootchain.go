package etherman

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/0xPolygon/posexit/etherman/contracts"
	"github.com/0xPolygon/posexit/log"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	// ErrNoRootChainManager the checkpoint manager can't be discovered without the root chain manager
	ErrNoRootChainManager = errors.New("neither CheckpointManagerAddr nor RootChainManagerAddr are set")
)

// RootChainClient reads checkpoints and exit state from the root chain contracts
type RootChainClient struct {
	EthClient         *ethclient.Client
	checkpointManager *contracts.CheckpointManager
	rootChainManager  *contracts.RootChainManager
}

// DialRootChain connects to the root chain node and binds the contracts
func DialRootChain(ctx context.Context, cfg RootChainConfig) (*RootChainClient, error) {
	ethClient, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		log.Errorf("error connecting to %s: %+v", cfg.URL, err)
		return nil, wrapErr("dial", err)
	}
	client, err := NewRootChainClient(ctx, ethClient, cfg)
	if err != nil {
		ethClient.Close()
		return nil, err
	}
	client.EthClient = ethClient
	return client, nil
}

// NewRootChainClient binds the contracts on the given backend. A zero
// CheckpointManagerAddr is resolved through RootChainManager.checkpointManagerAddress()
func NewRootChainClient(ctx context.Context, backend bind.ContractBackend, cfg RootChainConfig) (*RootChainClient, error) {
	client := &RootChainClient{}
	var err error
	if cfg.RootChainManagerAddr != (common.Address{}) {
		client.rootChainManager, err = contracts.NewRootChainManager(cfg.RootChainManagerAddr, backend)
		if err != nil {
			return nil, err
		}
	}
	checkpointManagerAddr := cfg.CheckpointManagerAddr
	if checkpointManagerAddr == (common.Address{}) {
		if client.rootChainManager == nil {
			return nil, ErrNoRootChainManager
		}
		checkpointManagerAddr, err = client.rootChainManager.CheckpointManagerAddress(ctx)
		if err != nil {
			return nil, wrapErr("checkpointManagerAddress", err)
		}
		log.Infof("checkpoint manager discovered at %s", checkpointManagerAddr)
	}
	client.checkpointManager, err = contracts.NewCheckpointManager(checkpointManagerAddr, backend)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// CheckpointManagerAddress returns the address of the checkpoint contract in use
func (r *RootChainClient) CheckpointManagerAddress() common.Address {
	return r.checkpointManager.GetAddress()
}

// CheckpointManager exposes the contract binding, used to decode its logs
func (r *RootChainClient) CheckpointManager() *contracts.CheckpointManager {
	return r.checkpointManager
}

// CurrentCheckpointID returns the id of the last submitted checkpoint
func (r *RootChainClient) CurrentCheckpointID(ctx context.Context) (*big.Int, error) {
	id, err := r.checkpointManager.CurrentHeaderBlock(ctx)
	return id, wrapErr("currentHeaderBlock", err)
}

// LastChildBlock returns the last child block covered by a checkpoint
func (r *RootChainClient) LastChildBlock(ctx context.Context) (*big.Int, error) {
	last, err := r.checkpointManager.GetLastChildBlock(ctx)
	return last, wrapErr("getLastChildBlock", err)
}

// CheckpointAt returns the checkpoint stored under id
func (r *RootChainClient) CheckpointAt(ctx context.Context, id *big.Int) (HeaderBlock, error) {
	hb, err := r.checkpointManager.HeaderBlocks(ctx, id)
	if err != nil {
		return HeaderBlock{}, wrapErr(fmt.Sprintf("headerBlocks(%s)", id), err)
	}
	return HeaderBlock{
		ID:    new(big.Int).Set(id),
		Start: hb.Start,
		End:   hb.End,
		Root:  hb.Root,
	}, nil
}

// IsExitProcessed tells whether the exit was already claimed on the root chain
func (r *RootChainClient) IsExitProcessed(ctx context.Context, exitHash common.Hash) (bool, error) {
	if r.rootChainManager == nil {
		return false, ErrNoRootChainManager
	}
	processed, err := r.rootChainManager.ProcessedExits(ctx, exitHash)
	return processed, wrapErr("processedExits", err)
}
