package rpc

import (
	"context"
	"math/big"

	"github.com/0xPolygon/posexit/checkpoint"
	"github.com/0xPolygon/posexit/exitproof"
	"github.com/ethereum/go-ethereum/common"
)

type ExitProver interface {
	BuildExitProof(
		ctx context.Context, burnTxHash common.Hash, event exitproof.BurnEvent, occurrence uint,
	) (*exitproof.ExitPayload, error)
	IsBurnTxCheckpointed(ctx context.Context, burnTxHash common.Hash) (bool, error)
	IsBurnTxProcessed(
		ctx context.Context, burnTxHash common.Hash, event exitproof.BurnEvent, occurrence uint,
	) (bool, error)
	IsBlockCheckpointed(ctx context.Context, blockNumber *big.Int) (bool, error)
}

type CheckpointLocator interface {
	Locate(ctx context.Context, blockNumber uint64) (checkpoint.Checkpoint, error)
}
