package rpc

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/posexit/exitproof"
	"github.com/0xPolygon/posexit/log"
	"github.com/0xPolygon/posexit/rpc/types"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	// EXITPROOF is the namespace of the exit proof service
	EXITPROOF = "exitproof"
	meterName = "github.com/0xPolygon/posexit/rpc"

	zeroHex = "0x0"
)

// ExitProofEndpoints contains implementations for the "exitproof" RPC endpoints
type ExitProofEndpoints struct {
	logger      *log.Logger
	meter       metric.Meter
	readTimeout time.Duration
	prover      ExitProver
	locator     CheckpointLocator
}

// NewExitProofEndpoints returns ExitProofEndpoints
func NewExitProofEndpoints(
	logger *log.Logger,
	readTimeout time.Duration,
	prover ExitProver,
	locator CheckpointLocator,
) *ExitProofEndpoints {
	meter := otel.Meter(meterName)
	return &ExitProofEndpoints{
		logger:      logger,
		meter:       meter,
		readTimeout: readTimeout,
		prover:      prover,
		locator:     locator,
	}
}

func (e *ExitProofEndpoints) count(ctx context.Context, name string) {
	c, merr := e.meter.Int64Counter(name)
	if merr != nil {
		e.logger.Warnf("failed to create %s counter: %s", name, merr)
		return
	}
	c.Add(ctx, 1)
}

// BuildPayload returns the exit payload of the occurrence-th burn log of event
// in txHash. event is a kind name (erc20, erc721, erc1155-single,
// erc1155-batch, message) or the hex signature of a custom event
func (e *ExitProofEndpoints) BuildPayload(txHash common.Hash, event string, occurrence uint) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.readTimeout)
	defer cancel()

	e.count(ctx, "build_payload")

	burnEvent, err := exitproof.ParseBurnEvent(event)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("invalid event, error: %s", err))
	}
	payload, err := e.prover.BuildExitProof(ctx, txHash, burnEvent, occurrence)
	if err != nil {
		e.logger.Debugf("exit proof of %s failed: %s", txHash, err)
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to build exit payload, error: %s", err))
	}
	encoded, err := payload.Encode()
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to encode exit payload, error: %s", err))
	}
	return types.ExitPayload{
		Payload:      encoded,
		ExitHash:     exitproof.ExitHash(payload.BurnTxBlockNumber, payload.ReceiptProofPath, payload.LogIndex),
		CheckpointID: payload.HeaderBlockNumber,
		BlockNumber:  payload.BurnTxBlockNumber,
		LogIndex:     payload.LogIndex,
	}, nil
}

// GetCheckpoint returns the checkpoint that includes blockNumber
func (e *ExitProofEndpoints) GetCheckpoint(blockNumber uint64) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.readTimeout)
	defer cancel()

	e.count(ctx, "get_checkpoint")

	cp, err := e.locator.Locate(ctx, blockNumber)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to locate checkpoint of block %d, error: %s", blockNumber, err))
	}
	return cp, nil
}

// IsBlockCheckpointed tells whether a checkpoint already covers blockNumber
func (e *ExitProofEndpoints) IsBlockCheckpointed(blockNumber uint64) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.readTimeout)
	defer cancel()

	e.count(ctx, "is_block_checkpointed")

	checkpointed, err := e.prover.IsBlockCheckpointed(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return false, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to read last child block, error: %s", err))
	}
	return checkpointed, nil
}

// IsClaimable returns whether the burn is checkpointed, already exited and
// claimable (checkpointed and not exited)
func (e *ExitProofEndpoints) IsClaimable(txHash common.Hash, event string, occurrence uint) (interface{}, rpc.Error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.readTimeout)
	defer cancel()

	e.count(ctx, "is_claimable")

	burnEvent, err := exitproof.ParseBurnEvent(event)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("invalid event, error: %s", err))
	}
	checkpointed, err := e.prover.IsBurnTxCheckpointed(ctx, txHash)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to check checkpoint of %s, error: %s", txHash, err))
	}
	status := types.ClaimStatus{Checkpointed: checkpointed}
	if !checkpointed {
		return status, nil
	}
	status.Processed, err = e.prover.IsBurnTxProcessed(ctx, txHash, burnEvent, occurrence)
	if err != nil {
		return zeroHex, rpc.NewRPCError(rpc.DefaultErrorCode, fmt.Sprintf("failed to check exit of %s, error: %s", txHash, err))
	}
	status.Claimable = !status.Processed
	return status, nil
}
