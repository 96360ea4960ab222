package rpc

import (
	"context"
	"math/big"

	"github.com/0xPolygon/posexit/checkpoint"
	"github.com/0xPolygon/posexit/exitproof"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

type proverMock struct {
	mock.Mock
}

func (m *proverMock) BuildExitProof(
	ctx context.Context, burnTxHash common.Hash, event exitproof.BurnEvent, occurrence uint,
) (*exitproof.ExitPayload, error) {
	args := m.Called(ctx, burnTxHash, event, occurrence)
	payload, _ := args.Get(0).(*exitproof.ExitPayload) //nolint:errcheck
	return payload, args.Error(1)
}

func (m *proverMock) IsBurnTxCheckpointed(ctx context.Context, burnTxHash common.Hash) (bool, error) {
	args := m.Called(ctx, burnTxHash)
	return args.Bool(0), args.Error(1)
}

func (m *proverMock) IsBurnTxProcessed(
	ctx context.Context, burnTxHash common.Hash, event exitproof.BurnEvent, occurrence uint,
) (bool, error) {
	args := m.Called(ctx, burnTxHash, event, occurrence)
	return args.Bool(0), args.Error(1)
}

func (m *proverMock) IsBlockCheckpointed(ctx context.Context, blockNumber *big.Int) (bool, error) {
	args := m.Called(ctx, blockNumber)
	return args.Bool(0), args.Error(1)
}

type locatorMock struct {
	mock.Mock
}

func (m *locatorMock) Locate(ctx context.Context, blockNumber uint64) (checkpoint.Checkpoint, error) {
	args := m.Called(ctx, blockNumber)
	cp, _ := args.Get(0).(checkpoint.Checkpoint) //nolint:errcheck
	return cp, args.Error(1)
}
