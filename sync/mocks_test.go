package sync

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

type ethClientMock struct {
	mock.Mock
}

func (m *ethClientMock) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	args := m.Called(ctx, q)
	logs, _ := args.Get(0).([]types.Log)
	return logs, args.Error(1)
}

func (m *ethClientMock) SubscribeFilterLogs(
	ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log,
) (ethereum.Subscription, error) {
	args := m.Called(ctx, q, ch)
	sub, _ := args.Get(0).(ethereum.Subscription)
	return sub, args.Error(1)
}

func (m *ethClientMock) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	args := m.Called(ctx, number)
	header, _ := args.Get(0).(*types.Header)
	return header, args.Error(1)
}

type evmDownloaderMock struct {
	mock.Mock
}

func (m *evmDownloaderMock) WaitForNewBlocks(ctx context.Context, lastBlockSeen uint64) uint64 {
	args := m.Called(ctx, lastBlockSeen)
	return args.Get(0).(uint64) //nolint:forcetypeassert
}

func (m *evmDownloaderMock) GetEventsByBlockRange(ctx context.Context, fromBlock, toBlock uint64) []EVMBlock {
	args := m.Called(ctx, fromBlock, toBlock)
	return args.Get(0).([]EVMBlock) //nolint:forcetypeassert
}

func (m *evmDownloaderMock) GetLogs(ctx context.Context, fromBlock, toBlock uint64) []types.Log {
	args := m.Called(ctx, fromBlock, toBlock)
	return args.Get(0).([]types.Log) //nolint:forcetypeassert
}

func (m *evmDownloaderMock) GetBlockHeader(ctx context.Context, blockNum uint64) (EVMBlockHeader, bool) {
	args := m.Called(ctx, blockNum)
	return args.Get(0).(EVMBlockHeader), false //nolint:forcetypeassert
}

func (m *evmDownloaderMock) Download(ctx context.Context, fromBlock uint64, downloadedCh chan EVMBlock) {
	m.Called(ctx, fromBlock, downloadedCh)
}

type processorMock struct {
	mock.Mock
}

func (m *processorMock) GetLastProcessedBlock(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1) //nolint:forcetypeassert
}

func (m *processorMock) ProcessBlock(ctx context.Context, block Block) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}
