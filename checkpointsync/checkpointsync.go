package checkpointsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xPolygon/posexit/checkpoint"
	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/etherman/contracts"
	"github.com/0xPolygon/posexit/sync"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	syncerID = posexitcommon.CHECKPOINT_SYNC
)

// CheckpointSync keeps a local index of the checkpoints submitted to the root
// chain. It answers the same question as the subgraph indexer
type CheckpointSync struct {
	processor *processor
	driver    *sync.EVMDriver
}

// New creates the sqlite index and the syncer downloading NewHeaderBlock logs
func New(
	ctx context.Context,
	cfg Config,
	rootChain sync.EthClienter,
	checkpointManager *contracts.CheckpointManager,
) (*CheckpointSync, error) {
	processor, err := newProcessor(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	rh := &sync.RetryHandler{
		RetryAfterErrorPeriod:      cfg.RetryAfterErrorPeriod.Duration,
		MaxRetryAttemptsAfterError: cfg.MaxRetryAttemptsAfterError,
	}
	downloader, err := sync.NewEVMDownloader(
		syncerID,
		rootChain,
		cfg.SyncBlockChunkSize,
		etherman.BlockNumberFinality(cfg.BlockFinality),
		cfg.WaitForNewBlocksPeriod.Duration,
		buildAppender(checkpointManager),
		[]common.Address{checkpointManager.GetAddress()},
		rh,
	)
	if err != nil {
		return nil, err
	}

	driver := sync.NewEVMDriver(syncerID, processor, downloader, cfg.InitialBlockNum, cfg.DownloadBufferSize, rh)
	return &CheckpointSync{
		processor: processor,
		driver:    driver,
	}, nil
}

func buildAppender(checkpointManager *contracts.CheckpointManager) sync.LogAppenderMap {
	appender := make(sync.LogAppenderMap)
	appender[checkpointManager.NewHeaderBlockTopic()] = func(b *sync.EVMBlock, l types.Log) error {
		ev, err := checkpointManager.ParseNewHeaderBlock(l)
		if err != nil {
			return fmt.Errorf("error parsing NewHeaderBlock log %+v: %w", l, err)
		}
		if !ev.Start.IsUint64() || !ev.End.IsUint64() {
			return fmt.Errorf("checkpoint %s has out of range bounds [%s, %s]", ev.HeaderBlockId, ev.Start, ev.End)
		}
		b.Events = append(b.Events, Event{
			BlockNum:      b.Num,
			BlockPos:      uint64(l.Index),
			HeaderBlockID: ev.HeaderBlockId,
			Start:         ev.Start.Uint64(),
			End:           ev.End.Uint64(),
			Root:          ev.Root,
			Proposer:      ev.Proposer,
		})
		return nil
	}
	return appender
}

// Start syncs until ctx is done
func (s *CheckpointSync) Start(ctx context.Context) {
	s.driver.Sync(ctx)
}

// Name implements checkpoint.Indexer
func (s *CheckpointSync) Name() string {
	return "local index"
}

// CheckpointForBlock implements checkpoint.Indexer
func (s *CheckpointSync) CheckpointForBlock(ctx context.Context, blockNum uint64) (checkpoint.Checkpoint, error) {
	ev, err := s.processor.GetCheckpointForBlock(ctx, blockNum)
	if err != nil {
		if errors.Is(err, posexitcommon.ErrNotFound) {
			return checkpoint.Checkpoint{}, fmt.Errorf("local index, block %d: %w", blockNum, checkpoint.ErrCheckpointNotFound)
		}
		return checkpoint.Checkpoint{}, err
	}
	return ev.toCheckpoint(), nil
}

// GetLastCheckpoint returns the last checkpoint synced
func (s *CheckpointSync) GetLastCheckpoint(ctx context.Context) (checkpoint.Checkpoint, error) {
	ev, err := s.processor.GetLastCheckpoint(ctx)
	if err != nil {
		return checkpoint.Checkpoint{}, err
	}
	return ev.toCheckpoint(), nil
}

func (s *CheckpointSync) GetLastProcessedBlock(ctx context.Context) (uint64, error) {
	return s.processor.GetLastProcessedBlock(ctx)
}
