package sync

import (
	"context"

	"github.com/0xPolygon/posexit/log"
)

type downloader interface {
	Download(ctx context.Context, fromBlock uint64, downloadedCh chan EVMBlock)
}

// EVMDriver feeds the blocks of the downloader to the processor, resuming
// after the last block the processor stored. It is meant to follow finalized
// blocks, so reorgs are not handled
type EVMDriver struct {
	processor          processorInterface
	downloader         downloader
	initialBlock       uint64
	downloadBufferSize int
	rh                 *RetryHandler
	log                *log.Logger
}

func NewEVMDriver(
	syncerID string,
	processor processorInterface,
	downloader downloader,
	initialBlock uint64,
	downloadBufferSize int,
	rh *RetryHandler,
) *EVMDriver {
	return &EVMDriver{
		processor:          processor,
		downloader:         downloader,
		initialBlock:       initialBlock,
		downloadBufferSize: downloadBufferSize,
		rh:                 rh,
		log:                log.WithFields("syncer", syncerID),
	}
}

// Sync blocks until ctx is done
func (d *EVMDriver) Sync(ctx context.Context) {
	var (
		lastProcessedBlock uint64
		attempts           int
		err                error
	)
	for {
		lastProcessedBlock, err = d.processor.GetLastProcessedBlock(ctx)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		attempts++
		d.log.Error("error getting last processed block: ", err)
		d.rh.Handle("Sync", attempts)
	}
	fromBlock := lastProcessedBlock + 1
	if fromBlock < d.initialBlock {
		fromBlock = d.initialBlock
	}

	d.log.Infof("starting sync from block %d", fromBlock)
	downloadCh := make(chan EVMBlock, d.downloadBufferSize)
	go d.downloader.Download(ctx, fromBlock, downloadCh)

	for b := range downloadCh {
		d.log.Debugf("handleNewBlock: %d %s", b.Num, b.Hash)
		d.handleNewBlock(ctx, b)
	}
	d.log.Info("sync stopped")
}

func (d *EVMDriver) handleNewBlock(ctx context.Context, b EVMBlock) {
	attempts := 0
	for ctx.Err() == nil {
		err := d.processor.ProcessBlock(ctx, Block{Num: b.Num, Events: b.Events})
		if err == nil {
			return
		}
		attempts++
		d.log.Errorf("error processing events for block %d, err: %v", b.Num, err)
		d.rh.Handle("handleNewBlock", attempts)
	}
}
