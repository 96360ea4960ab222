package sync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	DefaultWaitPeriodBlockNotFound = time.Millisecond * 100
)

var errBlockHashChanged = errors.New("block hash changed between the log and the header queries")

// EthClienter is the subset of the root chain client used to download logs
type EthClienter interface {
	ethereum.LogFilterer
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

type EVMDownloaderInterface interface {
	WaitForNewBlocks(ctx context.Context, lastBlockSeen uint64) (newLastBlock uint64)
	GetEventsByBlockRange(ctx context.Context, fromBlock, toBlock uint64) []EVMBlock
	GetLogs(ctx context.Context, fromBlock, toBlock uint64) []types.Log
	GetBlockHeader(ctx context.Context, blockNum uint64) (EVMBlockHeader, bool)
}

// LogAppenderMap decodes a log, keyed by its topic 0, into an event of the block
type LogAppenderMap map[common.Hash]func(b *EVMBlock, l types.Log) error

// EVMDownloader walks the chain in chunks of syncBlockChunkSize blocks and
// sends the blocks holding events to the driver
type EVMDownloader struct {
	syncBlockChunkSize uint64
	EVMDownloaderInterface
	log *log.Logger
}

func NewEVMDownloader(
	syncerID string,
	ethClient EthClienter,
	syncBlockChunkSize uint64,
	blockFinalityType etherman.BlockNumberFinality,
	waitForNewBlocksPeriod time.Duration,
	appender LogAppenderMap,
	addressesToQuery []common.Address,
	rh *RetryHandler,
) (*EVMDownloader, error) {
	if syncBlockChunkSize == 0 {
		return nil, errors.New("SyncBlockChunkSize must be greater than 0")
	}
	finality, err := blockFinalityType.ToBlockNum()
	if err != nil {
		return nil, err
	}
	logger := log.WithFields("syncer", syncerID)
	return &EVMDownloader{
		syncBlockChunkSize: syncBlockChunkSize,
		log:                logger,
		EVMDownloaderInterface: &logReader{
			client:     ethClient,
			finality:   finality,
			pollPeriod: waitForNewBlocksPeriod,
			appender:   appender,
			addresses:  addressesToQuery,
			rh:         rh,
			log:        logger,
		},
	}, nil
}

// Download sends every block from fromBlock on to downloadedCh: the blocks with
// events and, for each range, its last block so the processor can move its
// checkpoint forward. The channel is closed once ctx is done
func (d *EVMDownloader) Download(ctx context.Context, fromBlock uint64, downloadedCh chan EVMBlock) {
	defer close(downloadedCh)
	lastBlock := d.WaitForNewBlocks(ctx, 0)
	for ctx.Err() == nil {
		if fromBlock > lastBlock {
			d.log.Debugf("waiting for blocks after %d", lastBlock)
			lastBlock = d.WaitForNewBlocks(ctx, fromBlock-1)
			continue
		}
		toBlock := min(fromBlock+d.syncBlockChunkSize-1, lastBlock)
		if !d.downloadRange(ctx, fromBlock, toBlock, downloadedCh) {
			return
		}
		fromBlock = toBlock + 1
	}
}

func (d *EVMDownloader) downloadRange(ctx context.Context, fromBlock, toBlock uint64, ch chan EVMBlock) bool {
	d.log.Debugf("getting events from block %d to %d", fromBlock, toBlock)
	blocks := d.GetEventsByBlockRange(ctx, fromBlock, toBlock)
	if ctx.Err() != nil {
		return false
	}
	for _, b := range blocks {
		if !send(ctx, ch, b) {
			return false
		}
	}
	if len(blocks) > 0 && blocks[len(blocks)-1].Num == toBlock {
		return true
	}
	header, canceled := d.GetBlockHeader(ctx, toBlock)
	if canceled {
		return false
	}
	return send(ctx, ch, EVMBlock{EVMBlockHeader: header})
}

func send(ctx context.Context, ch chan EVMBlock, b EVMBlock) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- b:
		return true
	}
}

// logReader reads the logs of the watched contracts and the headers of their blocks
type logReader struct {
	client     EthClienter
	finality   *big.Int
	pollPeriod time.Duration
	appender   LogAppenderMap
	addresses  []common.Address
	rh         *RetryHandler
	log        *log.Logger
}

// WaitForNewBlocks polls the block at the configured finality until it goes
// past lastBlockSeen
func (r *logReader) WaitForNewBlocks(ctx context.Context, lastBlockSeen uint64) (newLastBlock uint64) {
	ticker := time.NewTicker(r.pollPeriod)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			r.log.Info("context cancelled")
			return lastBlockSeen
		case <-ticker.C:
		}
		header, err := r.client.HeaderByNumber(ctx, r.finality)
		switch {
		case err != nil && ctx.Err() == nil:
			failures++
			r.log.Errorf("reading block %s: %v", r.finality, err)
			r.rh.Handle("waitForNewBlocks", failures)
		case err == nil && header.Number.Uint64() > lastBlockSeen:
			return header.Number.Uint64()
		}
	}
}

// GetEventsByBlockRange groups the logs of [fromBlock, toBlock] by block. The
// range is read again if a block changes in between
func (r *logReader) GetEventsByBlockRange(ctx context.Context, fromBlock, toBlock uint64) []EVMBlock {
	for ctx.Err() == nil {
		blocks, err := r.groupByBlock(ctx, r.GetLogs(ctx, fromBlock, toBlock))
		if err == nil {
			return blocks
		}
		r.log.Infof("reading [%d, %d] again: %v", fromBlock, toBlock, err)
	}
	return nil
}

func (r *logReader) groupByBlock(ctx context.Context, logs []types.Log) ([]EVMBlock, error) {
	blocks := []EVMBlock{}
	for _, l := range logs {
		if len(blocks) == 0 || blocks[len(blocks)-1].Num < l.BlockNumber {
			header, canceled := r.GetBlockHeader(ctx, l.BlockNumber)
			if canceled {
				return nil, nil
			}
			if header.Hash != l.BlockHash {
				return nil, fmt.Errorf("%w: block %d %s vs %s", errBlockHashChanged, l.BlockNumber, header.Hash, l.BlockHash)
			}
			blocks = append(blocks, EVMBlock{EVMBlockHeader: header, Events: []interface{}{}})
		}
		current := &blocks[len(blocks)-1]
		appendLog := r.appender[l.Topics[0]]
		r.rh.Do(ctx, r.log, fmt.Sprintf("appending log %d of tx %s", l.Index, l.TxHash), func() error {
			return appendLog(current, l)
		})
	}
	return blocks, nil
}

// GetLogs returns the logs of the watched addresses whose topic 0 has an appender
func (r *logReader) GetLogs(ctx context.Context, fromBlock, toBlock uint64) []types.Log {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: r.addresses,
		ToBlock:   new(big.Int).SetUint64(toBlock),
	}
	var all []types.Log
	ok := r.rh.Do(ctx, r.log, fmt.Sprintf("FilterLogs [%d, %d]", fromBlock, toBlock), func() error {
		var err error
		all, err = r.client.FilterLogs(ctx, query)
		return err
	})
	if !ok {
		return nil
	}
	logs := make([]types.Log, 0, len(all))
	for _, l := range all {
		if len(l.Topics) == 0 {
			continue
		}
		if _, known := r.appender[l.Topics[0]]; known {
			logs = append(logs, l)
		}
	}
	return logs
}

// GetBlockHeader returns the header of blockNum, the bool is true when ctx was cancelled
func (r *logReader) GetBlockHeader(ctx context.Context, blockNum uint64) (EVMBlockHeader, bool) {
	var header *types.Header
	ok := r.rh.Do(ctx, r.log, fmt.Sprintf("header of block %d", blockNum), func() error {
		for {
			var err error
			header, err = r.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNum))
			if !errors.Is(err, ethereum.NotFound) {
				return err
			}
			// the node may be behind the one that answered the log query
			r.log.Warnf("block %d not found yet", blockNum)
			wait := r.rh.RetryAfterErrorPeriod
			if wait == 0 {
				wait = DefaultWaitPeriodBlockNotFound
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	})
	if !ok {
		return EVMBlockHeader{}, true
	}
	return EVMBlockHeader{
		Num:        header.Number.Uint64(),
		Hash:       header.Hash(),
		ParentHash: header.ParentHash,
		Timestamp:  header.Time,
	}, false
}
