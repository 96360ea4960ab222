package checkpoint

import (
	"context"
	"fmt"
	"math/big"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/log"
	"github.com/ethereum/go-ethereum/common/lru"
)

var (
	// ErrCheckpointNotFound no submitted checkpoint contains the block
	ErrCheckpointNotFound = fmt.Errorf("checkpoint %w", posexitcommon.ErrNotFound)
)

// Reader reads checkpoints from the checkpoint manager contract
type Reader interface {
	CurrentCheckpointID(ctx context.Context) (*big.Int, error)
	CheckpointAt(ctx context.Context, id *big.Int) (etherman.HeaderBlock, error)
}

// Indexer answers which checkpoint contains a block without walking the
// contract. Its answers are checked before being trusted
type Indexer interface {
	CheckpointForBlock(ctx context.Context, blockNumber uint64) (Checkpoint, error)
	Name() string
}

// Locator finds the checkpoint that contains a child chain block: indexers are
// asked in order and the binary search over the contract is the fallback
type Locator struct {
	cfg      posexitcommon.NetworkConfig
	reader   Reader
	indexers []Indexer
	cache    *lru.Cache[uint64, etherman.HeaderBlock]
	log      *log.Logger
}

const defaultCacheSize = 1024

// NewLocator creates a Locator. cacheSize <= 0 uses a default size
func NewLocator(
	cfg posexitcommon.NetworkConfig, reader Reader, cacheSize int, logger *log.Logger, indexers ...Indexer,
) *Locator {
	if logger == nil {
		logger = log.WithFields("module", posexitcommon.CHECKPOINT_LOCATOR)
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	return &Locator{
		cfg:      cfg,
		reader:   reader,
		indexers: indexers,
		cache:    lru.NewCache[uint64, etherman.HeaderBlock](cacheSize),
		log:      logger,
	}
}

// Locate returns the checkpoint containing blockNumber
func (l *Locator) Locate(ctx context.Context, blockNumber uint64) (Checkpoint, error) {
	for _, indexer := range l.indexers {
		cp, err := indexer.CheckpointForBlock(ctx, blockNumber)
		if err != nil {
			l.log.Warnf("indexer %s failed for block %d, trying next source: %v", indexer.Name(), blockNumber, err)
			continue
		}
		if !cp.Contains(blockNumber) {
			l.log.Warnf("indexer %s returned %s that doesn't contain block %d, ignoring it",
				indexer.Name(), cp, blockNumber)
			continue
		}
		l.log.Debugf("block %d found in %s by indexer %s", blockNumber, cp, indexer.Name())
		return cp, nil
	}
	return l.Search(ctx, blockNumber)
}

// Search binary searches the checkpoint ids stored in the contract. Ids are
// multiples of the stride and checkpoints cover increasing block ranges
func (l *Locator) Search(ctx context.Context, blockNumber uint64) (Checkpoint, error) {
	stride := l.cfg.CheckpointIDStride
	if stride == 0 {
		return Checkpoint{}, fmt.Errorf("checkpoint id stride is 0: %w", posexitcommon.ErrInvalidRange)
	}
	current, err := l.reader.CurrentCheckpointID(ctx)
	if err != nil {
		return Checkpoint{}, err
	}
	if !current.IsUint64() {
		return Checkpoint{}, fmt.Errorf("current checkpoint id %s out of range: %w", current, posexitcommon.ErrInvalidRange)
	}
	start, end := uint64(1), current.Uint64()/stride

	start, found, err := l.applyRecentRangeHint(ctx, blockNumber, start, end)
	if err != nil {
		return Checkpoint{}, err
	}
	if found != nil {
		return *found, nil
	}
	if start > end {
		return Checkpoint{}, fmt.Errorf("block %d: search bounds [%d, %d] inverted: %w",
			blockNumber, start, end, ErrCheckpointNotFound)
	}

	block := new(big.Int).SetUint64(blockNumber)
	for start <= end {
		mid := start + (end-start)/2 //nolint:mnd
		hb, err := l.checkpointAt(ctx, mid*stride)
		if err != nil {
			return Checkpoint{}, err
		}
		switch {
		case hb.Start.Cmp(block) > 0:
			end = mid - 1
		case hb.End.Cmp(block) < 0:
			start = mid + 1
		default:
			cp := fromHeaderBlock(hb)
			l.log.Debugf("block %d found in %s by binary search", blockNumber, cp)
			return cp, nil
		}
	}
	return Checkpoint{}, fmt.Errorf("block %d: %w", blockNumber, ErrCheckpointNotFound)
}

// applyRecentRangeHint raises the lower bound of the search for recent blocks.
// The hint is only taken when the checkpoint it points to doesn't start after
// the block, so it can't exclude the answer
func (l *Locator) applyRecentRangeHint(
	ctx context.Context, blockNumber, start, end uint64,
) (uint64, *Checkpoint, error) {
	if l.cfg.RecentRangeStartBlock == 0 || blockNumber < l.cfg.RecentRangeStartBlock {
		return start, nil, nil
	}
	hint := l.cfg.RecentRangeStartCheckpointID / l.cfg.CheckpointIDStride
	if hint <= start || hint > end {
		return start, nil, nil
	}
	hb, err := l.checkpointAt(ctx, hint*l.cfg.CheckpointIDStride)
	if err != nil {
		return start, nil, err
	}
	block := new(big.Int).SetUint64(blockNumber)
	if hb.Start.Cmp(block) > 0 {
		l.log.Debugf("recent range hint %d starts after block %d, ignoring it", hint, blockNumber)
		return start, nil, nil
	}
	if hb.End.Cmp(block) >= 0 {
		cp := fromHeaderBlock(hb)
		return start, &cp, nil
	}
	return hint + 1, nil, nil
}

// checkpointAt reads a checkpoint through the cache. Submitted checkpoints
// never change, empty slots are not cached
func (l *Locator) checkpointAt(ctx context.Context, id uint64) (etherman.HeaderBlock, error) {
	if hb, ok := l.cache.Get(id); ok {
		return hb, nil
	}
	hb, err := l.reader.CheckpointAt(ctx, new(big.Int).SetUint64(id))
	if err != nil {
		return etherman.HeaderBlock{}, err
	}
	if hb.Start == nil || hb.End == nil {
		return etherman.HeaderBlock{}, fmt.Errorf("checkpoint %d without bounds: %w", id, posexitcommon.ErrUnverifiable)
	}
	if !hb.IsZero() {
		l.cache.Add(id, hb)
	}
	return hb, nil
}
