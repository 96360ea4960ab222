package blockproof

import (
	"context"
	"fmt"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/log"
	"github.com/0xPolygon/posexit/tree"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// HeaderFetcher returns child chain blocks by number
type HeaderFetcher interface {
	BlockByNumber(ctx context.Context, number uint64) (*etherman.Block, error)
}

// RangeRootOracle returns the root of the checkpoint tree built over the
// headers of blocks start to end, both included
type RangeRootOracle interface {
	GetRootHash(ctx context.Context, start, end uint64) (common.Hash, error)
}

// HeaderDigest is the leaf of a block in a checkpoint tree:
// keccak(number ∥ timestamp ∥ transactionsRoot ∥ receiptsRoot) with the
// integers as 32 byte big endian words
func HeaderDigest(b *etherman.Block) common.Hash {
	return posexitcommon.Keccak256Hash(
		posexitcommon.BigToWord(b.Number),
		posexitcommon.BigToWord(b.Timestamp),
		b.TransactionsRoot.Bytes(),
		b.ReceiptsRoot.Bytes(),
	)
}

// Builder builds the inclusion proof of a block header in the merkle tree of a checkpoint
type Builder struct {
	cfg           posexitcommon.NetworkConfig
	zeroHashes    *tree.ZeroHashes
	maxConcurrent int
	log           *log.Logger
}

// NewBuilder creates a Builder that issues at most maxConcurrent requests at once
func NewBuilder(cfg posexitcommon.NetworkConfig, maxConcurrent int, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.WithFields("module", "blockproof")
	}
	return &Builder{
		cfg:           cfg,
		zeroHashes:    tree.NewZeroHashes(cfg.ZeroDigest),
		maxConcurrent: maxConcurrent,
		log:           logger,
	}
}

func checkRange(start, end, blockNumber uint64) error {
	if start > end {
		return fmt.Errorf("start %d > end %d: %w", start, end, posexitcommon.ErrInvalidRange)
	}
	if blockNumber < start || blockNumber > end {
		return fmt.Errorf("block %d outside [%d, %d]: %w", blockNumber, start, end, posexitcommon.ErrInvalidRange)
	}
	return nil
}

// Proof fetches every header of the range, builds the checkpoint tree and
// returns the proof of blockNumber along with the root of the tree
func (b *Builder) Proof(
	ctx context.Context, fetcher HeaderFetcher, start, end, blockNumber uint64,
) (tree.Proof, common.Hash, error) {
	if err := checkRange(start, end, blockNumber); err != nil {
		return nil, common.Hash{}, err
	}
	if depth := tree.Depth(end - start + 1); depth > int(b.cfg.MaxTreeDepth) {
		return nil, common.Hash{}, fmt.Errorf("range [%d, %d] needs depth %d: %w", start, end, depth, tree.ErrDepthTooLarge)
	}

	leaves := make([]common.Hash, end-start+1)
	g, gctx := errgroup.WithContext(ctx)
	if b.maxConcurrent > 0 {
		g.SetLimit(b.maxConcurrent)
	}
	for i := range leaves {
		i := i
		g.Go(func() error {
			block, err := fetcher.BlockByNumber(gctx, start+uint64(i))
			if err != nil {
				return fmt.Errorf("header %d: %w", start+uint64(i), err)
			}
			leaves[i] = HeaderDigest(block)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, common.Hash{}, err
	}
	b.log.Debugf("fetched %d headers of range [%d, %d]", len(leaves), start, end)

	t, err := tree.New(leaves, b.cfg.ZeroDigest, b.cfg.MaxTreeDepth)
	if err != nil {
		return nil, common.Hash{}, err
	}
	proof, err := t.GetProofByIndex(blockNumber - start)
	if err != nil {
		return nil, common.Hash{}, err
	}
	return proof, t.Root(), nil
}
