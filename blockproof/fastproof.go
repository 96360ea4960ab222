package blockproof

import (
	"context"
	"fmt"

	"github.com/0xPolygon/posexit/tree"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// siblingQuery describes how to get the sibling at one level of the path
// from the root down to the block leaf. Offsets are relative to the start of
// the checkpoint
type siblingQuery struct {
	// height of the sibling subtree
	height int
	// zero is set when the sibling only covers padding leaves
	zero bool
	// first and last leaves covered by the sibling that exist in the range
	first, last uint64
}

// planFastProof walks from the root to the leaf at target in a tree over
// size leaves and returns the sibling queries from the root downwards
func planFastProof(size, target uint64) []siblingQuery {
	depth := tree.Depth(size)
	left, right := uint64(0), size-1
	queries := make([]siblingQuery, 0, depth)
	for d := 0; d < depth; d++ {
		height := depth - d - 1
		pivot := left + (uint64(1) << height) - 1
		if target > pivot {
			// sibling is the full left subtree
			queries = append(queries, siblingQuery{height: height, first: left, last: pivot})
			left = pivot + 1
			continue
		}
		if right <= pivot {
			queries = append(queries, siblingQuery{height: height, zero: true})
		} else {
			queries = append(queries, siblingQuery{height: height, first: pivot + 1, last: right})
			right = pivot
		}
	}
	return queries
}

// FastProof builds the same proof as Proof without fetching the headers: each
// sibling is the root of a sub range of the checkpoint, computed by the node
// (eth_getRootHash) and lifted with zero subtrees to the sibling height when
// the sub range is shorter than the subtree
func (b *Builder) FastProof(
	ctx context.Context, oracle RangeRootOracle, start, end, blockNumber uint64,
) (tree.Proof, error) {
	if err := checkRange(start, end, blockNumber); err != nil {
		return nil, err
	}
	size := end - start + 1
	if depth := tree.Depth(size); depth > int(b.cfg.MaxTreeDepth) {
		return nil, fmt.Errorf("range [%d, %d] needs depth %d: %w", start, end, depth, tree.ErrDepthTooLarge)
	}

	queries := planFastProof(size, blockNumber-start)
	siblings := make(tree.Proof, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	if b.maxConcurrent > 0 {
		g.SetLimit(b.maxConcurrent)
	}
	for i, q := range queries {
		i, q := i, q
		// leaves are first in the proof, the plan goes from the root down
		pos := len(queries) - 1 - i
		if q.zero {
			siblings[pos] = b.zeroHashes.At(q.height)
			continue
		}
		g.Go(func() error {
			sibling, err := b.subtreeRoot(gctx, oracle, start+q.first, start+q.last, q.height)
			if err != nil {
				return err
			}
			siblings[pos] = sibling
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return siblings, nil
}

// subtreeRoot returns the root of a subtree of the given height whose first
// leaves are the headers of blocks first to last and the rest is padding
func (b *Builder) subtreeRoot(ctx context.Context, oracle RangeRootOracle, first, last uint64, height int) (common.Hash, error) {
	root, err := oracle.GetRootHash(ctx, first, last)
	if err != nil {
		return common.Hash{}, fmt.Errorf("root of [%d, %d]: %w", first, last, err)
	}
	subHeight := tree.Depth(last - first + 1)
	if subHeight == height {
		return root, nil
	}
	// the node pads the range to 2^subHeight leaves, the remaining subtrees of
	// that height are all zero
	leaves := make([]common.Hash, 1<<(height-subHeight))
	leaves[0] = root
	zero := b.zeroHashes.At(subHeight)
	for i := 1; i < len(leaves); i++ {
		leaves[i] = zero
	}
	t, err := tree.New(leaves, zero, b.cfg.MaxTreeDepth)
	if err != nil {
		return common.Hash{}, err
	}
	return t.Root(), nil
}
