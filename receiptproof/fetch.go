package receiptproof

import (
	"context"
	"fmt"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"
)

// ReceiptFetcher returns the receipt of a transaction
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// FetchReceipts gets the receipts of txHashes with at most maxConcurrent
// requests in flight. The result keeps the order of txHashes
func FetchReceipts(
	ctx context.Context, fetcher ReceiptFetcher, txHashes []common.Hash, maxConcurrent int,
) ([]*types.Receipt, error) {
	receipts := make([]*types.Receipt, len(txHashes))
	g, gctx := errgroup.WithContext(ctx)
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	for i, txHash := range txHashes {
		i, txHash := i, txHash
		g.Go(func() error {
			receipt, err := fetcher.TransactionReceipt(gctx, txHash)
			if err != nil {
				return fmt.Errorf("receipt of %s: %w", txHash, err)
			}
			receipts[i] = receipt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return receipts, nil
}

// ProveInBlock builds the receipts trie of a block and proves the receipt at
// txIndex. The root must match the receiptsRoot of the block header
func ProveInBlock(
	receipts []*types.Receipt, stateSyncTxHash common.Hash, txIndex uint, receiptsRoot common.Hash,
) (*Proof, error) {
	tr, err := BuildTrie(receipts, stateSyncTxHash)
	if err != nil {
		return nil, err
	}
	if root := tr.Root(); root != receiptsRoot {
		return nil, fmt.Errorf("receipts trie root %s doesn't match header receiptsRoot %s: %w",
			root, receiptsRoot, posexitcommon.ErrUnverifiable)
	}
	return tr.Prove(txIndex)
}
