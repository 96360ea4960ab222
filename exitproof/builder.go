package exitproof

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/0xPolygon/posexit/blockproof"
	"github.com/0xPolygon/posexit/checkpoint"
	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/log"
	"github.com/0xPolygon/posexit/receiptproof"
	"github.com/0xPolygon/posexit/tree"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChildChain reads the burn transaction, its block and the checkpoint sub-roots
type ChildChain interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockByNumber(ctx context.Context, number uint64) (*etherman.Block, error)
	BlockByHash(ctx context.Context, hash common.Hash) (*etherman.Block, error)
	GetRootHash(ctx context.Context, start, end uint64) (common.Hash, error)
}

// CheckpointLocator finds the checkpoint of a child block. Locate may answer
// from an indexer, Search only reads the root chain
type CheckpointLocator interface {
	Locate(ctx context.Context, blockNumber uint64) (checkpoint.Checkpoint, error)
	Search(ctx context.Context, blockNumber uint64) (checkpoint.Checkpoint, error)
}

// RootChain answers the claim related questions
type RootChain interface {
	LastChildBlock(ctx context.Context) (*big.Int, error)
	IsExitProcessed(ctx context.Context, exitHash common.Hash) (bool, error)
}

// Builder turns a burn transaction hash into the exit payload
type Builder struct {
	cfg         Config
	network     posexitcommon.NetworkConfig
	childChain  ChildChain
	locator     CheckpointLocator
	rootChain   RootChain
	blockProofs *blockproof.Builder
	log         *log.Logger
}

func NewBuilder(
	cfg Config,
	network posexitcommon.NetworkConfig,
	childChain ChildChain,
	locator CheckpointLocator,
	rootChain RootChain,
	logger *log.Logger,
) *Builder {
	if logger == nil {
		logger = log.WithFields("module", posexitcommon.PROOF_BUILDER)
	}
	return &Builder{
		cfg:         cfg,
		network:     network,
		childChain:  childChain,
		locator:     locator,
		rootChain:   rootChain,
		blockProofs: blockproof.NewBuilder(network, cfg.MaxConcurrentFetches, logger),
		log:         logger,
	}
}

// BuildExitPayload returns the encoded payload that proves the occurrence-th
// burn log of event in burnTxHash
func (b *Builder) BuildExitPayload(
	ctx context.Context, burnTxHash common.Hash, event BurnEvent, occurrence uint,
) ([]byte, error) {
	payload, err := b.BuildExitProof(ctx, burnTxHash, event, occurrence)
	if err != nil {
		return nil, err
	}
	encoded, err := payload.Encode()
	if err != nil {
		return nil, stageErr(StageEncoding, err)
	}
	return encoded, nil
}

// BuildExitProof is BuildExitPayload without the final encoding
func (b *Builder) BuildExitProof(
	ctx context.Context, burnTxHash common.Hash, event BurnEvent, occurrence uint,
) (*ExitPayload, error) {
	receipt, err := b.burnReceipt(ctx, burnTxHash)
	if err != nil {
		return nil, stageErr(StageReceiptLookup, err)
	}
	logIndex, err := LogIndex(receipt, event, occurrence)
	if err != nil {
		return nil, stageErr(StageLogResolution, err)
	}
	blockNumber := receipt.BlockNumber.Uint64()
	b.log.Debugf("building exit proof of tx %s, block %d, log %d", burnTxHash, blockNumber, logIndex)

	block, receiptProof, err := b.proveReceipt(ctx, receipt)
	if err != nil {
		return nil, stageErr(StageReceiptProof, err)
	}

	cp, err := b.locator.Locate(ctx, blockNumber)
	if err != nil {
		return nil, stageErr(StageCheckpointLocation, err)
	}

	proof, err := b.proveBlock(ctx, cp, block)
	if errors.Is(err, posexitcommon.ErrUnverifiable) {
		cp, proof, err = b.reproveOnChain(ctx, cp, block, err)
	}
	if err != nil {
		return nil, stageErr(StageBlockProof, err)
	}

	b.log.Infof("exit proof of tx %s built against %s", burnTxHash, cp)
	return &ExitPayload{
		HeaderBlockNumber:       cp.ID,
		BlockProof:              proof,
		BurnTxBlockNumber:       block.Number,
		BurnTxBlockTimestamp:    block.Timestamp,
		TransactionsRoot:        block.TransactionsRoot,
		ReceiptsRoot:            block.ReceiptsRoot,
		Receipt:                 receiptProof.Value,
		ReceiptProofParentNodes: receiptProof.ParentNodes,
		ReceiptProofPath:        receiptProof.Path,
		LogIndex:                logIndex,
	}, nil
}

func (b *Builder) burnReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := b.childChain.TransactionReceipt(ctx, txHash)
	if err != nil {
		if errors.Is(err, posexitcommon.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", txHash, ErrTransactionNotFound)
		}
		return nil, err
	}
	if receipt == nil || receipt.BlockNumber == nil || !receipt.BlockNumber.IsUint64() {
		return nil, fmt.Errorf("%s not mined: %w", txHash, ErrTransactionNotFound)
	}
	return receipt, nil
}

// proveReceipt rebuilds the receipts trie of the burn block and proves the
// burn receipt against the receiptsRoot of the header
func (b *Builder) proveReceipt(
	ctx context.Context, receipt *types.Receipt,
) (*etherman.Block, *receiptproof.Proof, error) {
	block, err := b.childChain.BlockByHash(ctx, receipt.BlockHash)
	if err != nil {
		return nil, nil, fmt.Errorf("burn block %s: %w", receipt.BlockHash, err)
	}
	if block.Number == nil || block.Number.Cmp(receipt.BlockNumber) != 0 {
		return nil, nil, fmt.Errorf("block %s is not number %s: %w",
			receipt.BlockHash, receipt.BlockNumber, posexitcommon.ErrUnverifiable)
	}
	receipts, err := receiptproof.FetchReceipts(ctx, b.childChain, block.Transactions, b.cfg.MaxConcurrentFetches)
	if err != nil {
		return nil, nil, err
	}
	stateSyncTxHash := posexitcommon.StateSyncTxHash(
		b.network.StateSyncReceiptPrefix, block.Number.Uint64(), block.Hash,
	)
	proof, err := receiptproof.ProveInBlock(receipts, stateSyncTxHash, receipt.TransactionIndex, block.ReceiptsRoot)
	if err != nil {
		return nil, nil, err
	}

	value, err := receiptproof.Verify(block.ReceiptsRoot, proof.Path, proof.ParentNodes)
	if err != nil {
		return nil, nil, err
	}
	expected, err := receiptproof.EncodeReceipt(receipt)
	if err != nil {
		return nil, nil, err
	}
	if !bytes.Equal(value, expected) {
		return nil, nil, fmt.Errorf("proven receipt differs from the receipt of %s: %w",
			receipt.TxHash, posexitcommon.ErrUnverifiable)
	}
	return block, proof, nil
}

// proveBlock builds the proof of the burn block header in the checkpoint tree
// and checks it against the committed root
func (b *Builder) proveBlock(ctx context.Context, cp checkpoint.Checkpoint, block *etherman.Block) (tree.Proof, error) {
	start, end, err := cp.Bounds()
	if err != nil {
		return nil, err
	}
	blockNumber := block.Number.Uint64()

	var proof tree.Proof
	if b.cfg.FastMerkleProof {
		proof, err = b.blockProofs.FastProof(ctx, b.childChain, start, end, blockNumber)
	} else {
		proof, _, err = b.blockProofs.Proof(ctx, b.childChain, start, end, blockNumber)
	}
	if err != nil {
		return nil, err
	}

	if cp.Root != (common.Hash{}) {
		leaf := blockproof.HeaderDigest(block)
		if !tree.Verify(leaf, blockNumber-start, cp.Root, proof) {
			return nil, fmt.Errorf("proof of block %d doesn't match the root of %s: %w",
				blockNumber, cp, posexitcommon.ErrUnverifiable)
		}
	}
	return proof, nil
}

// reproveOnChain retries the block proof against the checkpoint read from the
// root chain when it differs from the one that failed verification, which
// happens when an indexer serves a stale id or root
func (b *Builder) reproveOnChain(
	ctx context.Context, located checkpoint.Checkpoint, block *etherman.Block, proofErr error,
) (checkpoint.Checkpoint, tree.Proof, error) {
	onChain, err := b.locator.Search(ctx, block.Number.Uint64())
	if err != nil {
		b.log.Warnf("on chain search of block %s after failed verification: %v", block.Number, err)
		return located, nil, proofErr
	}
	if sameCheckpoint(onChain, located) {
		return located, nil, proofErr
	}
	b.log.Warnf("%s doesn't verify, retrying with %s read from the root chain", located, onChain)
	proof, err := b.proveBlock(ctx, onChain, block)
	return onChain, proof, err
}

func sameCheckpoint(a, b checkpoint.Checkpoint) bool {
	if a.ID == nil || b.ID == nil || a.Start == nil || b.Start == nil || a.End == nil || b.End == nil {
		return false
	}
	return a.ID.Cmp(b.ID) == 0 && a.Start.Cmp(b.Start) == 0 && a.End.Cmp(b.End) == 0 && a.Root == b.Root
}

// BurnExitHash returns the exit hash of the occurrence-th burn log of event in burnTxHash
func (b *Builder) BurnExitHash(
	ctx context.Context, burnTxHash common.Hash, event BurnEvent, occurrence uint,
) (common.Hash, error) {
	receipt, err := b.burnReceipt(ctx, burnTxHash)
	if err != nil {
		return common.Hash{}, stageErr(StageReceiptLookup, err)
	}
	logIndex, err := LogIndex(receipt, event, occurrence)
	if err != nil {
		return common.Hash{}, stageErr(StageLogResolution, err)
	}
	path := append([]byte{0x00}, receiptproof.TrieKey(receipt.TransactionIndex)...)
	return ExitHash(receipt.BlockNumber, path, logIndex), nil
}

// IsBurnTxProcessed tells whether the exit of the burn was already claimed
func (b *Builder) IsBurnTxProcessed(
	ctx context.Context, burnTxHash common.Hash, event BurnEvent, occurrence uint,
) (bool, error) {
	exitHash, err := b.BurnExitHash(ctx, burnTxHash, event, occurrence)
	if err != nil {
		return false, err
	}
	return b.rootChain.IsExitProcessed(ctx, exitHash)
}

// IsBlockCheckpointed tells whether a checkpoint already covers blockNumber
func (b *Builder) IsBlockCheckpointed(ctx context.Context, blockNumber *big.Int) (bool, error) {
	lastChildBlock, err := b.rootChain.LastChildBlock(ctx)
	if err != nil {
		return false, err
	}
	return lastChildBlock.Cmp(blockNumber) >= 0, nil
}

// IsBurnTxCheckpointed tells whether the block of the burn is checkpointed
func (b *Builder) IsBurnTxCheckpointed(ctx context.Context, burnTxHash common.Hash) (bool, error) {
	receipt, err := b.burnReceipt(ctx, burnTxHash)
	if err != nil {
		return false, stageErr(StageReceiptLookup, err)
	}
	return b.IsBlockCheckpointed(ctx, receipt.BlockNumber)
}

// IsBurnTxClaimable is true when the burn is checkpointed and not yet processed
func (b *Builder) IsBurnTxClaimable(
	ctx context.Context, burnTxHash common.Hash, event BurnEvent, occurrence uint,
) (bool, error) {
	checkpointed, err := b.IsBurnTxCheckpointed(ctx, burnTxHash)
	if err != nil {
		return false, err
	}
	if !checkpointed {
		return false, nil
	}
	processed, err := b.IsBurnTxProcessed(ctx, burnTxHash, event, occurrence)
	if err != nil {
		return false, err
	}
	return !processed, nil
}
