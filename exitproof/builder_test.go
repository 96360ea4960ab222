package exitproof

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/0xPolygon/posexit/blockproof"
	"github.com/0xPolygon/posexit/checkpoint"
	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/etherman"
	"github.com/0xPolygon/posexit/log"
	"github.com/0xPolygon/posexit/receiptproof"
	"github.com/0xPolygon/posexit/tree"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

const (
	cpStart   = uint64(100)
	cpEnd     = uint64(130)
	burnBlock = uint64(117)
)

var (
	token    = common.HexToAddress("0x0000000000000000000000000000000000001010")
	holder   = common.BytesToHash(common.HexToAddress("0x6f1c28c40b5fed4fb546f85959ae2f7c16365cad").Bytes())
	receiver = common.BytesToHash(common.HexToAddress("0x000000000000000000000000000000000000beef").Bytes())
)

// fakeChildChain is a child chain of blocks cpStart..cpEnd where burnBlock holds
// three user transactions and the state-sync transaction
type fakeChildChain struct {
	blocks       map[uint64]*etherman.Block
	receipts     map[common.Hash]*types.Receipt
	receiptErr   error
	rootHashErr  error
	rootQueries  atomic.Int32
	blockQueries atomic.Int32
}

func blockHash(number uint64) common.Hash {
	return posexitcommon.Keccak256Hash([]byte("block"), posexitcommon.Uint64ToBytes(number))
}

func transferLog(to common.Hash) *types.Log {
	return &types.Log{
		Address: token,
		Topics:  []common.Hash{TransferSignature, holder, to},
		Data:    common.LeftPadBytes(big.NewInt(1e18).Bytes(), 32),
	}
}

func newReceipt(index uint, logs ...*types.Log) *types.Receipt {
	r := &types.Receipt{
		Type:              types.DynamicFeeTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: uint64(50000 * (index + 1)),
		Logs:              logs,
		TxHash:            posexitcommon.Keccak256Hash([]byte("tx"), []byte{byte(index)}),
		BlockHash:         blockHash(burnBlock),
		BlockNumber:       new(big.Int).SetUint64(burnBlock),
		TransactionIndex:  index,
	}
	r.Bloom = types.CreateBloom(types.Receipts{r})
	return r
}

func newFakeChildChain(t *testing.T) *fakeChildChain {
	t.Helper()
	c := &fakeChildChain{
		blocks:   map[uint64]*etherman.Block{},
		receipts: map[common.Hash]*types.Receipt{},
	}
	for n := cpStart; n <= cpEnd; n++ {
		c.blocks[n] = &etherman.Block{
			Number:           new(big.Int).SetUint64(n),
			Hash:             blockHash(n),
			Timestamp:        new(big.Int).SetUint64(1700000000 + 2*n),
			TransactionsRoot: posexitcommon.Keccak256Hash([]byte("txroot"), posexitcommon.Uint64ToBytes(n)),
			ReceiptsRoot:     posexitcommon.Keccak256Hash([]byte("rcptroot"), posexitcommon.Uint64ToBytes(n)),
		}
	}

	receipts := []*types.Receipt{
		newReceipt(0, transferLog(receiver)),
		// the burn: a plain transfer followed by two burns
		newReceipt(1, transferLog(receiver), transferLog(common.Hash{}), transferLog(common.Hash{})),
		newReceipt(2),
	}
	stateSync := newReceipt(3, &types.Log{Address: token, Topics: []common.Hash{SendMessageSignature}})
	stateSync.Type = types.LegacyTxType
	stateSync.TxHash = posexitcommon.StateSyncTxHash(posexitcommon.DefaultStateSyncReceiptPrefix, burnBlock, blockHash(burnBlock))
	receipts = append(receipts, stateSync)

	tr, err := receiptproof.BuildTrie(receipts, stateSync.TxHash)
	require.NoError(t, err)
	block := c.blocks[burnBlock]
	block.ReceiptsRoot = tr.Root()
	for _, r := range receipts {
		c.receipts[r.TxHash] = r
		block.Transactions = append(block.Transactions, r.TxHash)
	}
	return c
}

func (c *fakeChildChain) burnTx() common.Hash {
	return c.blocks[burnBlock].Transactions[1]
}

func (c *fakeChildChain) TransactionReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	if c.receiptErr != nil {
		return nil, c.receiptErr
	}
	r, ok := c.receipts[txHash]
	if !ok {
		return nil, posexitcommon.ErrNotFound
	}
	return r, nil
}

func (c *fakeChildChain) BlockByNumber(_ context.Context, number uint64) (*etherman.Block, error) {
	c.blockQueries.Add(1)
	b, ok := c.blocks[number]
	if !ok {
		return nil, fmt.Errorf("block %d %w", number, posexitcommon.ErrNotFound)
	}
	return b, nil
}

func (c *fakeChildChain) BlockByHash(_ context.Context, hash common.Hash) (*etherman.Block, error) {
	for _, b := range c.blocks {
		if b.Hash == hash {
			return b, nil
		}
	}
	return nil, fmt.Errorf("block %s %w", hash, posexitcommon.ErrNotFound)
}

func (c *fakeChildChain) GetRootHash(_ context.Context, start, end uint64) (common.Hash, error) {
	c.rootQueries.Add(1)
	if c.rootHashErr != nil {
		return common.Hash{}, c.rootHashErr
	}
	return c.rootOf(start, end)
}

func (c *fakeChildChain) rootOf(start, end uint64) (common.Hash, error) {
	leaves := make([]common.Hash, 0, end-start+1)
	for n := start; n <= end; n++ {
		leaves = append(leaves, blockproof.HeaderDigest(c.blocks[n]))
	}
	t, err := tree.New(leaves, common.Hash{}, posexitcommon.DefaultMaxTreeDepth)
	if err != nil {
		return common.Hash{}, err
	}
	return t.Root(), nil
}

type fakeLocator struct {
	cp  checkpoint.Checkpoint
	err error
	// onChain is what Search returns, cp when nil
	onChain  *checkpoint.Checkpoint
	searches int
}

func (l *fakeLocator) Locate(_ context.Context, blockNumber uint64) (checkpoint.Checkpoint, error) {
	if l.err != nil {
		return checkpoint.Checkpoint{}, l.err
	}
	if !l.cp.Contains(blockNumber) {
		return checkpoint.Checkpoint{}, checkpoint.ErrCheckpointNotFound
	}
	return l.cp, nil
}

func (l *fakeLocator) Search(ctx context.Context, blockNumber uint64) (checkpoint.Checkpoint, error) {
	l.searches++
	if l.onChain == nil {
		return l.Locate(ctx, blockNumber)
	}
	if !l.onChain.Contains(blockNumber) {
		return checkpoint.Checkpoint{}, checkpoint.ErrCheckpointNotFound
	}
	return *l.onChain, nil
}

type fakeRootChain struct {
	lastChildBlock *big.Int
	processed      map[common.Hash]bool
}

func (r *fakeRootChain) LastChildBlock(context.Context) (*big.Int, error) {
	if r.lastChildBlock == nil {
		return nil, posexitcommon.ErrUpstreamUnavailable
	}
	return r.lastChildBlock, nil
}

func (r *fakeRootChain) IsExitProcessed(_ context.Context, exitHash common.Hash) (bool, error) {
	return r.processed[exitHash], nil
}

type testEnv struct {
	chain     *fakeChildChain
	locator   *fakeLocator
	rootChain *fakeRootChain
	erc20     BurnEvent
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	chain := newFakeChildChain(t)
	root, err := chain.rootOf(cpStart, cpEnd)
	require.NoError(t, err)
	erc20, err := NewBurnEvent(EventERC20Transfer)
	require.NoError(t, err)
	return &testEnv{
		chain: chain,
		locator: &fakeLocator{cp: checkpoint.Checkpoint{
			ID:    big.NewInt(20000),
			Start: new(big.Int).SetUint64(cpStart),
			End:   new(big.Int).SetUint64(cpEnd),
			Root:  root,
		}},
		rootChain: &fakeRootChain{
			lastChildBlock: new(big.Int).SetUint64(cpEnd),
			processed:      map[common.Hash]bool{},
		},
		erc20: erc20,
	}
}

func (e *testEnv) builder(fast bool) *Builder {
	return NewBuilder(
		Config{MaxConcurrentFetches: 4, FastMerkleProof: fast},
		posexitcommon.DefaultNetworkConfig(),
		e.chain, e.locator, e.rootChain,
		log.WithFields("module", "exitproof-test"),
	)
}

func TestBuildExitPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	plain, err := env.builder(false).BuildExitPayload(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	require.Positive(t, env.chain.blockQueries.Load())
	require.Zero(t, env.chain.rootQueries.Load())

	// same inputs, same bytes
	again, err := env.builder(false).BuildExitPayload(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	require.Equal(t, plain, again)

	fast, err := env.builder(true).BuildExitPayload(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	require.Positive(t, env.chain.rootQueries.Load())
	require.Equal(t, plain, fast)

	payload, err := DecodeExitPayload(plain)
	require.NoError(t, err)
	block := env.chain.blocks[burnBlock]
	require.Equal(t, uint64(20000), payload.HeaderBlockNumber.Uint64())
	require.Equal(t, burnBlock, payload.BurnTxBlockNumber.Uint64())
	require.Equal(t, block.Timestamp.Uint64(), payload.BurnTxBlockTimestamp.Uint64())
	require.Equal(t, block.TransactionsRoot, payload.TransactionsRoot)
	require.Equal(t, block.ReceiptsRoot, payload.ReceiptsRoot)
	require.Equal(t, uint64(1), payload.LogIndex)
	require.Equal(t, []byte{0x00, 0x01}, payload.ReceiptProofPath)
	require.Len(t, payload.BlockProof, tree.Depth(cpEnd-cpStart+1))

	require.True(t, tree.Verify(blockproof.HeaderDigest(block), burnBlock-cpStart,
		env.locator.cp.Root, payload.BlockProof))
	value, err := receiptproof.Verify(payload.ReceiptsRoot, payload.ReceiptProofPath, payload.ReceiptProofParentNodes)
	require.NoError(t, err)
	require.Equal(t, payload.Receipt, value)
	expected, err := receiptproof.EncodeReceipt(env.chain.receipts[env.chain.burnTx()])
	require.NoError(t, err)
	require.Equal(t, expected, value)

	// second burn of the same receipt
	second, err := env.builder(false).BuildExitProof(ctx, env.chain.burnTx(), env.erc20, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.LogIndex)
}

func TestBuildExitPayloadWithoutCommittedRoot(t *testing.T) {
	env := newTestEnv(t)
	env.locator.cp.Root = common.Hash{}
	_, err := env.builder(false).BuildExitPayload(context.Background(), env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
}

func TestBuildExitPayloadStageErrors(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		name     string
		tamper   func(e *testEnv) (common.Hash, uint)
		stage    Stage
		expected error
	}{
		{
			name: "unknown transaction",
			tamper: func(e *testEnv) (common.Hash, uint) {
				return common.HexToHash("0x01"), 0
			},
			stage:    StageReceiptLookup,
			expected: ErrTransactionNotFound,
		},
		{
			name: "node down",
			tamper: func(e *testEnv) (common.Hash, uint) {
				e.chain.receiptErr = fmt.Errorf("%w: dial tcp", posexitcommon.ErrUpstreamUnavailable)
				return e.chain.burnTx(), 0
			},
			stage:    StageReceiptLookup,
			expected: posexitcommon.ErrUpstreamUnavailable,
		},
		{
			name: "pending transaction",
			tamper: func(e *testEnv) (common.Hash, uint) {
				pending := *e.chain.receipts[e.chain.burnTx()]
				pending.BlockNumber = nil
				pending.TxHash = common.HexToHash("0x02")
				e.chain.receipts[pending.TxHash] = &pending
				return pending.TxHash, 0
			},
			stage:    StageReceiptLookup,
			expected: ErrTransactionNotFound,
		},
		{
			name: "no such occurrence",
			tamper: func(e *testEnv) (common.Hash, uint) {
				return e.chain.burnTx(), 2
			},
			stage:    StageLogResolution,
			expected: ErrLogNotFound,
		},
		{
			name: "not a burn",
			tamper: func(e *testEnv) (common.Hash, uint) {
				return e.chain.blocks[burnBlock].Transactions[0], 0
			},
			stage:    StageLogResolution,
			expected: ErrLogNotFound,
		},
		{
			name: "receipts root mismatch",
			tamper: func(e *testEnv) (common.Hash, uint) {
				e.chain.blocks[burnBlock].ReceiptsRoot = common.HexToHash("0xbad")
				return e.chain.burnTx(), 0
			},
			stage:    StageReceiptProof,
			expected: posexitcommon.ErrUnverifiable,
		},
		{
			name: "receipt of a sibling tx is missing",
			tamper: func(e *testEnv) (common.Hash, uint) {
				delete(e.chain.receipts, e.chain.blocks[burnBlock].Transactions[2])
				return e.chain.burnTx(), 0
			},
			stage:    StageReceiptProof,
			expected: posexitcommon.ErrNotFound,
		},
		{
			name: "not checkpointed",
			tamper: func(e *testEnv) (common.Hash, uint) {
				e.locator.cp.End = big.NewInt(110)
				return e.chain.burnTx(), 0
			},
			stage:    StageCheckpointLocation,
			expected: checkpoint.ErrCheckpointNotFound,
		},
		{
			name: "root chain down",
			tamper: func(e *testEnv) (common.Hash, uint) {
				e.locator.err = posexitcommon.ErrUpstreamUnavailable
				return e.chain.burnTx(), 0
			},
			stage:    StageCheckpointLocation,
			expected: posexitcommon.ErrUpstreamUnavailable,
		},
		{
			name: "checkpoint root mismatch",
			tamper: func(e *testEnv) (common.Hash, uint) {
				e.locator.cp.Root = common.HexToHash("0xbad")
				return e.chain.burnTx(), 0
			},
			stage:    StageBlockProof,
			expected: posexitcommon.ErrUnverifiable,
		},
		{
			name: "header missing",
			tamper: func(e *testEnv) (common.Hash, uint) {
				delete(e.chain.blocks, cpEnd)
				return e.chain.burnTx(), 0
			},
			stage:    StageBlockProof,
			expected: posexitcommon.ErrNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			txHash, occurrence := tc.tamper(env)
			_, err := env.builder(false).BuildExitPayload(ctx, txHash, env.erc20, occurrence)
			require.ErrorIs(t, err, tc.expected)
			stage, ok := FailedStage(err)
			require.True(t, ok)
			require.Equal(t, tc.stage, stage)
		})
	}
}

func TestBuildExitPayloadStaleIndexerCheckpoint(t *testing.T) {
	ctx := context.Background()
	for _, fast := range []bool{false, true} {
		t.Run(fmt.Sprintf("fast=%t", fast), func(t *testing.T) {
			env := newTestEnv(t)
			expected, err := env.builder(fast).BuildExitPayload(ctx, env.chain.burnTx(), env.erc20, 0)
			require.NoError(t, err)

			onChain := env.locator.cp
			env.locator.onChain = &onChain
			env.locator.cp = checkpoint.Checkpoint{
				ID:    big.NewInt(10000),
				Start: onChain.Start,
				End:   onChain.End,
				Root:  common.HexToHash("0xbad"),
			}

			payload, err := env.builder(fast).BuildExitProof(ctx, env.chain.burnTx(), env.erc20, 0)
			require.NoError(t, err)
			require.Equal(t, 1, env.locator.searches)
			require.Equal(t, onChain.ID, payload.HeaderBlockNumber)
			encoded, err := payload.Encode()
			require.NoError(t, err)
			require.Equal(t, expected, encoded)
		})
	}
}

func TestBuildExitPayloadRootMismatchOnChain(t *testing.T) {
	env := newTestEnv(t)
	env.locator.cp.Root = common.HexToHash("0xbad")
	_, err := env.builder(true).BuildExitPayload(context.Background(), env.chain.burnTx(), env.erc20, 0)
	require.ErrorIs(t, err, posexitcommon.ErrUnverifiable)
	require.Equal(t, 1, env.locator.searches)
	stage, ok := FailedStage(err)
	require.True(t, ok)
	require.Equal(t, StageBlockProof, stage)
}

func TestFastProofOracleFailure(t *testing.T) {
	env := newTestEnv(t)
	env.chain.rootHashErr = errors.New("the method eth_getRootHash does not exist")
	_, err := env.builder(true).BuildExitPayload(context.Background(), env.chain.burnTx(), env.erc20, 0)
	require.Error(t, err)
	stage, ok := FailedStage(err)
	require.True(t, ok)
	require.Equal(t, StageBlockProof, stage)
}

func TestClaimChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.builder(false)

	exitHash, err := b.BurnExitHash(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	payload, err := b.BuildExitProof(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	require.Equal(t, ExitHash(payload.BurnTxBlockNumber, payload.ReceiptProofPath, payload.LogIndex), exitHash)

	claimable, err := b.IsBurnTxClaimable(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	require.True(t, claimable)

	env.rootChain.processed[exitHash] = true
	processed, err := b.IsBurnTxProcessed(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	require.True(t, processed)
	claimable, err = b.IsBurnTxClaimable(ctx, env.chain.burnTx(), env.erc20, 0)
	require.NoError(t, err)
	require.False(t, claimable)

	// second burn has its own exit hash
	claimable, err = b.IsBurnTxClaimable(ctx, env.chain.burnTx(), env.erc20, 1)
	require.NoError(t, err)
	require.True(t, claimable)

	env.rootChain.lastChildBlock = big.NewInt(int64(burnBlock - 1))
	checkpointed, err := b.IsBurnTxCheckpointed(ctx, env.chain.burnTx())
	require.NoError(t, err)
	require.False(t, checkpointed)
	claimable, err = b.IsBurnTxClaimable(ctx, env.chain.burnTx(), env.erc20, 1)
	require.NoError(t, err)
	require.False(t, claimable)

	checkpointed, err = b.IsBlockCheckpointed(ctx, big.NewInt(int64(burnBlock-1)))
	require.NoError(t, err)
	require.True(t, checkpointed)

	env.rootChain.lastChildBlock = nil
	_, err = b.IsBurnTxClaimable(ctx, env.chain.burnTx(), env.erc20, 0)
	require.ErrorIs(t, err, posexitcommon.ErrUpstreamUnavailable)

	_, err = b.IsBurnTxClaimable(ctx, common.HexToHash("0x01"), env.erc20, 0)
	require.ErrorIs(t, err, ErrTransactionNotFound)
}
