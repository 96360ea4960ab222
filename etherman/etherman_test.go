package etherman

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/0xPolygon/posexit/etherman/contracts"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

var (
	testBlockHash = common.HexToHash("0xfa78cb42d703195cf0d29cada217e395b7554e1892a3724da7396485b69988d0")
	testTxHash    = common.HexToHash("0xc9238ec69c604ad58d2e9a10fbda778600e7f5900cb52306e88deba3c5bd661a")
	testTxRoot    = common.HexToHash("0x3582fb5cd2c56bb1ddbba1e3d0426011c958858075d9f0630ea5acd0470ae932")
	testRcptRoot  = common.HexToHash("0x17465186fbaa455f5825f9db1a869ed23fd4ad816a5c72b2d574cf57859863c7")
)

type fakeEthService struct{}

func (s *fakeEthService) block() map[string]interface{} {
	return map[string]interface{}{
		"number":           hexutil.Uint64(9826737),
		"hash":             testBlockHash,
		"timestamp":        hexutil.Uint64(0x60080fec),
		"transactionsRoot": testTxRoot,
		"receiptsRoot":     testRcptRoot,
		"transactions":     []common.Hash{testTxHash},
	}
}

func (s *fakeEthService) GetBlockByNumber(number hexutil.Uint64, _ bool) (map[string]interface{}, error) {
	if number != 9826737 {
		return nil, nil
	}
	return s.block(), nil
}

func (s *fakeEthService) GetBlockByHash(hash common.Hash, _ bool) (map[string]interface{}, error) {
	if hash != testBlockHash {
		return nil, nil
	}
	return s.block(), nil
}

func (s *fakeEthService) GetTransactionReceipt(hash common.Hash) (*types.Receipt, error) {
	if hash != testTxHash {
		return nil, nil
	}
	return &types.Receipt{
		Type:              types.LegacyTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 23024,
		Logs:              []*types.Log{},
		TxHash:            testTxHash,
		GasUsed:           23024,
		BlockHash:         testBlockHash,
		BlockNumber:       big.NewInt(9826737),
	}, nil
}

func (s *fakeEthService) GetRootHash(start, end uint64) (string, error) {
	if start > end {
		return "", errors.New("invalid range")
	}
	return "e459e9f7439f54989ee693ba93802793c02880a824979d476544378d3f66d174", nil
}

func newTestChildChainClient(t *testing.T) *ChildChainClient {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", &fakeEthService{}))
	t.Cleanup(server.Stop)
	client := NewChildChainClient(rpc.DialInProc(server))
	t.Cleanup(client.Close)
	return client
}

func TestChildChainBlocks(t *testing.T) {
	client := newTestChildChainClient(t)
	ctx := context.Background()

	block, err := client.BlockByNumber(ctx, 9826737)
	require.NoError(t, err)
	require.Equal(t, uint64(9826737), block.Number.Uint64())
	require.Equal(t, uint64(0x60080fec), block.Timestamp.Uint64())
	require.Equal(t, testTxRoot, block.TransactionsRoot)
	require.Equal(t, testRcptRoot, block.ReceiptsRoot)
	require.Equal(t, []common.Hash{testTxHash}, block.Transactions)

	byHash, err := client.BlockByHash(ctx, testBlockHash)
	require.NoError(t, err)
	require.Equal(t, block, byHash)

	_, err = client.BlockByNumber(ctx, 1)
	require.ErrorIs(t, err, posexitcommon.ErrNotFound)
}

func TestChildChainReceipt(t *testing.T) {
	client := newTestChildChainClient(t)
	ctx := context.Background()

	receipt, err := client.TransactionReceipt(ctx, testTxHash)
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, testBlockHash, receipt.BlockHash)

	_, err = client.TransactionReceipt(ctx, common.HexToHash("0x01"))
	require.ErrorIs(t, err, posexitcommon.ErrNotFound)
}

func TestChildChainGetRootHash(t *testing.T) {
	client := newTestChildChainClient(t)
	ctx := context.Background()

	root, err := client.GetRootHash(ctx, 9825948, 9827227)
	require.NoError(t, err)
	require.Equal(t, common.HexToHash("0xe459e9f7439f54989ee693ba93802793c02880a824979d476544378d3f66d174"), root)

	_, err = client.GetRootHash(ctx, 10, 1)
	require.ErrorIs(t, err, posexitcommon.ErrUpstreamUnavailable)
}

type fakeContractBackend struct {
	bind.ContractBackend
	abis    []abi.ABI
	results map[string][]interface{}
}

func (f *fakeContractBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	for _, a := range f.abis {
		method, err := a.MethodById(call.Data[:4])
		if err != nil {
			continue
		}
		out, ok := f.results[method.Name]
		if !ok {
			return nil, errors.New("execution reverted")
		}
		return method.Outputs.Pack(out...)
	}
	return nil, errors.New("unknown method")
}

func newFakeContractBackend(t *testing.T) *fakeContractBackend {
	t.Helper()
	backend := &fakeContractBackend{results: map[string][]interface{}{}}
	for _, j := range []string{contracts.CheckpointManagerABI, contracts.RootChainManagerABI} {
		parsed, err := abi.JSON(strings.NewReader(j))
		require.NoError(t, err)
		backend.abis = append(backend.abis, parsed)
	}
	return backend
}

func TestRootChainDiscoversCheckpointManager(t *testing.T) {
	backend := newFakeContractBackend(t)
	checkpointManager := common.HexToAddress("0x86E4Dc95c7FBdBf52e33D563BbDB00823894C287")
	root := common.HexToHash("0xe459e9f7439f54989ee693ba93802793c02880a824979d476544378d3f66d174")
	backend.results["checkpointManagerAddress"] = []interface{}{checkpointManager}
	backend.results["currentHeaderBlock"] = []interface{}{big.NewInt(96940000)}
	backend.results["headerBlocks"] = []interface{}{
		[32]byte(root), big.NewInt(9825948), big.NewInt(9827227), big.NewInt(0), common.Address{},
	}
	backend.results["processedExits"] = []interface{}{false}

	ctx := context.Background()
	client, err := NewRootChainClient(ctx, backend, RootChainConfig{
		RootChainManagerAddr: common.HexToAddress("0xA0c68C638235ee32657e8f720a23ceC1bFc77C77"),
	})
	require.NoError(t, err)
	require.Equal(t, checkpointManager, client.CheckpointManagerAddress())

	current, err := client.CurrentCheckpointID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(96940000), current.Int64())

	hb, err := client.CheckpointAt(ctx, big.NewInt(96930000))
	require.NoError(t, err)
	require.Equal(t, HeaderBlock{
		ID:    big.NewInt(96930000),
		Start: big.NewInt(9825948),
		End:   big.NewInt(9827227),
		Root:  root,
	}, hb)
	require.False(t, hb.IsZero())

	processed, err := client.IsExitProcessed(ctx, common.HexToHash("0x01"))
	require.NoError(t, err)
	require.False(t, processed)

	_, err = client.LastChildBlock(ctx)
	require.ErrorIs(t, err, posexitcommon.ErrUpstreamUnavailable)
}

func TestRootChainWithoutAddresses(t *testing.T) {
	_, err := NewRootChainClient(context.Background(), newFakeContractBackend(t), RootChainConfig{})
	require.ErrorIs(t, err, ErrNoRootChainManager)

	client, err := NewRootChainClient(context.Background(), newFakeContractBackend(t), RootChainConfig{
		CheckpointManagerAddr: common.HexToAddress("0x86E4Dc95c7FBdBf52e33D563BbDB00823894C287"),
	})
	require.NoError(t, err)
	_, err = client.IsExitProcessed(context.Background(), common.Hash{})
	require.ErrorIs(t, err, ErrNoRootChainManager)
}

func TestBlockNumberFinality(t *testing.T) {
	finalized := FinalizedBlock
	num, err := finalized.ToBlockNum()
	require.NoError(t, err)
	require.Equal(t, int64(rpc.FinalizedBlockNumber), num.Int64())

	unknown := BlockNumberFinality("Whatever")
	_, err = unknown.ToBlockNum()
	require.Error(t, err)
}
