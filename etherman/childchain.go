package etherman

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/0xPolygon/posexit/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ChildChainClient reads blocks, receipts and checkpoint sub-roots from the child chain node
type ChildChainClient struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// DialChildChain connects to the child chain node
func DialChildChain(ctx context.Context, cfg ChildChainConfig) (*ChildChainClient, error) {
	rpcClient, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		log.Errorf("error connecting to %s: %+v", cfg.URL, err)
		return nil, wrapErr("dial", err)
	}
	return NewChildChainClient(rpcClient), nil
}

// NewChildChainClient wraps an already connected rpc client
func NewChildChainClient(rpcClient *rpc.Client) *ChildChainClient {
	return &ChildChainClient{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}
}

// Close closes the underlying connection
func (c *ChildChainClient) Close() {
	c.rpcClient.Close()
}

// BlockByNumber returns the block header and its transaction hashes
func (c *ChildChainClient) BlockByNumber(ctx context.Context, number uint64) (*Block, error) {
	return c.getBlock(ctx, "eth_getBlockByNumber", hexutil.EncodeUint64(number))
}

// BlockByHash returns the block header and its transaction hashes
func (c *ChildChainClient) BlockByHash(ctx context.Context, hash common.Hash) (*Block, error) {
	return c.getBlock(ctx, "eth_getBlockByHash", hash)
}

func (c *ChildChainClient) getBlock(ctx context.Context, method string, id interface{}) (*Block, error) {
	var raw json.RawMessage
	if err := c.rpcClient.CallContext(ctx, &raw, method, id, false); err != nil {
		return nil, wrapErr(method, err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, wrapErr(method, ethereum.NotFound)
	}
	block := &Block{}
	if err := json.Unmarshal(raw, block); err != nil {
		return nil, fmt.Errorf("%s: decoding block: %w", method, err)
	}
	return block, nil
}

// TransactionReceipt returns the receipt of a transaction
func (c *ChildChainClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	receipt, err := c.ethClient.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, wrapErr("eth_getTransactionReceipt", err)
	}
	return receipt, nil
}

// GetRootHash returns the root of the merkle tree of the headers of blocks
// start to end (both included), as computed by the node for checkpoints
func (c *ChildChainClient) GetRootHash(ctx context.Context, start, end uint64) (common.Hash, error) {
	var root string
	if err := c.rpcClient.CallContext(ctx, &root, "eth_getRootHash", start, end); err != nil {
		return common.Hash{}, wrapErr("eth_getRootHash", err)
	}
	// the node returns the hex root without 0x prefix
	decoded, err := hexutil.Decode("0x" + strings.TrimPrefix(root, "0x"))
	if err != nil || len(decoded) != common.HashLength {
		return common.Hash{}, fmt.Errorf("eth_getRootHash(%d, %d): invalid root %q", start, end, root)
	}
	return common.BytesToHash(decoded), nil
}
