package etherman

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rpc"
)

// BlockNumberFinality is the name of a block tag accepted by eth_getBlockByNumber
type BlockNumberFinality string

const (
	FinalizedBlock = BlockNumberFinality("FinalizedBlock")
	SafeBlock      = BlockNumberFinality("SafeBlock")
	PendingBlock   = BlockNumberFinality("PendingBlock")
	LatestBlock    = BlockNumberFinality("LatestBlock")
	EarliestBlock  = BlockNumberFinality("EarliestBlock")
)

// ToBlockNum returns the special block number understood by ethclient for the tag
func (b *BlockNumberFinality) ToBlockNum() (*big.Int, error) {
	switch *b {
	case FinalizedBlock:
		return big.NewInt(int64(rpc.FinalizedBlockNumber)), nil
	case SafeBlock:
		return big.NewInt(int64(rpc.SafeBlockNumber)), nil
	case PendingBlock:
		return big.NewInt(int64(rpc.PendingBlockNumber)), nil
	case LatestBlock:
		return big.NewInt(int64(rpc.LatestBlockNumber)), nil
	case EarliestBlock:
		return big.NewInt(int64(rpc.EarliestBlockNumber)), nil
	default:
		return nil, fmt.Errorf("unknown block finality: %s", *b)
	}
}
