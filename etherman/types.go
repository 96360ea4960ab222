package etherman

import (
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Block holds the header fields of a child chain block needed to prove it
// inside a checkpoint and its transaction hashes
type Block struct {
	Number           *big.Int
	Hash             common.Hash
	Timestamp        *big.Int
	TransactionsRoot common.Hash
	ReceiptsRoot     common.Hash
	Transactions     []common.Hash
}

type rpcBlock struct {
	Number           *hexutil.Big  `json:"number"`
	Hash             common.Hash   `json:"hash"`
	Timestamp        *hexutil.Big  `json:"timestamp"`
	TransactionsRoot common.Hash   `json:"transactionsRoot"`
	ReceiptsRoot     common.Hash   `json:"receiptsRoot"`
	Transactions     []common.Hash `json:"transactions"`
}

// UnmarshalJSON decodes the result of eth_getBlockByNumber/Hash called without full transactions
func (b *Block) UnmarshalJSON(input []byte) error {
	var dec rpcBlock
	if err := json.Unmarshal(input, &dec); err != nil {
		return err
	}
	if dec.Number == nil || dec.Timestamp == nil {
		return errors.New("block without number or timestamp")
	}
	*b = Block{
		Number:           dec.Number.ToInt(),
		Hash:             dec.Hash,
		Timestamp:        dec.Timestamp.ToInt(),
		TransactionsRoot: dec.TransactionsRoot,
		ReceiptsRoot:     dec.ReceiptsRoot,
		Transactions:     dec.Transactions,
	}
	return nil
}

// HeaderBlock is a checkpoint read from the checkpoint manager
type HeaderBlock struct {
	ID    *big.Int
	Start *big.Int
	End   *big.Int
	Root  common.Hash
}

// IsZero tells whether the checkpoint manager returned an empty slot
func (h HeaderBlock) IsZero() bool {
	return h.Root == (common.Hash{}) && (h.End == nil || h.End.Sign() == 0)
}
