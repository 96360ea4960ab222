package exitproof

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// ExitPayload holds everything the root chain needs to verify a burn
type ExitPayload struct {
	// HeaderBlockNumber is the id of the checkpoint that includes the burn block
	HeaderBlockNumber *big.Int
	// BlockProof siblings of the burn block header in the checkpoint tree, leaf to root
	BlockProof           []common.Hash
	BurnTxBlockNumber    *big.Int
	BurnTxBlockTimestamp *big.Int
	TransactionsRoot     common.Hash
	ReceiptsRoot         common.Hash
	// Receipt consensus encoding of the burn receipt
	Receipt []byte
	// ReceiptProofParentNodes receipt trie nodes from the root to the leaf, RLP encoded
	ReceiptProofParentNodes [][]byte
	// ReceiptProofPath 0x00 followed by the trie key of the receipt
	ReceiptProofPath []byte
	// LogIndex position of the burn log in the receipt
	LogIndex uint64
}

type encodedPayload struct {
	HeaderBlockNumber       *big.Int
	BlockProof              []byte
	BurnTxBlockNumber       *big.Int
	BurnTxBlockTimestamp    *big.Int
	TransactionsRoot        common.Hash
	ReceiptsRoot            common.Hash
	Receipt                 []byte
	ReceiptProofParentNodes []byte
	ReceiptProofPath        []byte
	LogIndex                uint64
}

func (p *ExitPayload) validate() error {
	switch {
	case p.HeaderBlockNumber == nil:
		return fmt.Errorf("%w: header block number", ErrMissingField)
	case p.BurnTxBlockNumber == nil:
		return fmt.Errorf("%w: burn block number", ErrMissingField)
	case p.BurnTxBlockTimestamp == nil:
		return fmt.Errorf("%w: burn block timestamp", ErrMissingField)
	case len(p.Receipt) == 0:
		return fmt.Errorf("%w: receipt", ErrMissingField)
	case len(p.ReceiptProofParentNodes) == 0:
		return fmt.Errorf("%w: receipt proof nodes", ErrMissingField)
	case len(p.ReceiptProofPath) == 0:
		return fmt.Errorf("%w: receipt proof path", ErrMissingField)
	}
	return nil
}

// Encode returns the RLP list accepted by the root chain exit predicates:
// [headerBlockNumber, concat(blockProof), blockNumber, timestamp,
// transactionsRoot, receiptsRoot, receipt, rlp(parentNodes), path, logIndex]
func (p *ExitPayload) Encode() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	proof := make([]byte, 0, len(p.BlockProof)*common.HashLength)
	for _, sibling := range p.BlockProof {
		proof = append(proof, sibling.Bytes()...)
	}
	nodes := make([]rlp.RawValue, len(p.ReceiptProofParentNodes))
	for i, node := range p.ReceiptProofParentNodes {
		nodes[i] = node
	}
	encodedNodes, err := rlp.EncodeToBytes(nodes)
	if err != nil {
		return nil, fmt.Errorf("encoding receipt proof nodes: %w", err)
	}
	return rlp.EncodeToBytes(&encodedPayload{
		HeaderBlockNumber:       p.HeaderBlockNumber,
		BlockProof:              proof,
		BurnTxBlockNumber:       p.BurnTxBlockNumber,
		BurnTxBlockTimestamp:    p.BurnTxBlockTimestamp,
		TransactionsRoot:        p.TransactionsRoot,
		ReceiptsRoot:            p.ReceiptsRoot,
		Receipt:                 p.Receipt,
		ReceiptProofParentNodes: encodedNodes,
		ReceiptProofPath:        p.ReceiptProofPath,
		LogIndex:                p.LogIndex,
	})
}

// EncodeHex returns Encode as a 0x prefixed hex string
func (p *ExitPayload) EncodeHex() (string, error) {
	b, err := p.Encode()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(b), nil
}

// DecodeExitPayload parses the output of Encode
func DecodeExitPayload(data []byte) (*ExitPayload, error) {
	var dec encodedPayload
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, err
	}
	if len(dec.BlockProof)%common.HashLength != 0 {
		return nil, fmt.Errorf("block proof length %d is not a multiple of %d", len(dec.BlockProof), common.HashLength)
	}
	proof := make([]common.Hash, len(dec.BlockProof)/common.HashLength)
	for i := range proof {
		proof[i] = common.BytesToHash(dec.BlockProof[i*common.HashLength : (i+1)*common.HashLength])
	}
	var nodes []rlp.RawValue
	if err := rlp.DecodeBytes(dec.ReceiptProofParentNodes, &nodes); err != nil {
		return nil, fmt.Errorf("decoding receipt proof nodes: %w", err)
	}
	parentNodes := make([][]byte, len(nodes))
	for i, node := range nodes {
		parentNodes[i] = node
	}
	return &ExitPayload{
		HeaderBlockNumber:       dec.HeaderBlockNumber,
		BlockProof:              proof,
		BurnTxBlockNumber:       dec.BurnTxBlockNumber,
		BurnTxBlockTimestamp:    dec.BurnTxBlockTimestamp,
		TransactionsRoot:        dec.TransactionsRoot,
		ReceiptsRoot:            dec.ReceiptsRoot,
		Receipt:                 dec.Receipt,
		ReceiptProofParentNodes: parentNodes,
		ReceiptProofPath:        dec.ReceiptProofPath,
		LogIndex:                dec.LogIndex,
	}, nil
}
