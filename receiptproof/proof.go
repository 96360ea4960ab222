package receiptproof

import (
	"errors"
	"fmt"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/ethereum/go-ethereum/triedb"
)

var (
	// ErrKeyNotFound the trie has no value under the requested key
	ErrKeyNotFound = fmt.Errorf("receipt trie key %w", posexitcommon.ErrNotFound)
	// ErrInvalidProof the nodes don't lead from the root to a value
	ErrInvalidProof = fmt.Errorf("invalid receipt proof: %w", posexitcommon.ErrUnverifiable)
	// ErrEmptyTrie no receipts were given
	ErrEmptyTrie = errors.New("no receipts to build the trie")
)

// Proof is the inclusion proof of a receipt in the receipts trie of a block
type Proof struct {
	// Root of the receipts trie, equal to the receiptsRoot of the block header
	Root common.Hash
	// Path is 0x00 followed by the trie key
	Path []byte
	// ParentNodes are the RLP encoded trie nodes from the root to the leaf
	ParentNodes [][]byte
	// Value is the consensus encoded receipt
	Value []byte
}

// TrieKey returns the key of the receipt at txIndex: rlp(txIndex)
func TrieKey(txIndex uint) []byte {
	key, _ := rlp.EncodeToBytes(txIndex) //nolint:errcheck
	return key
}

// Trie is the receipts trie of a block
type Trie struct {
	tr *trie.Trie
}

// BuildTrie inserts every receipt under its transaction index. The state-sync
// receipt of the block (txHash equal to stateSyncTxHash) is left out since it's
// not part of the receipts root
func BuildTrie(receipts []*types.Receipt, stateSyncTxHash common.Hash) (*Trie, error) {
	if len(receipts) == 0 {
		return nil, ErrEmptyTrie
	}
	tr := trie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))
	inserted := 0
	for _, r := range receipts {
		if r.TxHash == stateSyncTxHash {
			continue
		}
		value, err := EncodeReceipt(r)
		if err != nil {
			return nil, err
		}
		if err := tr.Update(TrieKey(r.TransactionIndex), value); err != nil {
			return nil, fmt.Errorf("inserting receipt %d: %w", r.TransactionIndex, err)
		}
		inserted++
	}
	if inserted == 0 {
		return nil, ErrEmptyTrie
	}
	return &Trie{tr: tr}, nil
}

// Root returns the root hash of the trie
func (t *Trie) Root() common.Hash {
	return t.tr.Hash()
}

// Prove returns the nodes visited from the root to the receipt at txIndex
func (t *Trie) Prove(txIndex uint) (*Proof, error) {
	key := TrieKey(txIndex)
	value, err := t.tr.Get(key)
	if err != nil {
		return nil, fmt.Errorf("reading key %x: %w", key, err)
	}
	if len(value) == 0 {
		return nil, fmt.Errorf("tx index %d: %w", txIndex, ErrKeyNotFound)
	}
	root := t.tr.Hash()
	var nodes trienode.ProofList
	if err := t.tr.Prove(key, &nodes); err != nil {
		return nil, fmt.Errorf("proving key %x: %w", key, err)
	}
	parentNodes := make([][]byte, len(nodes))
	for i, n := range nodes {
		parentNodes[i] = n
	}
	return &Proof{
		Root:        root,
		Path:        append([]byte{0x00}, key...),
		ParentNodes: parentNodes,
		Value:       value,
	}, nil
}

// Verify walks the proof nodes from root following the key in path and returns
// the value at the end of the walk
func Verify(root common.Hash, path []byte, parentNodes [][]byte) ([]byte, error) {
	if len(path) == 0 || path[0] != 0x00 {
		return nil, fmt.Errorf("path %x without 0x00 prefix: %w", path, ErrInvalidProof)
	}
	db := memorydb.New()
	for _, node := range parentNodes {
		if err := db.Put(crypto.Keccak256(node), node); err != nil {
			return nil, err
		}
	}
	value, err := trie.VerifyProof(root, path[1:], db)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	if len(value) == 0 {
		return nil, ErrKeyNotFound
	}
	return value, nil
}
