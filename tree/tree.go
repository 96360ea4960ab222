package tree

import (
	"errors"
	"fmt"
	"math/bits"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

var (
	// ErrNotFound the leaf is not part of the tree
	ErrNotFound = fmt.Errorf("leaf %w", posexitcommon.ErrNotFound)
	// ErrDepthTooLarge the number of leaves exceeds the configured maximum depth
	ErrDepthTooLarge = fmt.Errorf("tree depth too large: %w", posexitcommon.ErrUnverifiable)
	// ErrEmptyTree a tree needs at least one leaf
	ErrEmptyTree = errors.New("tree without leaves")
)

// Proof is the list of siblings from the leaf layer up to the layer below the root
type Proof []common.Hash

// MerkleTree is a binary keccak tree built over a list of 32 byte leaves.
// Leaves are padded with the zero digest up to the next power of two
type MerkleTree struct {
	// layers[0] are the padded leaves, the last layer holds the root
	layers [][]common.Hash
}

// New builds the tree. It fails with ErrDepthTooLarge when the padded tree
// would be deeper than maxDepth
func New(leaves []common.Hash, zeroDigest common.Hash, maxDepth uint8) (*MerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	depth := Depth(uint64(len(leaves)))
	if depth > int(maxDepth) {
		return nil, fmt.Errorf("%d leaves need depth %d, max %d: %w", len(leaves), depth, maxDepth, ErrDepthTooLarge)
	}
	padded := make([]common.Hash, 1<<depth)
	copy(padded, leaves)
	for i := len(leaves); i < len(padded); i++ {
		padded[i] = zeroDigest
	}

	layers := [][]common.Hash{padded}
	for current := padded; len(current) > 1; {
		current = nextLayer(current)
		layers = append(layers, current)
	}
	return &MerkleTree{layers: layers}, nil
}

// nextLayer hashes pairs of nodes. The last node of an odd layer is carried up unhashed
func nextLayer(nodes []common.Hash) []common.Hash {
	next := make([]common.Hash, 0, (len(nodes)+1)/2) //nolint:mnd
	for i := 0; i+1 < len(nodes); i += 2 {
		next = append(next, HashPair(nodes[i], nodes[i+1]))
	}
	if len(nodes)%2 == 1 {
		next = append(next, nodes[len(nodes)-1])
	}
	return next
}

// Root of the tree
func (t *MerkleTree) Root() common.Hash {
	return t.layers[len(t.layers)-1][0]
}

// Depth number of layers below the root
func (t *MerkleTree) Depth() int {
	return len(t.layers) - 1
}

// Leaves returns the padded leaves
func (t *MerkleTree) Leaves() []common.Hash {
	return t.layers[0]
}

// GetProof returns the proof of the first leaf equal to leaf and its index
func (t *MerkleTree) GetProof(leaf common.Hash) (Proof, uint64, error) {
	for i, l := range t.layers[0] {
		if l == leaf {
			proof, err := t.GetProofByIndex(uint64(i))
			return proof, uint64(i), err
		}
	}
	return nil, 0, ErrNotFound
}

// GetProofByIndex returns the siblings of the path from the leaf at index to the root
func (t *MerkleTree) GetProofByIndex(index uint64) (Proof, error) {
	if index >= uint64(len(t.layers[0])) {
		return nil, fmt.Errorf("index %d out of %d leaves: %w", index, len(t.layers[0]), posexitcommon.ErrInvalidRange)
	}
	proof := make(Proof, 0, t.Depth())
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := index ^ 1
		if sibling < uint64(len(layer)) {
			proof = append(proof, layer[sibling])
		}
		index /= 2
	}
	return proof, nil
}

// Verify folds the proof from value at index and compares the result with root
func Verify(value common.Hash, index uint64, root common.Hash, proof Proof) bool {
	return ComputeRoot(value, index, proof) == root
}

// ComputeRoot folds the proof from value at index: an even position hashes
// (node, sibling), an odd one (sibling, node)
func ComputeRoot(value common.Hash, index uint64, proof Proof) common.Hash {
	hash := value
	for _, sibling := range proof {
		if index%2 == 0 {
			hash = HashPair(hash, sibling)
		} else {
			hash = HashPair(sibling, hash)
		}
		index /= 2
	}
	return hash
}

// HashPair returns keccak256(left ∥ right)
func HashPair(left, right common.Hash) common.Hash {
	var hash common.Hash
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(left[:])
	hasher.Write(right[:])
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// Depth returns ceil(log2(n)), the depth of a tree with n leaves
func Depth(n uint64) int {
	if n <= 1 {
		return 0
	}
	return bits.Len64(n - 1)
}
