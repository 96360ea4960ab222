package tree

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroHashes memoizes the roots of trees whose leaves are all the zero digest,
// indexed by height. Safe for concurrent use
type ZeroHashes struct {
	mu     sync.Mutex
	hashes []common.Hash
}

// NewZeroHashes creates the memo for the given zero digest (height 0)
func NewZeroHashes(zeroDigest common.Hash) *ZeroHashes {
	return &ZeroHashes{hashes: []common.Hash{zeroDigest}}
}

// At returns the root of a zero tree of the given height
func (z *ZeroHashes) At(height int) common.Hash {
	z.mu.Lock()
	defer z.mu.Unlock()
	for len(z.hashes) <= height {
		last := z.hashes[len(z.hashes)-1]
		z.hashes = append(z.hashes, HashPair(last, last))
	}
	return z.hashes[height]
}
