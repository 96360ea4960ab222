package exitproof

import (
	"math/big"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/ethereum/go-ethereum/common"
)

// ExitHash is the key under which the root chain manager records a processed
// exit: keccak(uint256 blockNumber ∥ nibbles ∥ uint256 logIndex), where every
// byte of the path after the 0x00 prefix is split into two nibble bytes
func ExitHash(blockNumber *big.Int, path []byte, logIndex uint64) common.Hash {
	var key []byte
	if len(path) > 1 {
		key = path[1:]
	}
	nibbles := make([]byte, 0, len(key)*2) //nolint:mnd
	for _, b := range key {
		nibbles = append(nibbles, b>>4, b&0x0f) //nolint:mnd
	}
	return posexitcommon.Keccak256Hash(
		posexitcommon.BigToWord(blockNumber),
		nibbles,
		posexitcommon.BigToWord(new(big.Int).SetUint64(logIndex)),
	)
}
