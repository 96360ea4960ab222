package common

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/iden3/go-iden3-crypto/keccak256"
)

const (
	uint64ByteSize = 8
	wordByteSize   = 32
)

// Uint64ToBytes converts a uint64 to a byte slice
func Uint64ToBytes(num uint64) []byte {
	bytes := make([]byte, uint64ByteSize)
	binary.BigEndian.PutUint64(bytes, num)

	return bytes
}

// BytesToUint64 converts a byte slice to a uint64
func BytesToUint64(bytes []byte) uint64 {
	return binary.BigEndian.Uint64(bytes)
}

// BigToWord left pads the big endian representation of num to 32 bytes.
// A nil value is encoded as zero.
func BigToWord(num *big.Int) []byte {
	var buf [wordByteSize]byte
	if num == nil {
		return buf[:]
	}
	return num.FillBytes(buf[:])
}

// Keccak256Hash hashes the concatenation of the given chunks
func Keccak256Hash(data ...[]byte) common.Hash {
	return common.BytesToHash(keccak256.Hash(data...))
}

// StateSyncTxHash returns the hash of the synthetic transaction that the child
// chain appends to a block to carry state-sync receipts:
// keccak(prefix ∥ blockNumber as 8 bytes BE ∥ blockHash)
func StateSyncTxHash(prefix string, blockNumber uint64, blockHash common.Hash) common.Hash {
	return Keccak256Hash([]byte(prefix), Uint64ToBytes(blockNumber), blockHash.Bytes())
}
