package common

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestBigToWord(t *testing.T) {
	tests := []struct {
		name     string
		input    *big.Int
		expected []byte
	}{
		{
			name:     "nil value",
			input:    nil,
			expected: make([]byte, 32),
		},
		{
			name:     "zero value",
			input:    big.NewInt(0),
			expected: make([]byte, 32),
		},
		{
			name:     "block number",
			input:    big.NewInt(9826737),
			expected: append(make([]byte, 29), 0x95, 0xf1, 0xb1),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, BigToWord(tt.input))
		})
	}
}

func TestUint64RoundTrip(t *testing.T) {
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0x95, 0xf1, 0xb1}, Uint64ToBytes(9826737))
	require.Equal(t, uint64(9826737), BytesToUint64(Uint64ToBytes(9826737)))
}

func TestKeccak256HashMatchesGeth(t *testing.T) {
	a := []byte("matic-bor-receipt-")
	b := Uint64ToBytes(42)
	require.Equal(t, crypto.Keccak256Hash(a, b), Keccak256Hash(a, b))
}

func TestStateSyncTxHash(t *testing.T) {
	blockHash := common.HexToHash("0xfa78cb42d703195cf0d29cada217e395b7554e1892a3724da7396485b69988d0")
	expected := crypto.Keccak256Hash(
		[]byte(DefaultStateSyncReceiptPrefix),
		[]byte{0, 0, 0, 0, 0, 0x95, 0xf1, 0xb1},
		blockHash.Bytes(),
	)
	require.Equal(t, expected, StateSyncTxHash(DefaultStateSyncReceiptPrefix, 9826737, blockHash))
	require.NotEqual(t, expected, StateSyncTxHash(DefaultStateSyncReceiptPrefix, 9826738, blockHash))
}
