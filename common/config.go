package common

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	// DefaultCheckpointIDStride is the distance between two consecutive checkpoint ids on the root chain
	DefaultCheckpointIDStride = 10000
	// DefaultStateSyncReceiptPrefix is the prefix used by the child chain to derive state-sync tx hashes
	DefaultStateSyncReceiptPrefix = "matic-bor-receipt-"
	// DefaultMaxTreeDepth is the maximum depth of a checkpoint merkle tree
	DefaultMaxTreeDepth = 20
)

// NetworkConfig holds the chain dependent constants. It is passed by value to
// every component that needs it.
type NetworkConfig struct {
	// CheckpointIDStride checkpoint ids are multiples of this value
	CheckpointIDStride uint64 `mapstructure:"CheckpointIDStride"`
	// StateSyncReceiptPrefix prefix of the synthetic state-sync tx hash preimage
	StateSyncReceiptPrefix string `mapstructure:"StateSyncReceiptPrefix"`
	// ZeroDigest leaf used to pad checkpoint merkle trees
	ZeroDigest common.Hash `mapstructure:"ZeroDigest"`
	// MaxTreeDepth maximum depth accepted for a checkpoint merkle tree
	MaxTreeDepth uint8 `mapstructure:"MaxTreeDepth"`
	// RecentRangeStartBlock child block from which the binary search may start at RecentRangeStartCheckpointID.
	// Zero disables the hint
	RecentRangeStartBlock uint64 `mapstructure:"RecentRangeStartBlock"`
	// RecentRangeStartCheckpointID first checkpoint id to consider for blocks >= RecentRangeStartBlock
	RecentRangeStartCheckpointID uint64 `mapstructure:"RecentRangeStartCheckpointID"`
}

// DefaultNetworkConfig returns the values of the PoS mainnet
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		CheckpointIDStride:     DefaultCheckpointIDStride,
		StateSyncReceiptPrefix: DefaultStateSyncReceiptPrefix,
		MaxTreeDepth:           DefaultMaxTreeDepth,
	}
}
