package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ExitPayload is the answer of exitproof_buildPayload
type ExitPayload struct {
	// Payload is the input of RootChainManager.exit
	Payload      hexutil.Bytes `json:"payload"`
	ExitHash     common.Hash   `json:"exitHash"`
	CheckpointID *big.Int      `json:"checkpointId"`
	BlockNumber  *big.Int      `json:"blockNumber"`
	LogIndex     uint64        `json:"logIndex"`
}

type ClaimStatus struct {
	Checkpointed bool `json:"checkpointed"`
	Processed    bool `json:"processed"`
	Claimable    bool `json:"claimable"`
}
