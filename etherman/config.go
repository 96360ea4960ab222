package etherman

import (
	"github.com/ethereum/go-ethereum/common"
)

// ChildChainConfig is the configuration of the client of the child chain (block producer) node
type ChildChainConfig struct {
	// URL of the JSON-RPC endpoint, it must support eth_getRootHash to build fast block proofs
	URL string `mapstructure:"URL"`
}

// RootChainConfig is the configuration of the client of the root chain
type RootChainConfig struct {
	// URL of the JSON-RPC endpoint
	URL string `mapstructure:"URL"`
	// RootChainManagerAddr address of the RootChainManager (exit entry point)
	RootChainManagerAddr common.Address `mapstructure:"RootChainManagerAddr"`
	// CheckpointManagerAddr address of the checkpoint contract. If zero it's read from the RootChainManager
	CheckpointManagerAddr common.Address `mapstructure:"CheckpointManagerAddr"`
}
