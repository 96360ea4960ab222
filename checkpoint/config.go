package checkpoint

import "github.com/0xPolygon/posexit/config/types"

type Config struct {
	// IndexerURL is the GraphQL endpoint of a subgraph indexing NewHeaderBlock events. Empty disables it
	IndexerURL string `mapstructure:"IndexerURL"`
	// IndexerTimeout is the timeout of a request to the indexer
	IndexerTimeout types.Duration `mapstructure:"IndexerTimeout"`
	// UseLocalIndex queries the local index built by CheckpointSync before the binary search
	UseLocalIndex bool `mapstructure:"UseLocalIndex"`
	// CacheSize number of checkpoints read from the root chain kept in memory
	CacheSize int `mapstructure:"CacheSize"`
}
