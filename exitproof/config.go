package exitproof

type Config struct {
	// MaxConcurrentFetches maximum number of header or receipt requests in flight per proof
	MaxConcurrentFetches int `mapstructure:"MaxConcurrentFetches"`
	// FastMerkleProof builds the block proof from eth_getRootHash sub-roots instead of every header of the checkpoint
	FastMerkleProof bool `mapstructure:"FastMerkleProof"`
}
