package contracts

type NameType string

const (
	ContractNameCheckpointManager NameType = "checkpointmanager"
	ContractNameRootChainManager  NameType = "rootchainmanager"
)
