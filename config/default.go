package config

// DefaultVars are the vars used to avoid repetition in config files. They
// don't belong to Config
const DefaultVars = `
PathRWData = "/tmp/posexit"
ChildChainURL = "http://localhost:8545"
RootChainURL = "http://localhost:8546"
`

// DefaultValues is the default configuration. Addresses left to zero must be
// provided for the target network
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[Network]
CheckpointIDStride = 10000
StateSyncReceiptPrefix = "matic-bor-receipt-"
ZeroDigest = "0x0000000000000000000000000000000000000000000000000000000000000000"
MaxTreeDepth = 20
# binary search over checkpoints starts at RecentRangeStartCheckpointID for blocks
# >= RecentRangeStartBlock when the checkpoint there doesn't start after the block
RecentRangeStartBlock = 9010326
RecentRangeStartCheckpointID = 91490000

[ChildChain]
URL = "{{ChildChainURL}}"

[RootChain]
URL = "{{RootChainURL}}"
RootChainManagerAddr = "0x0000000000000000000000000000000000000000"
# zero address means that it's read from RootChainManager.checkpointManagerAddress()
CheckpointManagerAddr = "0x0000000000000000000000000000000000000000"

[Checkpoint]
# subgraph indexing NewHeaderBlock events, empty to disable
IndexerURL = ""
IndexerTimeout = "5s"
# use the local index built by the CheckpointSync component
UseLocalIndex = false
CacheSize = 1024

[CheckpointSync]
DBPath = "{{PathRWData}}/checkpointsync.sqlite"
BlockFinality = "FinalizedBlock"
InitialBlockNum = 0
SyncBlockChunkSize = 1000
RetryAfterErrorPeriod = "1s"
MaxRetryAttemptsAfterError = -1
WaitForNewBlocksPeriod = "10s"
DownloadBufferSize = 100

[ExitProof]
MaxConcurrentFetches = 16
# build the block inclusion proof with eth_getRootHash instead of fetching every header
FastMerkleProof = true

[RPC]
Host = "0.0.0.0"
Port = 5577
ReadTimeout = "2s"
WriteTimeout = "2s"
MaxRequestsPerIPAndSecond = 10
`
