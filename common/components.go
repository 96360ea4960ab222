package common

const (
	// RPC name to identify the rpc component
	RPC = "rpc"
	// CHECKPOINT_SYNC name to identify the local checkpoint index component
	CHECKPOINT_SYNC = "checkpoint-sync" //nolint:stylecheck
	// PROOF_BUILDER name to identify the exit proof builder
	PROOF_BUILDER = "proof-builder" //nolint:stylecheck
	// CHECKPOINT_LOCATOR name to identify the checkpoint locator
	CHECKPOINT_LOCATOR = "checkpoint-locator" //nolint:stylecheck
)
