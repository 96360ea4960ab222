package sync

import (
	"context"
)

// Block is a downloaded block handed to the processor. Blocks without events
// are also sent so the processor can move its last processed block forward
type Block struct {
	Num    uint64
	Events []interface{}
}

type processorInterface interface {
	GetLastProcessedBlock(ctx context.Context) (uint64, error)
	ProcessBlock(ctx context.Context, block Block) error
}
