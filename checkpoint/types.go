package checkpoint

import (
	"fmt"
	"math/big"

	"github.com/0xPolygon/posexit/etherman"
	"github.com/ethereum/go-ethereum/common"
)

// Checkpoint is a commitment posted on the root chain to the merkle root of
// the headers of a contiguous range of child chain blocks
type Checkpoint struct {
	ID    *big.Int    `json:"id"`
	Start *big.Int    `json:"start"`
	End   *big.Int    `json:"end"`
	Root  common.Hash `json:"root"`
}

// Contains tells whether blockNumber is inside [Start, End]
func (c Checkpoint) Contains(blockNumber uint64) bool {
	if c.Start == nil || c.End == nil {
		return false
	}
	n := new(big.Int).SetUint64(blockNumber)
	return c.Start.Cmp(n) <= 0 && c.End.Cmp(n) >= 0
}

// Bounds returns start and end as uint64
func (c Checkpoint) Bounds() (start, end uint64, err error) {
	if c.Start == nil || c.End == nil || !c.Start.IsUint64() || !c.End.IsUint64() {
		return 0, 0, fmt.Errorf("checkpoint %s has invalid bounds [%s, %s]", c.ID, c.Start, c.End)
	}
	return c.Start.Uint64(), c.End.Uint64(), nil
}

func (c Checkpoint) String() string {
	return fmt.Sprintf("checkpoint %s [%s, %s] root %s", c.ID, c.Start, c.End, c.Root)
}

func fromHeaderBlock(hb etherman.HeaderBlock) Checkpoint {
	return Checkpoint{ID: hb.ID, Start: hb.Start, End: hb.End, Root: hb.Root}
}
