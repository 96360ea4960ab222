package tree

import (
	"fmt"
	"testing"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func leaf(i int) common.Hash {
	return posexitcommon.Keccak256Hash([]byte(fmt.Sprintf("leaf-%d", i)))
}

func TestNewPadsToPowerOfTwo(t *testing.T) {
	a, b, c := leaf(0), leaf(1), leaf(2)
	tr, err := New([]common.Hash{a, b, c}, common.Hash{}, 20)
	require.NoError(t, err)

	require.Equal(t, 2, tr.Depth())
	require.Equal(t, []common.Hash{a, b, c, {}}, tr.Leaves())
	expectedRoot := HashPair(HashPair(a, b), HashPair(c, common.Hash{}))
	require.Equal(t, expectedRoot, tr.Root())

	proof, index, err := tr.GetProof(c)
	require.NoError(t, err)
	require.Equal(t, uint64(2), index)
	require.Equal(t, Proof{{}, HashPair(a, b)}, proof)
	require.True(t, Verify(c, index, tr.Root(), proof))
	require.False(t, Verify(c, index+1, tr.Root(), proof))
}

func TestEveryLeafVerifies(t *testing.T) {
	for _, n := range []int{1, 2, 5, 8, 13, 33} {
		n := n
		t.Run(fmt.Sprintf("%d leaves", n), func(t *testing.T) {
			leaves := make([]common.Hash, n)
			for i := range leaves {
				leaves[i] = leaf(i)
			}
			tr, err := New(leaves, common.Hash{}, 20)
			require.NoError(t, err)
			require.Equal(t, Depth(uint64(n)), tr.Depth())
			for i, l := range leaves {
				proof, index, err := tr.GetProof(l)
				require.NoError(t, err)
				require.Equal(t, uint64(i), index)
				require.Len(t, proof, tr.Depth())
				require.True(t, Verify(l, index, tr.Root(), proof))
			}
		})
	}
}

func TestSingleLeaf(t *testing.T) {
	tr, err := New([]common.Hash{leaf(0)}, common.Hash{}, 20)
	require.NoError(t, err)
	require.Equal(t, leaf(0), tr.Root())
	proof, err := tr.GetProofByIndex(0)
	require.NoError(t, err)
	require.Empty(t, proof)
}

func TestGetProofFirstMatch(t *testing.T) {
	dup := leaf(7)
	tr, err := New([]common.Hash{leaf(0), dup, leaf(2), dup}, common.Hash{}, 20)
	require.NoError(t, err)
	_, index, err := tr.GetProof(dup)
	require.NoError(t, err)
	require.Equal(t, uint64(1), index)
}

func TestErrors(t *testing.T) {
	_, err := New(nil, common.Hash{}, 20)
	require.ErrorIs(t, err, ErrEmptyTree)

	leaves := make([]common.Hash, 5)
	_, err = New(leaves, common.Hash{}, 2)
	require.ErrorIs(t, err, ErrDepthTooLarge)
	require.ErrorIs(t, err, posexitcommon.ErrUnverifiable)

	tr, err := New([]common.Hash{leaf(0), leaf(1)}, common.Hash{}, 20)
	require.NoError(t, err)
	_, _, err = tr.GetProof(leaf(9))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = tr.GetProofByIndex(2)
	require.ErrorIs(t, err, posexitcommon.ErrInvalidRange)
}

func TestNextLayerCarriesOddNode(t *testing.T) {
	a, b, c := leaf(0), leaf(1), leaf(2)
	require.Equal(t, []common.Hash{HashPair(a, b), c}, nextLayer([]common.Hash{a, b, c}))
}

func TestDepth(t *testing.T) {
	cases := map[uint64]int{0: 0, 1: 0, 2: 1, 3: 2, 4: 2, 5: 3, 1024: 10, 1025: 11, 1280: 11}
	for n, expected := range cases {
		require.Equal(t, expected, Depth(n), "n=%d", n)
	}
}

func TestZeroHashes(t *testing.T) {
	zero := common.Hash{}
	z := NewZeroHashes(zero)
	require.Equal(t, zero, z.At(0))
	require.Equal(t, HashPair(HashPair(zero, zero), HashPair(zero, zero)), z.At(2))

	tr, err := New(make([]common.Hash, 8), zero, 20)
	require.NoError(t, err)
	require.Equal(t, tr.Root(), z.At(3))
}

// Proof of block 9826737 in the checkpoint covering 9825948-9827227
func TestVerifyCheckpointProof(t *testing.T) {
	proof := Proof{
		common.HexToHash("0x14046d76d94acb7992a93b43a65788933768592359caf291075d37ea1e549426"),
		common.HexToHash("0x0efdbe476e4b7d8f12df0967931aa275263e9531f8d6fceff02c24aa844aee96"),
		common.HexToHash("0xc25d84c552e1a1b8b838374e40d9533470d8bf002b323fb23d119a8041760cdf"),
		common.HexToHash("0x724f9ec00b4391c653cca4716968369a38943c2693cf6a2e4cd34e5c05076a84"),
		common.HexToHash("0x9a0e617cc531ccea5b553278012d38bcd06a26d348ff225a9b35881a8a259ca1"),
		common.HexToHash("0x7903042c6db3d844c8701c7e3e157e80f39cc0e99f9f708e68525967ad4e0cec"),
		common.HexToHash("0x00e647772259b03658af971731d1fcb0625a1942e86e588fec22a3b550f1103b"),
		common.HexToHash("0x3f11232266d70784b85458a83d057b6a464c03bbc601a2958cd1c68e23dbea5e"),
		common.HexToHash("0x6f1f7c6be8896fd3bf963f5ef8335b6d7f544d5867c752903a55b2ed82fffca1"),
		common.HexToHash("0xaa75d96e223e0084743720e4727509c181fae3af79ea1be55e6eb44f380e93bc"),
		common.HexToHash("0xbabd0abc92fcd683a75a2d7d525c7222359dc36d7d1ce436258c4e5655d6c10c"),
	}
	headerLeaf := common.HexToHash("0xe6d4288a207af092ab8f382605dcd138598f0061d5fa0d8601ae089d75c3105e")
	root := common.HexToHash("0xe459e9f7439f54989ee693ba93802793c02880a824979d476544378d3f66d174")

	require.True(t, Verify(headerLeaf, 9826737-9825948, root, proof))
	require.False(t, Verify(headerLeaf, 9826737-9825948+1, root, proof))
}
