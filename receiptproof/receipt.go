package receiptproof

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	receiptStatusFailedRLP     = []byte{}
	receiptStatusSuccessfulRLP = []byte{0x01}
)

// consensusReceipt is the consensus encoding of a receipt, the value stored
// in the receipts trie and proven on the root chain
type consensusReceipt struct {
	PostStateOrStatus []byte
	CumulativeGasUsed uint64
	Bloom             types.Bloom
	Logs              []*consensusLog
}

type consensusLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

func newConsensusReceipt(r *types.Receipt) *consensusReceipt {
	enc := &consensusReceipt{
		PostStateOrStatus: statusEncoding(r),
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              make([]*consensusLog, len(r.Logs)),
	}
	for i, l := range r.Logs {
		enc.Logs[i] = &consensusLog{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return enc
}

func statusEncoding(r *types.Receipt) []byte {
	if len(r.PostState) > 0 {
		return r.PostState
	}
	if r.Status == types.ReceiptStatusFailed {
		return receiptStatusFailedRLP
	}
	return receiptStatusSuccessfulRLP
}

// EncodeReceipt returns the consensus encoding of a receipt: the RLP list
// [status or post state, cumulative gas, bloom, logs] prefixed by the type
// byte for typed receipts
func EncodeReceipt(r *types.Receipt) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(newConsensusReceipt(r))
	if err != nil {
		return nil, fmt.Errorf("encoding receipt of %s: %w", r.TxHash, err)
	}
	if r.Type == types.LegacyTxType {
		return payload, nil
	}
	return append([]byte{r.Type}, payload...), nil
}

// DecodeReceipt parses a consensus encoded receipt. Only consensus fields are filled
func DecodeReceipt(data []byte) (*types.Receipt, error) {
	if len(data) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	r := &types.Receipt{Type: types.LegacyTxType}
	// legacy receipts are RLP lists, typed ones start with the type byte
	if data[0] <= 0x7f {
		r.Type = data[0]
		data = data[1:]
	}
	var dec consensusReceipt
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, fmt.Errorf("decoding receipt: %w", err)
	}
	switch {
	case len(dec.PostStateOrStatus) == len(common.Hash{}):
		r.PostState = dec.PostStateOrStatus
	case len(dec.PostStateOrStatus) == 1 && dec.PostStateOrStatus[0] == 1:
		r.Status = types.ReceiptStatusSuccessful
	case len(dec.PostStateOrStatus) == 0:
		r.Status = types.ReceiptStatusFailed
	default:
		return nil, fmt.Errorf("invalid receipt status %x", dec.PostStateOrStatus)
	}
	r.CumulativeGasUsed = dec.CumulativeGasUsed
	r.Bloom = dec.Bloom
	r.Logs = make([]*types.Log, len(dec.Logs))
	for i, l := range dec.Logs {
		r.Logs[i] = &types.Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return r, nil
}
