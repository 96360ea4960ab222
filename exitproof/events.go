package exitproof

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventKind is a burn event understood by the predicates of the root chain
type EventKind uint8

const (
	// EventCustom matches any log whose topic 0 is the given signature
	EventCustom EventKind = iota
	EventERC20Transfer
	EventERC721Transfer
	EventERC1155TransferSingle
	EventERC1155TransferBatch
	EventSendMessage
)

var (
	// Transfer(address,address,uint256), shared by ERC20 and ERC721
	TransferSignature = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")
	// TransferSingle(address,address,address,uint256,uint256)
	TransferSingleSignature = common.HexToHash("0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62")
	// TransferBatch(address,address,address,uint256[],uint256[])
	TransferBatchSignature = common.HexToHash("0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb")
	// MessageSent(bytes)
	SendMessageSignature = common.HexToHash("0x8c5261668696ce22758910d05bab8f186d6eb247ceac2af2e82c7dc17669b036")
)

var eventKindNames = map[EventKind]string{
	EventCustom:                "custom",
	EventERC20Transfer:         "erc20",
	EventERC721Transfer:        "erc721",
	EventERC1155TransferSingle: "erc1155-single",
	EventERC1155TransferBatch:  "erc1155-batch",
	EventSendMessage:           "message",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// BurnEvent selects the log of a receipt that is exited
type BurnEvent struct {
	Kind      EventKind
	Signature common.Hash
}

// NewBurnEvent returns the event of a known kind
func NewBurnEvent(kind EventKind) (BurnEvent, error) {
	switch kind {
	case EventERC20Transfer, EventERC721Transfer:
		return BurnEvent{Kind: kind, Signature: TransferSignature}, nil
	case EventERC1155TransferSingle:
		return BurnEvent{Kind: kind, Signature: TransferSingleSignature}, nil
	case EventERC1155TransferBatch:
		return BurnEvent{Kind: kind, Signature: TransferBatchSignature}, nil
	case EventSendMessage:
		return BurnEvent{Kind: kind, Signature: SendMessageSignature}, nil
	default:
		return BurnEvent{}, fmt.Errorf("%s needs an explicit signature", kind)
	}
}

// BurnEventFromSignature maps a topic 0 to its known kind. Transfer is taken
// as an ERC20 transfer, both kinds share the burn rule
func BurnEventFromSignature(sig common.Hash) BurnEvent {
	switch sig {
	case TransferSignature:
		return BurnEvent{Kind: EventERC20Transfer, Signature: sig}
	case TransferSingleSignature:
		return BurnEvent{Kind: EventERC1155TransferSingle, Signature: sig}
	case TransferBatchSignature:
		return BurnEvent{Kind: EventERC1155TransferBatch, Signature: sig}
	case SendMessageSignature:
		return BurnEvent{Kind: EventSendMessage, Signature: sig}
	default:
		return BurnEvent{Kind: EventCustom, Signature: sig}
	}
}

// ParseBurnEvent accepts a kind name (erc20, erc721, erc1155-single,
// erc1155-batch, message) or a 32 byte hex signature
func ParseBurnEvent(s string) (BurnEvent, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range eventKindNames {
		if name == s && kind != EventCustom {
			return NewBurnEvent(kind)
		}
	}
	b := common.FromHex(s)
	if len(b) != common.HashLength {
		return BurnEvent{}, fmt.Errorf("unknown burn event %q", s)
	}
	return BurnEventFromSignature(common.BytesToHash(b)), nil
}

func (e BurnEvent) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.Signature)
}

// IsBurn tells whether l is a burn of this event: a transfer to the zero
// address, or any log with the signature for messages and custom events
func (e BurnEvent) IsBurn(l *types.Log) bool {
	if len(l.Topics) == 0 || l.Topics[0] != e.Signature {
		return false
	}
	switch e.Kind {
	case EventERC20Transfer, EventERC721Transfer:
		// Transfer(from, to, ...)
		return len(l.Topics) > 2 && l.Topics[2] == (common.Hash{})
	case EventERC1155TransferSingle, EventERC1155TransferBatch:
		// TransferSingle/Batch(operator, from, to, ...)
		return len(l.Topics) > 3 && l.Topics[3] == (common.Hash{})
	default:
		return true
	}
}

// LogIndex returns the position in the receipt logs of the occurrence-th
// (zero based) burn log of event
func LogIndex(receipt *types.Receipt, event BurnEvent, occurrence uint) (uint64, error) {
	var seen uint
	for i, l := range receipt.Logs {
		if !event.IsBurn(l) {
			continue
		}
		if seen == occurrence {
			return uint64(i), nil
		}
		seen++
	}
	return 0, fmt.Errorf("%s occurrence %d in tx %s (%d matches): %w",
		event, occurrence, receipt.TxHash, seen, ErrLogNotFound)
}
