package contracts

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ContractBase binds an ABI to an address for read-only calls and log decoding
type ContractBase struct {
	abi          abi.ABI
	contractBind *bind.BoundContract
	address      common.Address
	contractName NameType
}

func NewContractBase(abiJSON string, address common.Address, backend bind.ContractBackend,
	name NameType) (*ContractBase, error) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing %s abi: %w", name, err)
	}
	return &ContractBase{
		abi:          parsed,
		contractBind: bind.NewBoundContract(address, parsed, backend, backend, backend),
		address:      address,
		contractName: name,
	}, nil
}

func (e *ContractBase) GetAddress() common.Address {
	return e.address
}

func (e *ContractBase) GetName() string {
	return string(e.contractName)
}

func (e *ContractBase) GetABI() abi.ABI {
	return e.abi
}

func (e *ContractBase) String() string {
	return e.GetName() + "@" + e.address.String()
}

func (e *ContractBase) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := e.contractBind.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s.%s: %w", e.contractName, method, err)
	}
	return out, nil
}

func (e *ContractBase) unpackLog(out interface{}, event string, l types.Log) error {
	if err := e.contractBind.UnpackLog(out, event, l); err != nil {
		return fmt.Errorf("%s: unpacking %s log: %w", e.contractName, event, err)
	}
	return nil
}
