package db

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/russross/meddler"
)

// init registers tags to be used to read/write from SQL DBs using meddler
func init() {
	meddler.Default = meddler.SQLite
	meddler.Register("bigint", textMeddler{name: "bigint", decode: decodeBigInt, encode: encodeBigInt})
	meddler.Register("hash", textMeddler{name: "hash", decode: decodeHash, encode: encodeHash})
	meddler.Register("address", textMeddler{name: "address", decode: decodeAddress, encode: encodeAddress})
}

// textMeddler stores a field as a string column. decode receives a pointer to
// the field, encode the field itself
type textMeddler struct {
	name   string
	decode func(s string, fieldPtr interface{}) error
	encode func(field interface{}) (string, error)
}

func (m textMeddler) PreRead(interface{}) (interface{}, error) {
	return new(string), nil
}

func (m textMeddler) PostRead(fieldPtr, scanTarget interface{}) error {
	s, ok := scanTarget.(*string)
	if !ok || s == nil {
		return fmt.Errorf("%s meddler: scan target is not *string", m.name)
	}
	if err := m.decode(*s, fieldPtr); err != nil {
		return fmt.Errorf("%s meddler: %w", m.name, err)
	}
	return nil
}

func (m textMeddler) PreWrite(field interface{}) (interface{}, error) {
	s, err := m.encode(field)
	if err != nil {
		return nil, fmt.Errorf("%s meddler: %w", m.name, err)
	}
	return s, nil
}

// big.Int as decimal, nil is written as 0
func decodeBigInt(s string, fieldPtr interface{}) error {
	field, ok := fieldPtr.(**big.Int)
	if !ok {
		return errors.New("field is not *big.Int")
	}
	v, ok := new(big.Int).SetString(s, 10) //nolint:mnd
	if !ok {
		return fmt.Errorf("%q is not a decimal integer", s)
	}
	*field = v
	return nil
}

func encodeBigInt(field interface{}) (string, error) {
	v, ok := field.(*big.Int)
	if !ok {
		return "", errors.New("field is not *big.Int")
	}
	if v == nil {
		return "0", nil
	}
	return v.String(), nil
}

func decodeHash(s string, fieldPtr interface{}) error {
	field, ok := fieldPtr.(*common.Hash)
	if !ok {
		return errors.New("field is not common.Hash")
	}
	*field = common.HexToHash(s)
	return nil
}

func encodeHash(field interface{}) (string, error) {
	v, ok := field.(common.Hash)
	if !ok {
		return "", errors.New("field is not common.Hash")
	}
	return v.Hex(), nil
}

func decodeAddress(s string, fieldPtr interface{}) error {
	field, ok := fieldPtr.(*common.Address)
	if !ok {
		return errors.New("field is not common.Address")
	}
	*field = common.HexToAddress(s)
	return nil
}

func encodeAddress(field interface{}) (string, error) {
	v, ok := field.(common.Address)
	if !ok {
		return "", errors.New("field is not common.Address")
	}
	return v.Hex(), nil
}
