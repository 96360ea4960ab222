package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/0xPolygon/cdk-rpc/rpc"
	"github.com/0xPolygon/posexit/checkpoint"
	"github.com/0xPolygon/posexit/rpc/types"
	"github.com/ethereum/go-ethereum/common"
)

type ExitProofClientInterface interface {
	BuildPayload(txHash common.Hash, event string, occurrence uint) (*types.ExitPayload, error)
	GetCheckpoint(blockNumber uint64) (*checkpoint.Checkpoint, error)
	IsBlockCheckpointed(blockNumber uint64) (bool, error)
	IsClaimable(txHash common.Hash, event string, occurrence uint) (*types.ClaimStatus, error)
}

func (c *Client) call(result interface{}, method string, parameters ...interface{}) error {
	response, err := rpc.JSONRPCCall(c.url, method, parameters...)
	if err != nil {
		return err
	}
	if response.Error != nil {
		return fmt.Errorf("%v %v", response.Error.Code, response.Error.Message)
	}
	return json.Unmarshal(response.Result, result)
}

func (c *Client) BuildPayload(txHash common.Hash, event string, occurrence uint) (*types.ExitPayload, error) {
	var result types.ExitPayload
	if err := c.call(&result, "exitproof_buildPayload", txHash, event, occurrence); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetCheckpoint(blockNumber uint64) (*checkpoint.Checkpoint, error) {
	var result checkpoint.Checkpoint
	if err := c.call(&result, "exitproof_getCheckpoint", blockNumber); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) IsBlockCheckpointed(blockNumber uint64) (bool, error) {
	var result bool
	return result, c.call(&result, "exitproof_isBlockCheckpointed", blockNumber)
}

func (c *Client) IsClaimable(txHash common.Hash, event string, occurrence uint) (*types.ClaimStatus, error) {
	var result types.ClaimStatus
	if err := c.call(&result, "exitproof_isClaimable", txHash, event, occurrence); err != nil {
		return nil, err
	}
	return &result, nil
}
