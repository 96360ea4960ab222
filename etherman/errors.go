package etherman

import (
	"context"
	"errors"
	"fmt"

	posexitcommon "github.com/0xPolygon/posexit/common"
	"github.com/ethereum/go-ethereum"
)

// wrapErr classifies a node error: missing objects become ErrNotFound, anything
// else but a cancelled context becomes ErrUpstreamUnavailable
func wrapErr(method string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ethereum.NotFound):
		return fmt.Errorf("%s: %w", method, posexitcommon.ErrNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", method, err)
	default:
		return fmt.Errorf("%s: %w: %w", method, posexitcommon.ErrUpstreamUnavailable, err)
	}
}
