package sync

import (
	"context"
	"time"

	"github.com/0xPolygon/posexit/log"
)

// RetryHandler sleeps between attempts of an operation and gives up (fatal)
// once MaxRetryAttemptsAfterError is reached. A negative max means retry forever
type RetryHandler struct {
	RetryAfterErrorPeriod      time.Duration
	MaxRetryAttemptsAfterError int
}

func (h *RetryHandler) Handle(funcName string, attempts int) {
	if h.MaxRetryAttemptsAfterError > -1 && attempts >= h.MaxRetryAttemptsAfterError {
		log.Fatalf(
			"%s failed too many times (%d)",
			funcName, h.MaxRetryAttemptsAfterError,
		)
	}
	time.Sleep(h.RetryAfterErrorPeriod)
}

// Do calls fn until it succeeds. It returns false if ctx is done first
func (h *RetryHandler) Do(ctx context.Context, logger *log.Logger, funcName string, fn func() error) bool {
	for attempts := 1; ; attempts++ {
		err := fn()
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		logger.Errorf("%s (attempt %d): %v", funcName, attempts, err)
		h.Handle(funcName, attempts)
	}
}
