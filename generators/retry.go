package generators

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/reusee/taicell/logs"
)

var ErrRetryable = errors.New("retryable")

var (
	maxRetries   = 6
	retryBackoff = 1 * time.Second
)

func doWithRetry[T any](
	ctx context.Context,
	logger logs.Logger,
	fn func() (T, error),
) (ret T, err error) {
	backoff := retryBackoff

	for i := range maxRetries {
		ret, err = fn()
		if err == nil {
			return
		}
		if errors.Is(err, ErrRetryable) {
			logger.WarnContext(ctx, "retry",
				"attempt", i+1, "error", err,
			)
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			case <-time.After(backoff * time.Duration(1<<i)):
			}
			continue
		}
		return ret, err
	}

	return
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}
