package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/Veraticus/safe-harbor/internal/common"
)

// apiError classifies a Sheets API failure for common.WithRetry. Quota
// rejections and server errors are retried, other API errors are permanent,
// and transport failures are retried unless the context ended.
func apiError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return common.Retryable(err)
	}

	switch {
	case gerr.Code == http.StatusTooManyRequests:
		return common.Retryable(fmt.Errorf("%w: %w", common.ErrRateLimit, err))
	case gerr.Code >= http.StatusInternalServerError:
		return common.Retryable(err)
	default:
		return common.Permanent(err)
	}
}
