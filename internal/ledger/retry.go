package ledger

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Bellafqira/HS-Wat-Blockchain/internal/metrics"
	"github.com/Bellafqira/HS-Wat-Blockchain/internal/werrors"
)

// maxAppendAttempts bounds how many times withRetry will retry a failed
// persist before giving up and surfacing LedgerContention.
const maxAppendAttempts = 5

// appendLimiter paces retries of the persist step: one attempt per tick,
// with a small burst allowance for the first couple of tries. A transient
// rename/temp-file failure (another process briefly holding the ledger file,
// a full-but-recovering disk) is exactly the kind of condition a short
// backoff resolves; a permanent one (bad path, permissions) will still
// exhaust all attempts and surface as LedgerContention.
var appendLimiter = rate.NewLimiter(rate.Every(20*time.Millisecond), 2)

// withRetry calls fn up to maxAppendAttempts times, pacing each retry
// through appendLimiter, and wraps the final failure as LedgerContention.
func withRetry(fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		if attempt > 0 {
			metrics.LedgerContentionRetriesTotal.Inc()
			if err := appendLimiter.Wait(context.Background()); err != nil {
				return werrors.Wrap(werrors.LedgerContention, "rate limiter wait", err)
			}
		}
		if err := fn(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return werrors.Wrap(werrors.LedgerContention, "ledger append exhausted retries", lastErr)
}
