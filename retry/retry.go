// Package retry applies a bounded exponential backoff to remote
// operations. Both the file transfer client and the submission
// orchestrator run every platform call through Execute.
package retry

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
)

// Retryer retries an operation for a closed set of transient conditions.
// The zero value is unusable; use New.
type Retryer struct {
	maxRetries int
	baseDelay  time.Duration
	log        logger.Logger

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(maxRetries int, baseDelay time.Duration, log logger.Logger) *Retryer {
	if log == nil {
		log = logger.NopLogger
	}
	return &Retryer{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		log:        log,
		sleep:      sleepCtx,
	}
}

// Execute runs op, retrying transient failures up to maxRetries times, so
// op is attempted at most maxRetries+1 times. The last error is returned
// to the caller, never swallowed. Cancellation stops retries immediately.
func (r *Retryer) Execute(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err != nil {
				return err
			}
			return cerr
		}
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		if attempt >= r.maxRetries {
			return err
		}
		delay := r.backoff(attempt)
		r.log.Warnf("%s failed with: '%v', retrying %d/%d after %v", name, err, attempt+1, r.maxRetries, delay)
		if serr := r.sleep(ctx, delay); serr != nil {
			return err
		}
	}
}

// backoff is exponential in the attempt number with a multiplicative
// ±25% jitter so concurrent uploads don't retry in lockstep.
func (r *Retryer) backoff(attempt int) time.Duration {
	d := r.baseDelay * (1 << uint(attempt))
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * jitter)
}

// Retryable reports whether err is one of the closed set of transient
// conditions worth retrying. Validation errors, authorization errors and
// cancellation are never retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	cause := errors.Cause(err)
	if cause == context.Canceled || cause == context.DeadlineExceeded {
		return false
	}
	if errors.Transient(err) {
		return true
	}
	if nerr, ok := cause.(net.Error); ok && nerr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
