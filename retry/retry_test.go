package retry

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
)

// newTestRetryer returns a retryer whose sleeps return immediately.
func newTestRetryer(maxRetries int) *Retryer {
	r := New(maxRetries, time.Millisecond, logger.NopLogger)
	r.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return r
}

func TestExecuteRetriesTransient(t *testing.T) {
	r := newTestRetryer(3)
	attempts := 0
	err := r.Execute(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New(errors.ErrTransient, "busy")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestExecuteAttemptCeiling(t *testing.T) {
	r := newTestRetryer(3)
	attempts := 0
	err := r.Execute(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return errors.New(errors.ErrTransient, "busy")
	})
	require.Error(t, err)
	require.Equal(t, 4, attempts)
	require.True(t, errors.Is(err, errors.ErrTransient))
}

func TestExecuteDoesNotRetryPermanent(t *testing.T) {
	r := newTestRetryer(3)
	attempts := 0
	err := r.Execute(context.Background(), "op", func(ctx context.Context) error {
		attempts++
		return errors.New(errors.ErrBadRequest, "schema mismatch")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestExecuteSurfacesLastError(t *testing.T) {
	r := newTestRetryer(1)
	err := r.Execute(context.Background(), "op", func(ctx context.Context) error {
		return errors.New(errors.ErrTransient, "the real problem")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "the real problem")
}

func TestExecuteStopsOnCancel(t *testing.T) {
	r := New(5, time.Millisecond, logger.NopLogger)
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := r.Execute(ctx, "op", func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New(errors.ErrTransient, "busy")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", errors.New(errors.ErrTransient, "503"), true},
		{"tokenExpired", errors.New(errors.ErrTokenExpired, "401 mid-run"), true},
		{"wrappedTransient", errors.Wrap(errors.New(errors.ErrTransient, "503"), "uploading"), true},
		{"badRequest", errors.New(errors.ErrBadRequest, "400"), false},
		{"unauthorized", errors.New(errors.ErrUnauthorized, "403"), false},
		{"notFound", errors.New(errors.ErrNotFound, "404"), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"dns", &net.DNSError{Err: "no such host", IsNotFound: true}, true},
		{"opErr", &net.OpError{Op: "read", Err: errors.Errorf("reset")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestBackoffGrowsWithJitter(t *testing.T) {
	r := New(5, 100*time.Millisecond, logger.NopLogger)
	for attempt := 0; attempt < 4; attempt++ {
		base := 100 * time.Millisecond * (1 << uint(attempt))
		for i := 0; i < 20; i++ {
			d := r.backoff(attempt)
			require.GreaterOrEqual(t, d, time.Duration(float64(base)*0.75))
			require.LessOrEqual(t, d, time.Duration(float64(base)*1.25))
		}
	}
}
