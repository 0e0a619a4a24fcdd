package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_TransientKindsRetry(t *testing.T) {
	t.Parallel()
	p := NewExponentialRetryPolicy(3, time.Millisecond, 10*time.Millisecond)

	cases := []struct {
		name string
		err  *FetchError
		want bool
	}{
		{"timeout", &FetchError{Kind: FetchTimeout, Err: context.DeadlineExceeded}, true},
		{"connection", &FetchError{Kind: FetchConnection, Err: errors.New("refused")}, true},
		{"rate limited", &FetchError{Kind: FetchHTTPStatus, StatusCode: 429}, true},
		{"server error", &FetchError{Kind: FetchHTTPStatus, StatusCode: 503}, true},
		{"not found", &FetchError{Kind: FetchHTTPStatus, StatusCode: 404}, false},
		{"forbidden", &FetchError{Kind: FetchHTTPStatus, StatusCode: 403}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, p.ShouldRetry(tc.err, 1))
		})
	}
}

func TestRetryPolicy_AttemptBudget(t *testing.T) {
	t.Parallel()
	p := NewExponentialRetryPolicy(3, time.Millisecond, 10*time.Millisecond)
	err := &FetchError{Kind: FetchTimeout, Err: errors.New("slow")}

	require.True(t, p.ShouldRetry(err, 1))
	require.True(t, p.ShouldRetry(err, 2))
	require.False(t, p.ShouldRetry(err, 3))
	require.False(t, p.ShouldRetry(nil, 1))
}

func TestRetryPolicy_NonFetchErrorsNeverRetry(t *testing.T) {
	t.Parallel()
	p := NewExponentialRetryPolicy(3, time.Millisecond, 10*time.Millisecond)
	require.False(t, p.ShouldRetry(errors.New("opaque"), 1))
}

func TestRetryPolicy_BackoffBounded(t *testing.T) {
	t.Parallel()
	p := NewExponentialRetryPolicy(5, 100*time.Millisecond, time.Second)
	for attempt := 0; attempt < 8; attempt++ {
		b := p.Backoff(attempt)
		require.GreaterOrEqual(t, b, time.Duration(0))
		require.LessOrEqual(t, b, time.Second)
	}
}

func TestRetryPolicy_Defaults(t *testing.T) {
	t.Parallel()
	p := NewExponentialRetryPolicy(0, 0, 0)
	require.Equal(t, 3, p.MaxAttempts())
}
