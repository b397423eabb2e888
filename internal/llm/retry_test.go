package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

var (
	errDown    = &ErrProviderUnavailable{Err: errors.New("connection reset")}
	errBadPlan = &ErrInvalidResponse{Content: json.RawMessage(`{}`), Err: errors.New("missing steps")}
	okPlan     = MockResponse{Content: json.RawMessage(planJSON)}
)

func TestRetry(t *testing.T) {
	cases := []struct {
		name      string
		attempts  int
		script    []MockResponse
		wantCalls int
		wantErr   any
	}{
		{"first try", 3, []MockResponse{okPlan}, 1, nil},
		{"outage then success", 3, []MockResponse{{Err: errDown}, {Err: errDown}, okPlan}, 3, nil},
		{"outage outlasts attempts", 2, []MockResponse{{Err: errDown}, {Err: errDown}, okPlan}, 2, new(*ErrProviderUnavailable)},
		{"bad plan retried once", 4, []MockResponse{{Err: errBadPlan}, {Err: errBadPlan}, okPlan}, 2, new(*ErrInvalidResponse)},
		{"bad plan then good", 3, []MockResponse{{Err: errBadPlan}, okPlan}, 2, nil},
		{"truncation is final", 3, []MockResponse{{Err: &ErrMaxTokensExceeded{}}, okPlan}, 1, new(*ErrMaxTokensExceeded)},
		{"rejection is final", 3, []MockResponse{{Err: &ErrRequestRejected{Status: 401}}, okPlan}, 1, new(*ErrRequestRejected)},
		{"rate limit waits and retries", 3, []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond}}, okPlan}, 2, nil},
		{"zero attempts means one", 0, []MockResponse{{Err: errDown}, okPlan}, 1, new(*ErrProviderUnavailable)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := NewMockProvider(tc.script...)
			p := WithRetry(mock, fastRetry(tc.attempts))

			resp, err := p.Generate(context.Background(), Request{})
			assert.Equal(t, tc.wantCalls, mock.CallCount())
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.JSONEq(t, planJSON, string(resp.Content))
				return
			}
			require.ErrorAs(t, err, tc.wantErr)
		})
	}
}

func TestRetry_StopsWhenCanceled(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: errDown}, okPlan)
	p := WithRetry(mock, RetryConfig{MaxAttempts: 3, InitialWait: time.Hour, Multiplier: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_BackoffCapped(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: time.Second, MaxWait: 2 * time.Second, Multiplier: 10}}
	for attempt := range 4 {
		wait := r.backoff(attempt, errDown)
		assert.LessOrEqual(t, wait, 2400*time.Millisecond)
		assert.GreaterOrEqual(t, wait, 800*time.Millisecond)
	}
	assert.Equal(t, 3*time.Second, r.backoff(0, &ErrRateLimit{RetryAfter: 3 * time.Second}))
	assert.Equal(t, "mock", WithRetry(NewMockProvider(), fastRetry(1)).ModelID())
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "slow" }

func TestWithTimeout(t *testing.T) {
	mock := NewMockProvider()
	assert.Same(t, mock, WithTimeout(mock, 0))

	p := WithTimeout(blockingProvider{}, 5*time.Millisecond)
	assert.Equal(t, "slow", p.ModelID())
	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
