package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryDo_SucceedsWithoutRetry(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	got, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("RetryDo() = (%q, %v), want (ok, nil)", got, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryDo_RetriesOnRetryableHTTPError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	got, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &HTTPError{Status: 503, Body: "unavailable"}
		}
		return "recovered", nil
	})
	if err != nil || got != "recovered" {
		t.Fatalf("RetryDo() = (%q, %v), want (recovered, nil)", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryDo_DoesNotRetryNonRetryableHTTPError(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 400, Body: "bad request"}
	})
	if err == nil {
		t.Fatal("expected an error for a non-retryable 400")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry for a non-retryable status)", calls)
	}
}

func TestRetryDo_StopsAfterMaxRetries(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	calls := 0
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 500, Body: "fail"}
	})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 { // initial + 2 retries
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryDo_HonorsRetryAfterOverBackoff(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 1, BaseDelay: time.Hour, MaxDelay: time.Hour}
	calls := 0
	start := time.Now()
	_, err := RetryDo(context.Background(), cfg, func() (string, error) {
		calls++
		if calls == 1 {
			return "", &HTTPError{Status: 429, Body: "rate limited", RetryAfter: 5 * time.Millisecond}
		}
		return "ok", nil
	})
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("RetryDo: %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("elapsed = %v, want the RetryAfter hint (5ms) honored instead of the 1h backoff", elapsed)
	}
}

func TestRetryDo_AbortsOnContextCancellation(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryDo(ctx, cfg, func() (string, error) {
		calls++
		return "", &HTTPError{Status: 500, Body: "fail"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0 (cancellation checked before first attempt)", calls)
	}
}
