package llm

import (
	"context"
	"errors"
	"testing"

	"repocast/internal/apierr"
)

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := WithRetry(context.Background(), func(attempt int) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Errorf("got = %q, calls = %d", got, calls)
	}
}

func TestWithRetryStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	permanent := errors.New("bad request")
	_, err := WithRetry(context.Background(), func(attempt int) (string, error) {
		calls++
		return "", permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("err = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on a non-retryable error)", calls)
	}
}

func TestWithRetryRetriesRetryableError(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), func(attempt int) (string, error) {
		calls++
		if calls < 2 {
			return "", &RetryableError{Kind: apierr.KindProviderRateLimited, Err: errors.New("rate limited")}
		}
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithRetryExhaustsAttemptsAndWrapsKind(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), func(attempt int) (string, error) {
		calls++
		return "", &RetryableError{Kind: apierr.KindProviderTimeout, Err: errors.New("timed out")}
	})
	if calls != maxRetries {
		t.Errorf("calls = %d, want %d", calls, maxRetries)
	}
	apiErr, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected an *apierr.Error, got %v", err)
	}
	if apiErr.Kind != apierr.KindProviderTimeout {
		t.Errorf("Kind = %q, want provider_timeout (preserved from the last retryable error)", apiErr.Kind)
	}
}

func TestWithRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := WithRetry(ctx, func(attempt int) (string, error) {
		calls++
		return "", &RetryableError{Kind: apierr.KindProviderTimeout, Err: errors.New("timed out")}
	})
	if err == nil {
		t.Fatal("expected an error when the context is already cancelled")
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0 (cancelled before the first attempt)", calls)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New("not-a-real-provider", "", "", ""); err == nil {
		t.Fatal("expected an error for an unknown provider name")
	}
}

func TestNewClaudeDefaultWhenProviderNameEmpty(t *testing.T) {
	p, err := New("", "anthropic-key", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "claude" {
		t.Errorf("Name() = %q, want claude as the default provider", p.Name())
	}
}

func TestNewGeminiDispatch(t *testing.T) {
	p, err := New("gemini", "", "gemini-key", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "gemini" {
		t.Errorf("Name() = %q, want gemini", p.Name())
	}
}
