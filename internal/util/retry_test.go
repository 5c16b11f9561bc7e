package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetryStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, ConstantPolicy(0), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestRetryReturnsFirstSuccess(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), 5, ConstantPolicy(0), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Fatalf("got=%q calls=%d", got, calls)
	}
}

func TestRetryPermanentErrorIsNotRetried(t *testing.T) {
	sentinel := errors.New("not found")
	calls := 0
	_, err := Retry(context.Background(), 4, ConstantPolicy(0), func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(sentinel)
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, _ = Retry(context.Background(), 0, nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("x")
	})
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestStageErrorMatchesStageAndCause(t *testing.T) {
	cause := errors.New("duplicate key value")
	err := error(NewStageError(ErrQuestionLinkFailed, cause))

	if !errors.Is(err, ErrQuestionLinkFailed) {
		t.Fatal("expected stage sentinel to match")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to match")
	}
	if err.Error() != "question link failed: duplicate key value" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
