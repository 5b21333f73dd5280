package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// tempErr reports itself as temporary or not.
type tempErr struct {
	temp bool
}

func (e tempErr) Error() string   { return fmt.Sprintf("temp=%v", e.temp) }
func (e tempErr) Temporary() bool { return e.temp }

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		expected string
	}{
		{CategoryTransient, "transient"},
		{CategoryPermanent, "permanent"},
		{Category(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.category.String(); got != tt.expected {
				t.Errorf("Category(%d).String() = %s, want %s", tt.category, got, tt.expected)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil error", nil, CategoryPermanent},
		{"temporary", tempErr{temp: true}, CategoryTransient},
		{"not temporary", tempErr{temp: false}, CategoryPermanent},
		{"wrapped temporary", fmt.Errorf("begin window: %w", tempErr{temp: true}), CategoryTransient},
		{"deadline", context.DeadlineExceeded, CategoryTransient},
		{"cancelled", context.Canceled, CategoryPermanent},
		{"categorized", &CategorizedError{Err: errors.New("x"), Category: CategoryTransient}, CategoryTransient},
		{"unknown", errors.New("unknown"), CategoryPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.err); got != tt.expected {
				t.Errorf("Categorize() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCategorizedError(t *testing.T) {
	t.Run("error message with context", func(t *testing.T) {
		err := NewCategorized(errors.New("failed"), CategoryTransient, "tag begin")
		expected := "tag begin: failed (category: transient, attempts: 0)"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %q, want %q", got, expected)
		}
	})

	t.Run("error message without context", func(t *testing.T) {
		err := Permanent(errors.New("failed"), "")
		expected := "failed (category: permanent, attempts: 0)"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %q, want %q", got, expected)
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		inner := errors.New("inner")
		err := Transient(inner, "ctx")
		if !errors.Is(err, inner) {
			t.Error("errors.Is should find the wrapped error")
		}
	})
}

func TestWithRetry_SucceedsAfterTransient(t *testing.T) {
	cfg := NewRetryConfig(WithInitialBackoff(time.Millisecond), WithJitter(0))

	calls := 0
	result := WithRetry(cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, tempErr{temp: true}
		}
		return 42, nil
	})

	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Value != 42 {
		t.Errorf("Value = %d, want 42", result.Value)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestWithRetry_StopsOnPermanent(t *testing.T) {
	cfg := NewRetryConfig(WithInitialBackoff(time.Millisecond))

	calls := 0
	result := WithRetry(cfg, func() (int, error) {
		calls++
		return 0, errors.New("permanent")
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if Categorize(result.Err) != CategoryPermanent {
		t.Errorf("category = %s, want permanent", Categorize(result.Err))
	}
}

func TestWithRetry_Exhausted(t *testing.T) {
	cfg := NewRetryConfig(WithMaxAttempts(2), WithInitialBackoff(time.Millisecond), WithJitter(0))

	result := WithRetry(cfg, func() (struct{}, error) {
		return struct{}{}, tempErr{temp: true}
	})

	if result.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", result.Attempts)
	}
	var catErr *CategorizedError
	if !errors.As(result.Err, &catErr) {
		t.Fatalf("expected CategorizedError, got %T", result.Err)
	}
	if catErr.Context != "max retries exceeded" {
		t.Errorf("Context = %q", catErr.Context)
	}
}

func TestWithRetry_NoRetryClampsAttempts(t *testing.T) {
	calls := 0
	result := WithRetry(RetryConfig{}, func() (int, error) {
		calls++
		return 0, tempErr{temp: true}
	})

	if calls != 1 || result.Attempts != 1 {
		t.Errorf("calls = %d, attempts = %d, want 1 and 1", calls, result.Attempts)
	}
}

func TestWithRetryContext_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	result := WithRetryContext(ctx, DefaultRetry, func(context.Context) (int, error) {
		calls++
		return 0, nil
	})

	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", result.Err)
	}
}

func TestWithRetryContext_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := NewRetryConfig(WithInitialBackoff(time.Hour), WithJitter(0))

	result := WithRetryContext(ctx, cfg, func(context.Context) (int, error) {
		cancel()
		return 0, tempErr{temp: true}
	})

	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", result.Err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	if got := calculateBackoff(base, 0); got != base {
		t.Errorf("no jitter: got %v, want %v", got, base)
	}
	for i := 0; i < 100; i++ {
		got := calculateBackoff(base, 0.5)
		if got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("jitter out of range: %v", got)
		}
	}
}
