package ft

import (
	"context"

	fterrors "github.com/randalmurphal/ftharness/pkg/ftharness/errors"
)

// RetryingTagger retries Register and BeginWindow on temporary errors.
// EndWindow is attempted once; retrying a close risks closing a later window.
type RetryingTagger struct {
	next Tagger
	cfg  fterrors.RetryConfig
}

// WithRetry wraps next so that temporary failures are retried per cfg.
func WithRetry(next Tagger, cfg fterrors.RetryConfig) *RetryingTagger {
	return &RetryingTagger{next: next, cfg: cfg}
}

// Register implements Tagger.
func (t *RetryingTagger) Register(ctx context.Context, job string, expectedUnits int) error {
	res := fterrors.WithRetryContext(ctx, t.cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.next.Register(ctx, job, expectedUnits)
	})
	return res.Err
}

// BeginWindow implements Tagger.
func (t *RetryingTagger) BeginWindow(ctx context.Context, job string, w Window) (WindowHandle, error) {
	res := fterrors.WithRetryContext(ctx, t.cfg, func(ctx context.Context) (WindowHandle, error) {
		return t.next.BeginWindow(ctx, job, w)
	})
	return res.Value, res.Err
}

// EndWindow implements Tagger.
func (t *RetryingTagger) EndWindow(ctx context.Context, job string) error {
	return t.next.EndWindow(ctx, job)
}
