package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/raphaelgruber/procwise/internal/metrics"
)

// DefaultSourceTimeout bounds each knowledge, cache and research call.
const DefaultSourceTimeout = 5 * time.Second

type sourceResult[T any] struct {
	items []T
	err   error
}

// callSource runs fn with its own timeout. A slow source cannot hold the
// caller past the deadline even if fn ignores its context.
func callSource[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) ([]T, error)) ([]T, error) {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan sourceResult[T], 1)
	go func() {
		items, err := fn(ctx)
		ch <- sourceResult[T]{items: items, err: err}
	}()

	select {
	case r := <-ch:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// bestEffort calls a source and turns any failure into an empty
// contribution plus a warning.
func bestEffort[T any](
	ctx context.Context,
	logger *slog.Logger,
	collector *metrics.Collector,
	op, source string,
	timeout time.Duration,
	fn func(context.Context) ([]T, error),
) []T {
	start := time.Now()
	items, err := callSource(ctx, timeout, fn)
	collector.RecordOutcome(op, time.Since(start), err)
	if err != nil {
		logger.Warn("source failed, continuing without it", "source", source, "error", err)
		return nil
	}
	return items
}
