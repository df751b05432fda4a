// Package groutine starts goroutines labelled for pprof, so backend workers
// (inquiries, service queries, name requests) are identifiable in profiles and dumps.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey struct{}

const labelKey = "btfind_worker"

// Go runs fn on a new goroutine labelled with name.
// If parentCtx is nil, context.Background() is used.
func Go(parentCtx context.Context, name string, fn func(ctx context.Context)) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	labels := pprof.Labels(labelKey, name)

	go pprof.Do(parentCtx, labels, func(ctx context.Context) {
		fn(context.WithValue(ctx, ctxKey{}, name))
	})
}

// Name returns the worker name stored by Go, or "".
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}
