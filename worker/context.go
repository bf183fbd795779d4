package worker

import "context"

type ctxKey struct{}

// With returns a context carrying w as the current worker.
func With(ctx context.Context, w *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, w)
}

// From returns the worker context bound to ctx, or nil if none is bound.
func From(ctx context.Context) *Context {
	w, _ := ctx.Value(ctxKey{}).(*Context)
	return w
}
