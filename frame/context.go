package frame

import "context"

type ctxKey struct{}

// With returns a context carrying f as the current frame.
func With(ctx context.Context, f *Frame) context.Context {
	return context.WithValue(ctx, ctxKey{}, f)
}

// From returns the frame bound to ctx, or nil if none is bound (calling
// a fork/join primitive outside a running frame is a contract
// violation; callers check for nil and raise via rlog.Fatal).
func From(ctx context.Context) *Frame {
	f, _ := ctx.Value(ctxKey{}).(*Frame)
	return f
}
