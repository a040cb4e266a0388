package receipt

import "context"

type writerKey struct{}

// WithWriter carries the invocation's receipt writer in the context so
// command code never holds it directly.
func WithWriter(ctx context.Context, w Writer) context.Context {
	return context.WithValue(ctx, writerKey{}, w)
}

// From returns the context's receipt writer, or nil when receipts are
// disabled for this invocation.
func From(ctx context.Context) Writer {
	w, _ := ctx.Value(writerKey{}).(Writer)
	return w
}
