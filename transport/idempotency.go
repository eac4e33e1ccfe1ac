package transport

import "context"

type contextKey string

const idempotencyKey contextKey = "idempotencyKey"

// WithIdempotencyKey attaches an idempotency key to ctx; the transport sends
// it as the Idempotency-Key header on every request under that context, so a
// re-executed write is deduplicated server-side.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey, key)
}

// IdempotencyKeyFromContext retrieves the key, empty when unset.
func IdempotencyKeyFromContext(ctx context.Context) string {
	val, _ := ctx.Value(idempotencyKey).(string)
	return val
}
