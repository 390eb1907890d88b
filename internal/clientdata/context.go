package clientdata

import "context"

type ctxKey int

const skipCacheKey ctxKey = iota

// WithSkipCache marks the context so cache-first clients bypass fresh
// cache reads for this request. Responses are still written back, so a
// forced refresh repopulates the cache for later callers.
func WithSkipCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipCacheKey, true)
}

// SkipCache reports whether the context requests a cache bypass.
func SkipCache(ctx context.Context) bool {
	v, _ := ctx.Value(skipCacheKey).(bool)
	return v
}
