package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	strategyKey  contextKey = "strategy"
)

// WithRequestID annotates context with the run identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the run identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStrategy annotates context with the conversion strategy (remote/local).
func WithStrategy(ctx context.Context, strategy string) context.Context {
	if strategy == "" {
		return ctx
	}
	return context.WithValue(ctx, strategyKey, strategy)
}

// StrategyFromContext returns the conversion strategy if present.
func StrategyFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(strategyKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
