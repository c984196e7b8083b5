package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	// CtxRunID identifies the follow-up payment run a call belongs to
	CtxRunID ContextKey = "ctx_run_id"
)

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(CtxRunID).(string); ok {
		return runID
	}
	return ""
}

// SetRunID sets the follow-up run ID in the context
func SetRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, CtxRunID, runID)
}
