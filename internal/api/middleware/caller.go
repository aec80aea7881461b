package middleware

import "context"

const callerHolderKey contextKey = "caller_holder"

// callerHolder lets the outer logging middleware see who the inner auth middleware authenticated.
type callerHolder struct {
	userID int64
	role   string
}

func withCallerHolder(ctx context.Context, h *callerHolder) context.Context {
	return context.WithValue(ctx, callerHolderKey, h)
}

func recordCaller(ctx context.Context, userID int64, role string) {
	if h, ok := ctx.Value(callerHolderKey).(*callerHolder); ok && h != nil {
		h.userID = userID
		h.role = role
	}
}
