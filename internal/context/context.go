package context

import (
	"context"
	"fmt"
)

type userIDKey struct{}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey{}).(int64)
	return userID, ok
}

func MustUserIDFromContext(ctx context.Context) int64 {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		panic(fmt.Sprintf("user id not found in context %v", ctx))
	}
	return userID
}
