package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserID(t *testing.T) {
	ctx := context.Background()

	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)
	assert.Panics(t, func() { MustUserIDFromContext(ctx) })

	ctx = WithUserID(ctx, 42)
	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, int64(42), MustUserIDFromContext(ctx))
}
