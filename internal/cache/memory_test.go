package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetNXAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	ok, err := m.SetNX(ctx, "idem:k", "pending", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetNX(ctx, "idem:k", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, found, err := m.Get(ctx, "idem:k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "pending", v)

	now = now.Add(time.Minute)
	_, found, _ = m.Get(ctx, "idem:k")
	assert.False(t, found)

	ok, _ = m.SetNX(ctx, "idem:k", "again", 0)
	assert.True(t, ok)
	require.NoError(t, m.Delete(ctx, "idem:k", "absent"))
	_, found, _ = m.Get(ctx, "idem:k")
	assert.False(t, found)
}
