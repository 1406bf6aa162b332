package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSetRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, KeyTableID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyTableID, "t-1"))
	require.NoError(t, s.Set(ctx, KeyTableNumber, "7"))

	v, err := s.Get(ctx, KeyTableID)
	require.NoError(t, err)
	assert.Equal(t, "t-1", v)

	require.NoError(t, s.Remove(ctx, KeyTableID, KeyTableNumber, "missing"))
	assert.Equal(t, 0, s.Keys())
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, ok, err := Lookup(ctx, s, KeyFCMToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyFCMToken, "tok"))
	v, ok, err := Lookup(ctx, s, KeyFCMToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type customer struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	require.NoError(t, SetJSON(ctx, s, KeyCustomer, customer{ID: "c1", Username: "ana"}))

	var got customer
	require.NoError(t, GetJSON(ctx, s, KeyCustomer, &got))
	assert.Equal(t, "ana", got.Username)

	require.NoError(t, s.Set(ctx, KeyCart, "{not json"))
	var broken []int
	require.ErrorContains(t, GetJSON(ctx, s, KeyCart, &broken), "unmarshal cart failed")
}

func TestPrefixed(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s := NewPrefixed(inner, "bistro:")

	require.NoError(t, s.Set(ctx, KeyCart, "[]"))
	v, err := inner.Get(ctx, "bistro:cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	require.NoError(t, s.Remove(ctx, KeyCart))
	_, err = inner.Get(ctx, "bistro:cart")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Same(t, inner, NewPrefixed(inner, ""))
}
