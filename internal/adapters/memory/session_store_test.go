package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomobs/tom-portal/internal/ports"
	"github.com/tomobs/tom-portal/internal/testutil"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	store := NewSessionStore(clock.Now)
	ctx := context.Background()

	sess := testutil.NewSession().WithExpiresAt(clock.Now().Add(time.Hour)).Build()
	require.NoError(t, store.Save(ctx, sess))

	sess.Credentials.AccessToken = "next"
	require.NoError(t, store.Update(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "next", got.Credentials.AccessToken)

	clock.AddTime(time.Hour)
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestSessionStore_UpdateMissing(t *testing.T) {
	store := NewSessionStore(nil)
	err := store.Update(context.Background(), testutil.NewSession().Build())
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
	assert.Error(t, store.Save(context.Background(), testutil.NewSession().WithID("").Build()))
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	store := NewSessionStore(nil)
	ctx := context.Background()
	sess := testutil.NewSession().Build()
	require.NoError(t, store.Save(ctx, sess))

	require.NoError(t, store.Delete(ctx, sess.ID))
	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ports.ErrSessionNotFound)
}
