package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-client/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSessionRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.LoadSession(ctx)
	require.ErrorIs(t, err, store.ErrNoSession)

	require.NoError(t, st.SaveSession(ctx, store.Session{
		UserID: "u1",
		Name:   "alice",
		Token:  "tok-1",
	}))

	sess, err := st.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", sess.UserID)
	require.Equal(t, "alice", sess.Name)
	require.Equal(t, "tok-1", sess.Token)
	require.False(t, sess.CreatedAt.IsZero())
}

func TestSaveSessionReplacesPrevious(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, store.Session{UserID: "u1", Name: "alice", Token: "old"}))
	require.NoError(t, st.SaveSession(ctx, store.Session{UserID: "u2", Name: "bob", Token: "new"}))

	sess, err := st.LoadSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "u2", sess.UserID)
	require.Equal(t, "new", sess.Token)
}

func TestClearSession(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Clearing an empty store is fine.
	require.NoError(t, st.ClearSession(ctx))

	require.NoError(t, st.SaveSession(ctx, store.Session{UserID: "u1", Name: "alice", Token: "tok"}))
	require.NoError(t, st.ClearSession(ctx))

	_, err := st.LoadSession(ctx)
	require.ErrorIs(t, err, store.ErrNoSession)
}
