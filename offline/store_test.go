// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(db)
	require.NoError(t, err)
	return store, db
}

func pendingFixture(endpoint string) PendingRequest {
	return PendingRequest{
		SuccessMsg: "saved",
		FailMsg:    "not saved",
		Endpoint:   endpoint,
		Method:     http.MethodPost,
		Payload:    map[string]any{"course": "Lincoln Park", "strokes": 80},
	}
}

func TestReadAllMissingUserReturnsEmptyList(t *testing.T) {
	store, _ := newTestStore(t)

	queue, err := store.ReadAll(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, queue)
}

func TestAppendPreservesInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, endpoint := range []string{"users/u1/rounds", "users/u1/rounds/r1", "users/u1"} {
		require.NoError(t, store.Append(ctx, "u1", pendingFixture(endpoint)))
	}

	queue, err := store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, queue, 3)
	require.Equal(t, "users/u1/rounds", queue[0].Endpoint)
	require.Equal(t, "users/u1/rounds/r1", queue[1].Endpoint)
	require.Equal(t, "users/u1", queue[2].Endpoint)
}

func TestQueuesAreScopedPerUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", pendingFixture("users/u1/rounds")))
	require.NoError(t, store.Append(ctx, "u2", pendingFixture("users/u2/rounds")))

	queue1, err := store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	queue2, err := store.ReadAll(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, queue1, 1)
	require.Len(t, queue2, 1)
	require.Equal(t, "users/u1/rounds", queue1[0].Endpoint)
	require.Equal(t, "users/u2/rounds", queue2[0].Endpoint)
}

func TestRemoveAndPersistKeepsRemainderOrder(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := pendingFixture("users/u1/rounds")
	second := pendingFixture("users/u1/rounds/r1")
	third := pendingFixture("users/u1")
	for _, req := range []PendingRequest{first, second, third} {
		require.NoError(t, store.Append(ctx, "u1", req))
	}

	// Round-trip through the store first: removal must match the
	// persisted representation, not the in-memory one.
	queue, err := store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.RemoveAndPersist(ctx, "u1", queue[1]))

	queue, err = store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, queue, 2)
	require.Equal(t, "users/u1/rounds", queue[0].Endpoint)
	require.Equal(t, "users/u1", queue[1].Endpoint)
}

func TestRemoveLastElementDeletesQueueRow(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	req := pendingFixture("users/u1/rounds")
	require.NoError(t, store.Append(ctx, "u1", req))

	queue, err := store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.RemoveAndPersist(ctx, "u1", queue[0]))

	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM _pending_requests WHERE user_id = ?`, "u1").Scan(&count))
	require.Zero(t, count)
}

func TestRemoveUnknownRequestIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "u1", pendingFixture("users/u1/rounds")))
	require.NoError(t, store.RemoveAndPersist(ctx, "u1", pendingFixture("users/u1/other")))

	queue, err := store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, queue, 1)
}

func TestRemoveDropsOnlyFirstOfDuplicates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	req := pendingFixture("users/u1/rounds")
	require.NoError(t, store.Append(ctx, "u1", req))
	require.NoError(t, store.Append(ctx, "u1", req))

	queue, err := store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, store.RemoveAndPersist(ctx, "u1", queue[0]))

	queue, err = store.ReadAll(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, queue, 1)
}
