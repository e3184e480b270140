// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists the per-user ordered list of pending requests. The
// list for a user is read, modified, and written back as a single
// serialized value; there is one logical writer at a time (the client
// serializes its own operations), so no element-level locking exists.
type Store struct {
	db *sql.DB
}

// NewStore prepares the pending-request table on the given database.
func NewStore(db *sql.DB) (*Store, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS _pending_requests (
			user_id    TEXT NOT NULL,
			requests   TEXT NOT NULL, -- JSON array of pending requests, insertion order
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			PRIMARY KEY (user_id)
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending requests table: %w", err)
	}
	return &Store{db: db}, nil
}

// ReadAll returns the user's pending requests in insertion order. A
// user with no queue gets an empty list, never an error.
func (s *Store) ReadAll(ctx context.Context, userID string) ([]PendingRequest, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT requests FROM _pending_requests WHERE user_id = ?`, userID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending requests: %w", err)
	}
	var queue []PendingRequest
	if err := json.Unmarshal([]byte(raw), &queue); err != nil {
		return nil, fmt.Errorf("failed to decode pending requests: %w", err)
	}
	return queue, nil
}

// Append adds a request to the end of the user's queue, creating the
// queue on first use.
func (s *Store) Append(ctx context.Context, userID string, req PendingRequest) error {
	return s.withQueue(ctx, userID, func(queue []PendingRequest) ([]PendingRequest, error) {
		return append(queue, req), nil
	})
}

// RemoveAndPersist removes the first queued request equal to req and
// writes the remainder back, preserving order. The queue row is deleted
// once empty. Removing a request that is no longer queued is a no-op.
func (s *Store) RemoveAndPersist(ctx context.Context, userID string, req PendingRequest) error {
	return s.withQueue(ctx, userID, func(queue []PendingRequest) ([]PendingRequest, error) {
		for i := range queue {
			if samePendingRequest(queue[i], req) {
				return append(queue[:i:i], queue[i+1:]...), nil
			}
		}
		return queue, nil
	})
}

// withQueue runs one read-modify-write cycle over the user's serialized
// queue inside a transaction.
func (s *Store) withQueue(ctx context.Context, userID string, mutate func([]PendingRequest) ([]PendingRequest, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin queue transaction: %w", err)
	}
	defer tx.Rollback()

	var queue []PendingRequest
	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT requests FROM _pending_requests WHERE user_id = ?`, userID).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First offline mutation for this user creates the queue.
	case err != nil:
		return fmt.Errorf("failed to read pending requests: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &queue); err != nil {
			return fmt.Errorf("failed to decode pending requests: %w", err)
		}
	}

	queue, err = mutate(queue)
	if err != nil {
		return err
	}

	if len(queue) == 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM _pending_requests WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete drained queue: %w", err)
		}
	} else {
		encoded, err := json.Marshal(queue)
		if err != nil {
			return fmt.Errorf("failed to encode pending requests: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO _pending_requests (user_id, requests, updated_at)
			VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
			ON CONFLICT (user_id) DO UPDATE SET
				requests = excluded.requests,
				updated_at = excluded.updated_at
		`, userID, string(encoded)); err != nil {
			return fmt.Errorf("failed to persist pending requests: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit queue transaction: %w", err)
	}
	return nil
}

// samePendingRequest compares requests by their serialized form, which
// is stable across a persistence round trip (JSON object keys are
// marshaled in sorted order).
func samePendingRequest(a, b PendingRequest) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(aj, bj)
}
