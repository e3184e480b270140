// Package offline implements SpeedScore's offline mutation queue and
// reconciliation engine. Mutations made while the client is offline are
// persisted per user in strict insertion order and replayed against the
// HTTP API once connectivity returns, reconciling client-assigned
// temporary identifiers with server-assigned ones.
// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Client is the entry point for every user-intent mutation. It decides
// per call whether to enqueue (offline) or to replay the queue and then
// send (online). Operations for the same client are serialized; there
// is never more than one in-flight mutation path at a time.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	store  *Store
	logger *slog.Logger
	online atomic.Bool
	mu     sync.Mutex
}

// NewClient creates a client persisting its pending queue on db. The
// HTTP client carries a cookie jar so session credentials ride along on
// every call; replace Client.HTTP to customize transport behavior.
func NewClient(db *sql.DB, baseURL string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL must be provided")
	}
	store, err := NewStore(db)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second, Jar: jar},
		store:   store,
		logger:  logger,
	}
	c.online.Store(true)
	return c, nil
}

// SetOnline flips the connectivity switch. The embedding app owns
// connectivity detection; while offline, mutations are queued locally.
func (c *Client) SetOnline(online bool) { c.online.Store(online) }

// Online reports the current connectivity switch state.
func (c *Client) Online() bool { return c.online.Load() }

// Pending returns the user's queued requests in insertion order.
func (c *Client) Pending(ctx context.Context, sess Session) ([]PendingRequest, error) {
	return c.store.ReadAll(ctx, sess.UserID)
}

// AddRound records a newly played round. Offline, the round is queued
// under a temporary ID and reported as saved locally; online, queued
// requests are replayed first and the new round is sent afterwards,
// its outcome first in the returned results.
func (c *Client) AddRound(ctx context.Context, sess Session, round Round) (*SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	endpoint := fmt.Sprintf("users/%s/rounds", sess.UserID)
	payload := roundPayload(round)

	if !c.Online() {
		payload["_id"] = uuid.NewString()
		return c.enqueue(ctx, sess, ActionAddRound, endpoint, http.MethodPost, payload)
	}

	token := c.antiCSRFToken(ctx, sess.UserID)
	if token == "" {
		return tokenFailure(), nil
	}
	synced, err := c.processPending(ctx, sess)
	if err != nil {
		return nil, err
	}

	res := c.request(ctx, endpoint, http.MethodPost, payload, token)
	if res.Success {
		res.Message = "New round logged."
	} else {
		res.Message = "Error logging round: " + res.Message
	}
	synced.Results = append([]Result{res}, synced.Results...)
	return synced, nil
}

// UpdateRound updates an existing round. The round may still be known
// only by its temporary ID; online, the ID is resolved through the map
// produced by draining the queue first.
func (c *Client) UpdateRound(ctx context.Context, sess Session, round Round) (*SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	roundID := round.ID
	payload := roundPayload(round)
	payload["_id"] = roundID

	if !c.Online() {
		endpoint := fmt.Sprintf("users/%s/rounds/%s", sess.UserID, roundID)
		return c.enqueue(ctx, sess, ActionUpdateRound, endpoint, http.MethodPut, payload)
	}

	token := c.antiCSRFToken(ctx, sess.UserID)
	if token == "" {
		return tokenFailure(), nil
	}
	synced, err := c.processPending(ctx, sess)
	if err != nil {
		return nil, err
	}
	if real, ok := synced.TempIDToID[roundID]; ok {
		roundID = real
		payload["_id"] = real
	}

	endpoint := fmt.Sprintf("users/%s/rounds/%s", sess.UserID, roundID)
	res := c.request(ctx, endpoint, http.MethodPut, payload, token)
	if res.Success {
		res.Message = "Round updated."
	} else {
		res.Message = "Error updating round: " + res.Message
	}
	synced.Results = append([]Result{res}, synced.Results...)
	return synced, nil
}

// UpdateUser updates the signed-in user's profile. Only the fields to
// change should be present; all other fields are left unchanged.
func (c *Client) UpdateUser(ctx context.Context, sess Session, fields map[string]any) (*SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	endpoint := "users/" + sess.UserID
	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		payload[k] = v
	}

	if !c.Online() {
		return c.enqueue(ctx, sess, ActionGeneric, endpoint, http.MethodPut, payload)
	}

	token := c.antiCSRFToken(ctx, sess.UserID)
	if token == "" {
		return tokenFailure(), nil
	}
	synced, err := c.processPending(ctx, sess)
	if err != nil {
		return nil, err
	}

	res := c.request(ctx, endpoint, http.MethodPut, payload, token)
	if res.Success {
		res.Message = "User data updated successfully."
	} else {
		res.Message = "Error updating user data: " + res.Message
	}
	synced.Results = append([]Result{res}, synced.Results...)
	return synced, nil
}

// Register creates a new account. Registration is unauthenticated and
// cannot be satisfied from the queue, so it is online-only.
func (c *Client) Register(ctx context.Context, account any) Result {
	return c.request(ctx, "auth/register", http.MethodPost, account, "")
}

// Login signs a user in. The session cookie set by the server is kept
// in the client's cookie jar for subsequent calls.
func (c *Client) Login(ctx context.Context, credentials any) Result {
	return c.request(ctx, "auth/login", http.MethodPost, credentials, "")
}

// Logout signs the user out. It never touches the pending queue: a
// request that failed to replay stays queued for the next sign-in.
func (c *Client) Logout(ctx context.Context, sess Session) Result {
	return c.request(ctx, "auth/logout/"+sess.UserID, http.MethodDelete, nil, "")
}

// GetUser fetches a user's data.
func (c *Client) GetUser(ctx context.Context, id string) Result {
	token := c.antiCSRFToken(ctx, id)
	if token == "" {
		return Result{Message: "Error getting anti-csrf token"}
	}
	return c.request(ctx, "users/"+id, http.MethodGet, nil, token)
}

// enqueue persists the mutation for later replay and reports a
// synthetic success immediately; the queue itself is the durability
// mechanism. The payload is echoed back as data so the UI can cache
// the entity under its temporary ID.
func (c *Client) enqueue(ctx context.Context, sess Session, action Action, endpoint, method string, payload map[string]any) (*SyncResult, error) {
	req := PendingRequest{
		SuccessMsg: action.successMessage(payload),
		FailMsg:    action.failureMessage(payload),
		Endpoint:   endpoint,
		Method:     method,
		Payload:    payload,
	}
	if err := c.store.Append(ctx, sess.UserID, req); err != nil {
		return nil, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queued payload: %w", err)
	}
	c.logger.Info("queued offline mutation",
		"user_id", sess.UserID, "method", method, "endpoint", endpoint)
	return &SyncResult{
		Results:    []Result{{Success: true, Message: action.offlineMessage(), Data: data}},
		TempIDToID: map[string]string{},
	}, nil
}

func tokenFailure() *SyncResult {
	return &SyncResult{
		Results:    []Result{{Message: "Error getting anti-csrf token"}},
		TempIDToID: map[string]string{},
	}
}
