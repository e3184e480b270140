// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// IsTemporaryID reports whether id has the shape of a client-assigned
// temporary identifier (version-4 UUID) rather than an opaque server
// identifier.
func IsTemporaryID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4
}

// ProcessPending replays the user's queued requests against the server,
// oldest first. See processPending for the algorithm; this wrapper only
// takes the client's write lock.
func (c *Client) ProcessPending(ctx context.Context, sess Session) (*SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processPending(ctx, sess)
}

// processPending is one reconciliation pass:
//
//  1. An empty queue returns immediately with empty results and an
//     empty map, without touching the token endpoint.
//  2. One anti-CSRF token covers the whole pass; if it cannot be
//     fetched the pass aborts with a single failure outcome and no
//     side effects, so a retry is always safe.
//  3. Requests are replayed from a snapshot in insertion order. A POST
//     sends without its temporary "_id" (the server assigns the real
//     one); a PUT whose endpoint still names a temporary ID is
//     rewritten through the map built earlier in this same pass.
//  4. A confirmed request is removed from the persisted queue; a failed
//     one stays queued for the next pass.
//
// The returned map lets the caller resolve a temporary ID referenced by
// a mutation sent immediately after the pass. The error return is
// reserved for queue persistence failures; every remote failure is a
// Result value.
func (c *Client) processPending(ctx context.Context, sess Session) (*SyncResult, error) {
	pending, err := c.store.ReadAll(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	synced := &SyncResult{Results: []Result{}, TempIDToID: map[string]string{}}
	if len(pending) == 0 {
		return synced, nil
	}

	token := c.antiCSRFToken(ctx, sess.UserID)
	if token == "" {
		synced.Results = append(synced.Results, Result{
			Message: "Could not save pending data to database: error getting anti-csrf token",
		})
		return synced, nil
	}

	for _, queued := range pending {
		outgoing := queued.clone()
		var tempID string
		switch outgoing.Method {
		case http.MethodPost:
			// The server assigns the real ID; remember the temporary
			// one so later requests in this pass can be rewritten.
			tempID, _ = outgoing.Payload["_id"].(string)
			delete(outgoing.Payload, "_id")
		case http.MethodPut:
			if id := lastSegment(outgoing.Endpoint); IsTemporaryID(id) {
				if real, ok := synced.TempIDToID[id]; ok {
					outgoing.Endpoint = strings.Replace(outgoing.Endpoint, id, real, 1)
				}
			}
			delete(outgoing.Payload, "_id")
		}

		res := c.request(ctx, outgoing.Endpoint, outgoing.Method, outgoing.Payload, token)
		if !res.Success {
			c.logger.Warn("replay of pending request failed",
				"user_id", sess.UserID, "method", queued.Method,
				"endpoint", outgoing.Endpoint, "message", res.Message)
			synced.Results = append(synced.Results, Result{Message: queued.FailMsg})
			continue
		}

		if outgoing.Method == http.MethodPost && tempID != "" {
			if id := entityID(res.Data); id != "" {
				synced.TempIDToID[tempID] = id
			}
		}
		if err := c.store.RemoveAndPersist(ctx, sess.UserID, queued); err != nil {
			return nil, err
		}
		synced.Results = append(synced.Results, Result{
			Success: true,
			Message: queued.SuccessMsg,
			Data:    res.Data,
		})
	}
	return synced, nil
}

func lastSegment(endpoint string) string {
	if i := strings.LastIndex(endpoint, "/"); i >= 0 {
		return endpoint[i+1:]
	}
	return endpoint
}

func entityID(data json.RawMessage) string {
	var entity struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &entity); err != nil {
		return ""
	}
	return entity.ID
}
