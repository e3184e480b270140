// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"encoding/json"
	"fmt"

	"github.com/speedscore/go-speedscore/sgs"
)

// Result is the uniform outcome of a single request, remote or local.
// Failures carry a human-readable message; successes carry the server's
// JSON representation of the affected entity.
type Result struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// SyncResult is returned by every queue-aware facade operation. Results
// are ordered with the most recent action first, followed by replayed
// pending requests in their original insertion order. TempIDToID maps
// client-assigned temporary round IDs to server-assigned ones for this
// pass only; it is never persisted.
type SyncResult struct {
	Results    []Result          `json:"results"`
	TempIDToID map[string]string `json:"tempIdToId"`
}

// Session identifies the signed-in user on whose behalf an operation
// runs. It is threaded explicitly through every call; the library keeps
// no ambient user state.
type Session struct {
	UserID string
}

// PendingRequest is one not-yet-confirmed mutation, persisted in strict
// insertion order per user. The outcome messages are decided at enqueue
// time and never recomputed at replay time.
type PendingRequest struct {
	SuccessMsg string         `json:"successMsg"`
	FailMsg    string         `json:"failMsg"`
	Endpoint   string         `json:"endpoint"`
	Method     string         `json:"method"`
	Payload    map[string]any `json:"data"`
}

// clone returns a copy safe to rewrite during replay without touching
// the queued original (which is still needed for queue removal).
func (r PendingRequest) clone() PendingRequest {
	out := r
	out.Payload = make(map[string]any, len(r.Payload))
	for k, v := range r.Payload {
		out.Payload[k] = v
	}
	return out
}

// Round is a scored speedgolf round as the embedding app records it.
// Display fields (SGS, time, minute/second split) are derived from
// Strokes and Seconds when the round is queued or sent.
type Round struct {
	ID      string `json:"_id,omitempty"`
	Date    string `json:"date"`
	Course  string `json:"course"`
	Type    string `json:"type,omitempty"`
	Holes   int    `json:"holes,omitempty"`
	Strokes int    `json:"strokes"`
	Seconds int    `json:"seconds"`
	Notes   string `json:"notes,omitempty"`
}

// roundPayload builds the wire payload for a round with derived display
// fields attached, so a round queued offline and one sent online are
// byte-identical.
func roundPayload(r Round) map[string]any {
	payload := map[string]any{
		"date":    r.Date,
		"course":  r.Course,
		"strokes": r.Strokes,
		"seconds": r.Seconds,
		"SGS":     sgs.Score(r.Strokes, r.Seconds),
		"min":     sgs.Minutes(r.Seconds),
		"sec":     sgs.Seconds(r.Seconds),
		"time":    sgs.Time(r.Seconds),
	}
	if r.Type != "" {
		payload["type"] = r.Type
	}
	if r.Holes != 0 {
		payload["holes"] = r.Holes
	}
	if r.Notes != "" {
		payload["notes"] = r.Notes
	}
	return payload
}

// Action tags the kind of mutation being queued. Each kind carries its
// own success/failure/offline message templates, decided once when the
// request is enqueued.
type Action int

const (
	ActionGeneric Action = iota
	ActionAddRound
	ActionUpdateRound
)

func (a Action) successMessage(payload map[string]any) string {
	switch a {
	case ActionAddRound:
		return fmt.Sprintf("Pending round played on %v at %v saved to database.",
			payload["date"], payload["course"])
	case ActionUpdateRound:
		return fmt.Sprintf("Pending updates to round played on %v at %v saved to database.",
			payload["date"], payload["course"])
	default:
		return "Data saved to database."
	}
}

func (a Action) failureMessage(payload map[string]any) string {
	switch a {
	case ActionAddRound:
		return fmt.Sprintf("Error: Pending round played on %v at %v could not be saved to database.",
			payload["date"], payload["course"])
	case ActionUpdateRound:
		return fmt.Sprintf("Error: Pending updates to round played on %v at %v could not be saved to database.",
			payload["date"], payload["course"])
	default:
		return "Error: Data could not be saved to database."
	}
}

func (a Action) offlineMessage() string {
	switch a {
	case ActionAddRound:
		return "You are offline. Your round has been saved locally. " +
			"SpeedScore will try to save your round to the database when you are back online."
	case ActionUpdateRound:
		return "You are offline. Pending updates to your round have been saved locally. " +
			"SpeedScore will try to save your updated round to the database when you are back online."
	default:
		return "You are offline. Your request has been saved locally. " +
			"SpeedScore will try to save your request to the database when you are back online."
	}
}
