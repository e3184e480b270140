// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"encoding/json"
	"net/http"
)

// antiCSRFToken fetches the short-lived anti-forgery token required on
// state-mutating calls. It returns "" on any failure, which every
// caller treats as "cannot proceed with a mutating call right now".
// No retry here; retry policy belongs to the caller.
func (c *Client) antiCSRFToken(ctx context.Context, userID string) string {
	res := c.request(ctx, "auth/anti-csrf-token/"+userID, http.MethodGet, nil, "")
	if !res.Success {
		c.logger.Warn("failed to fetch anti-csrf token", "user_id", userID, "message", res.Message)
		return ""
	}
	var payload struct {
		AntiCSRFToken string `json:"antiCsrfToken"`
	}
	if err := json.Unmarshal(res.Data, &payload); err != nil || payload.AntiCSRFToken == "" {
		c.logger.Warn("anti-csrf token missing from response", "user_id", userID)
		return ""
	}
	return payload.AntiCSRFToken
}
