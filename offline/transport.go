// Copyright 2025 The SpeedScore Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// Transport failure categories. They drive diagnostics only; callers
// always see the same {success:false, message} shape.
const (
	categoryNetwork    = "network"
	categoryDecode     = "decode"
	categoryUnexpected = "unexpected"
)

const (
	msgInvalidURL     = "Invalid URL"
	msgNetworkFailure = "Network error or invalid URL"
	msgDecodeFailure  = "Response parsing error"
	msgUnexpected     = "Unexpected error"
	msgServerFallback = "An error occurred"
)

// antiCSRFHeader carries the anti-forgery token on mutating calls.
const antiCSRFHeader = "x-anti-csrf-token"

// request performs one HTTP request/response cycle against the API and
// normalizes every failure mode into a Result value. It never retries;
// retry policy belongs to the caller (usually by leaving the request in
// the pending queue).
func (c *Client) request(ctx context.Context, endpoint, method string, payload any, antiCSRF string) Result {
	fullURL := c.BaseURL + "/" + endpoint
	if !isValidURL(fullURL) {
		c.logger.Warn("refusing request to malformed URL",
			"category", categoryNetwork, "url", fullURL)
		return Result{Message: msgInvalidURL}
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			c.logger.Error("failed to encode request payload",
				"category", categoryUnexpected, "endpoint", endpoint, "error", err)
			return Result{Message: msgUnexpected}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		c.logger.Error("failed to build request",
			"category", categoryUnexpected, "endpoint", endpoint, "error", err)
		return Result{Message: msgUnexpected}
	}
	req.Header.Set("Content-Type", "application/json")
	if antiCSRF != "" {
		req.Header.Set(antiCSRFHeader, antiCSRF)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			"category", categoryNetwork, "method", method, "endpoint", endpoint, "error", err)
		return Result{Message: msgNetworkFailure}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("failed to read response body",
			"category", categoryDecode, "method", method, "endpoint", endpoint, "error", err)
		return Result{Message: msgDecodeFailure}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Prefer the server-provided message from the failure envelope.
		message := msgServerFallback
		var envelope struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Message != "" {
			message = envelope.Message
		}
		c.logger.Warn("server returned non-success status",
			"method", method, "endpoint", endpoint, "status", resp.StatusCode, "message", message)
		return Result{Message: message}
	}

	if len(raw) == 0 {
		return Result{Success: true}
	}
	if !json.Valid(raw) {
		c.logger.Warn("response body is not valid JSON",
			"category", categoryDecode, "method", method, "endpoint", endpoint)
		return Result{Message: msgDecodeFailure}
	}
	return Result{Success: true, Data: raw}
}

// isValidURL requires a fully qualified URL; anything else is a local
// failure that is never attempted over the network.
func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
