// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
)

// Error codes the server attaches to structured error responses.
const (
	// CodeBadEventQueueID marks an expired or unknown event queue.
	// The server garbage-collects queues that go unpolled for a few
	// minutes; the only recovery is registering a fresh one.
	CodeBadEventQueueID = "BAD_EVENT_QUEUE_ID"

	// CodeInvalidAPIKey marks a rejected token.
	CodeInvalidAPIKey = "INVALID_API_KEY"
)

// APIError represents a non-2xx response from the server. Structured
// error bodies carry a machine-readable code and a human-readable
// message; responses with unparseable bodies carry the raw body as
// the message and no code.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Code is the server's machine-readable error code, such as
	// "BAD_EVENT_QUEUE_ID". Empty when the body was not a structured
	// error.
	Code string

	// Message is the human-readable error description.
	Message string
}

func (err *APIError) Error() string {
	if err.Code != "" {
		return fmt.Sprintf("api: HTTP %d %s: %s", err.StatusCode, err.Code, err.Message)
	}
	return fmt.Sprintf("api: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsAPIError reports whether err is a server error response with the
// given code.
func IsAPIError(err error, code string) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.Code == code
}
