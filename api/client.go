// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the wire client for the Hearth server: presence
// reports, event queue registration, and the event long-poll. Client
// is a thin typed wrapper over net/http; EventSource drives the
// long-poll loop and turns raw events into callbacks.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hearth-chat/hearth/lib/netutil"
	"github.com/hearth-chat/hearth/lib/ref"
	"github.com/hearth-chat/hearth/presence"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the root URL of the server, such as
	// "https://hearth.example.com". Required.
	BaseURL string

	// Token is the API token sent as a bearer credential. Required.
	Token string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient. Give the event long-poll a client without
	// an overall timeout; the server holds polls open for up to a
	// minute by design.
	HTTPClient *http.Client

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client is a typed API client. All methods are safe for concurrent
// use. The client never retries: every request is an idempotent
// snapshot of current state, and the caller's cadence (the report
// ticker, the poll loop) supersedes a failed request naturally.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an API client from the given configuration.
// Returns an error when the base URL is missing or not HTTP(S), or
// when no token is configured.
func NewClient(config ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api: no server URL configured")
	}
	if !strings.HasPrefix(baseURL, "https://") && !strings.HasPrefix(baseURL, "http://") {
		return nil, fmt.Errorf("api: server URL must be http or https (got %q)", baseURL)
	}
	if config.Token == "" {
		return nil, fmt.Errorf("api: no API token configured")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// SendReport sends one presence report. The returned snapshot is nil
// for ping responses (the server omits the roster when the report was
// ping-only); full responses carry the complete presence roster and,
// when the server tracks a mirror session, the mirror liveness flag.
func (client *Client) SendReport(ctx context.Context, report presence.Report) (*presence.Snapshot, error) {
	request := reportRequest{
		Status:       string(report.Status),
		PingOnly:     report.PingOnly,
		NewUserInput: report.NewUserInput,
		SlimPresence: report.SlimPresence,
	}
	var response reportResponse
	if err := client.do(ctx, http.MethodPost, "/api/v1/users/me/presence", nil, request, &response); err != nil {
		return nil, err
	}
	if response.Presences == nil {
		return nil, nil
	}
	return &presence.Snapshot{
		Presences:    recordsFromWire(response.Presences),
		ServerTime:   timeFromSeconds(response.ServerTimestamp),
		MirrorActive: response.MirrorActive,
	}, nil
}

// Register opens a fresh event queue and returns its handle together
// with the initial world state: the full presence roster and the
// realm's member directory.
func (client *Client) Register(ctx context.Context) (*Registration, error) {
	request := registerRequest{
		EventTypes: []string{EventTypePresence, EventTypeMessage},
	}
	var response registerResponse
	if err := client.do(ctx, http.MethodPost, "/api/v1/register", nil, request, &response); err != nil {
		return nil, err
	}
	if response.QueueID == "" {
		return nil, fmt.Errorf("api: register response carries no queue id")
	}
	selfID, _ := ref.ParseUserID(response.UserID)
	return &Registration{
		QueueID:     response.QueueID,
		LastEventID: response.LastEventID,
		SelfID:      selfID,
		Snapshot: &presence.Snapshot{
			Presences:  recordsFromWire(response.Presences),
			ServerTime: timeFromSeconds(response.ServerTimestamp),
		},
		Members: membersFromWire(response.Members),
	}, nil
}

// Events long-polls the event queue for entries after lastEventID.
// The server holds the request open until events arrive or its
// heartbeat interval lapses, so calls routinely take tens of seconds.
func (client *Client) Events(ctx context.Context, queueID string, lastEventID int64) ([]Event, error) {
	query := url.Values{
		"queue_id":      {queueID},
		"last_event_id": {strconv.FormatInt(lastEventID, 10)},
	}
	var response eventsResponse
	if err := client.do(ctx, http.MethodGet, "/api/v1/events", query, nil, &response); err != nil {
		return nil, err
	}
	return response.Events, nil
}

// do executes one authenticated JSON request. Non-2xx responses
// decode into *APIError; 2xx bodies decode into result when result is
// non-nil. The path is relative to the base URL.
func (client *Client) do(ctx context.Context, method, path string, query url.Values, requestBody, result any) error {
	requestURL := client.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("api: encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("api: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+client.token)
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("api: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return parseAPIError(response.StatusCode, body)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("api: decode response: %w", err)
		}
	}
	return nil
}

// parseAPIError builds an *APIError from a non-2xx response body.
// Structured error bodies contribute their code and message; anything
// else becomes the message verbatim.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiError := &APIError{StatusCode: statusCode}

	var wireError errorResponse
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Code = wireError.Code
		apiError.Message = wireError.Message
	} else {
		apiError.Message = strings.TrimSpace(string(body))
	}
	return apiError
}
