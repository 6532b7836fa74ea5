// Package sink delivers accepted records to the API service. The worker does
// not persist anything itself; storage is the consumer's concern.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
)

// ResultPoster posts JSON payloads to the consuming service.
type ResultPoster interface {
	PostJSON(ctx context.Context, path string, payload any, requestID string) error
}

// CallbackClient posts collection results back to the API service.
type CallbackClient struct {
	client  *http.Client
	baseURL string
}

// NewCallbackClient builds a callback client, auto-configuring an ID token
// client for service-to-service calls when none is supplied.
func NewCallbackClient(client *http.Client, baseURL string) *CallbackClient {
	if baseURL == "" {
		panic("baseURL must not be empty")
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if client == nil {
		idc, err := idtoken.NewClient(context.Background(), baseURL)
		if err != nil {
			client = &http.Client{Timeout: 15 * time.Second}
		} else {
			client = idc
		}
	}
	return &CallbackClient{client: client, baseURL: baseURL}
}

// PostJSON posts the payload to the consumer and surfaces its error message
// on failure.
func (c *CallbackClient) PostJSON(ctx context.Context, path string, payload any, requestID string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("callback error: %s", extractCallbackError(resp.Body))
	}
	return nil
}

func extractCallbackError(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return "consumer returned an error"
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return string(data)
}

var _ ResultPoster = (*CallbackClient)(nil)
