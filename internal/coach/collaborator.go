package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RequestContext is the caller identity handed explicitly to every action handler.
type RequestContext struct {
	UserID    string
	Email     string
	AuthToken string
}

// CollaboratorError is a non-2xx response from a collaborator endpoint.
type CollaboratorError struct {
	Status  int
	Message string
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator returned %d: %s", e.Status, e.Message)
}

// Collaborator calls the logging and plan endpoints on behalf of the caller.
type Collaborator struct {
	baseURL string
	client  *http.Client
}

// NewCollaborator creates a collaborator client rooted at baseURL.
func NewCollaborator(baseURL string, timeout time.Duration) *Collaborator {
	return &Collaborator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Call sends body as JSON to path with the caller's bearer token and decodes the JSON
// object it returns. Non-2xx responses become a *CollaboratorError carrying the
// payload's "error" field when present.
func (c *Collaborator) Call(ctx context.Context, rc RequestContext, method, path string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if rc.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+rc.AuthToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			msg = payload.Error
		}
		return nil, &CollaboratorError{Status: resp.StatusCode, Message: msg}
	}

	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return out, nil
}
