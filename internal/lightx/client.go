package lightx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/snapit/avatar-orderflow/internal/apperr"
)

const (
	avatarPath = "/external/api/v1/avatar"
	statusPath = "/external/api/v1/order-status"
)

// JobState is the remote job's reported lifecycle state.
type JobState string

const (
	JobPending JobState = "pending"
	JobActive  JobState = "active"
	JobFailed  JobState = "failed"
)

// JobStatus is the result of a single status check. Output is empty until the
// remote side has produced an image.
type JobStatus struct {
	Status JobState
	Output string
}

// Client performs single request/response cycles against the generation API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient returns a Client for the given API base URL, authenticated with a
// static API key header.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Submit starts a generation job and returns the remote job id.
func (c *Client) Submit(ctx context.Context, imageURL, styleImageURL, textPrompt string) (string, error) {
	reqBody := map[string]string{
		"imageUrl":      imageURL,
		"styleImageUrl": styleImageURL,
		"textPrompt":    textPrompt,
	}

	raw, err := c.post(ctx, avatarPath, reqBody)
	if err != nil {
		return "", err
	}

	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := UnwrapPayload(raw, &payload); err != nil {
		return "", apperr.RemoteErr("unreadable response from generation service", err)
	}
	if payload.OrderID == "" {
		return "", apperr.RemoteErr("generation service returned no job id", nil)
	}
	return payload.OrderID, nil
}

// CheckStatus fetches the current state of a generation job.
func (c *Client) CheckStatus(ctx context.Context, jobID string) (JobStatus, error) {
	raw, err := c.post(ctx, statusPath, map[string]string{"orderId": jobID})
	if err != nil {
		return JobStatus{}, err
	}

	var payload struct {
		Status string `json:"status"`
		Output string `json:"output"`
	}
	if err := UnwrapPayload(raw, &payload); err != nil {
		return JobStatus{}, apperr.RemoteErr("unreadable response from status service", err)
	}

	status := JobStatus{Output: payload.Output}
	switch payload.Status {
	case "active":
		status.Status = JobActive
	case "failed":
		status.Status = JobFailed
	default:
		// "init" and anything unrecognised count as still pending
		status.Status = JobPending
	}
	return status, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.RemoteErr("failed to reach generation service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.RemoteErr("failed to read generation service response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.RemoteErr(fmt.Sprintf("generation service returned status %d", resp.StatusCode), nil)
	}
	return raw, nil
}
