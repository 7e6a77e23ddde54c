// Package heretohelp is the client for the here-to-help case-management
// backend. All calls are JSON over HTTP; application errors arrive either
// as an in-band {"Error": ...} payload or as an HTTP error status and both
// surface as *APIError. Responses are parsed strictly: a body that is not
// valid JSON is a transport failure, never interpreted any other way.
package heretohelp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LBHackney-IT/here-to-help-data-ingestion/internal/pkg/httpretry"
)

// Config holds the backend connection settings.
type Config struct {
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
}

// Client is the here-to-help API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new here-to-help API client with bounded timeouts
// and transport-level retry.
func NewClient(cfg Config) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated request and returns the raw response
// body after status and in-band error checks.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "authentication failed"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg, ok := inBandError(respBody); ok {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if msg, ok := inBandError(respBody); ok {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}

// inBandError reports whether a JSON object body carries an "Error" key,
// returning its value rendered as text.
func inBandError(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return "", false
	}
	raw, ok := probe["Error"]
	if !ok {
		return "", false
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		msg = string(raw)
	}
	return msg, true
}

func decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// CreateHelpRequest submits a new help request. The backend assigns and
// returns the request id.
func (c *Client) CreateHelpRequest(ctx context.Context, req *HelpRequest) (int, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, "/help-requests", req)
	if err != nil {
		return 0, err
	}
	var created createResponse
	if err := decode(respBody, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// GetHelpRequest fetches a help request by id, including the resident it
// was associated to and its existing case notes.
func (c *Client) GetHelpRequest(ctx context.Context, id int) (*HelpRequestDetail, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/help-requests/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var detail HelpRequestDetail
	if err := decode(respBody, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetResidentHelpRequests lists all help requests for a resident.
func (c *Client) GetResidentHelpRequests(ctx context.Context, residentID int) ([]ResidentHelpRequest, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/residents/%d/help-requests", residentID), nil)
	if err != nil {
		return nil, err
	}
	var requests []ResidentHelpRequest
	if err := decode(respBody, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// CreateResidentHelpRequest creates a further help request for an existing
// resident (used for linked cases such as Shielding).
func (c *Client) CreateResidentHelpRequest(ctx context.Context, residentID int, req *HelpRequest) (int, error) {
	respBody, err := c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/residents/%d/help-requests", residentID), req)
	if err != nil {
		return 0, err
	}
	var created createResponse
	if err := decode(respBody, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// CreateCaseNote attaches a case note to a resident's help request.
func (c *Client) CreateCaseNote(ctx context.Context, residentID, helpRequestID int, note CaseNote) error {
	endpoint := fmt.Sprintf("/residents/%d/help-requests/%d/case-notes", residentID, helpRequestID)
	_, err := c.doRequest(ctx, http.MethodPost, endpoint, note)
	return err
}
