package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/roster"
)

var _ DoorlistClient = (*HTTPClient)(nil)

// HTTPClient implements DoorlistClient using the doorlist HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Events ---

func (c *HTTPClient) CreateEvent(ctx context.Context, name string) (*model.Event, error) {
	var event model.Event
	body := map[string]string{"name": name}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/events", body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *HTTPClient) ListEvents(ctx context.Context) ([]*model.EventSummary, error) {
	var resp struct {
		Events []*model.EventSummary `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/events", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

func (c *HTTPClient) DeleteEvent(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/events/"+url.PathEscape(id), nil, nil)
}

// --- Guests ---

func (c *HTTPClient) CreateGuest(ctx context.Context, req *CreateGuestRequest) (*model.Guest, error) {
	var guest model.Guest
	if err := c.doJSON(ctx, http.MethodPost, "/v1/guests", req, &guest); err != nil {
		return nil, err
	}
	return &guest, nil
}

func (c *HTTPClient) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
	var guest model.Guest
	if err := c.doJSON(ctx, http.MethodGet, "/v1/guests/"+url.PathEscape(id), nil, &guest); err != nil {
		return nil, err
	}
	return &guest, nil
}

func (c *HTTPClient) ListGuests(ctx context.Context, req *ListGuestsRequest) (*ListGuestsResponse, error) {
	q := url.Values{}
	if req.EventID != "" {
		q.Set("event_id", req.EventID)
	}
	if req.CheckedIn != nil {
		q.Set("checked_in", strconv.FormatBool(*req.CheckedIn))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}

	path := "/v1/guests"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListGuestsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteGuest(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/guests/"+url.PathEscape(id), nil, nil)
}

// --- Door ---

func (c *HTTPClient) CheckIn(ctx context.Context, payload, eventID string) (*model.CheckInResult, error) {
	body := map[string]string{
		"payload":  payload,
		"event_id": eventID,
	}
	var result model.CheckInResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/checkin", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Status / Health ---

func (c *HTTPClient) Status(ctx context.Context) (*roster.Status, error) {
	var status roster.Status
	if err := c.doJSON(ctx, http.MethodGet, "/v1/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content — success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
