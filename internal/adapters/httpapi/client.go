package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

// TokenSource supplies the bearer token for each request
type TokenSource interface {
	Token() (string, error)
}

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// UserMessage returns the server's message field
func (e *APIError) UserMessage() string {
	return e.Message
}

// Unwrap maps 401 responses to ports.ErrUnauthorized
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ports.ErrUnauthorized
	}
	return nil
}

// Client talks to the asset backend over HTTP
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Ensure it implements the interface
var _ ports.Backend = (*Client)(nil)

// NewClient creates a client; tokens may be nil for unauthenticated use
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &payload) == nil {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type loginRequest struct {
	UserID        string `json:"userId"`
	Password      string `json:"password"`
	Remember7Days bool   `json:"remember7Days"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, userID, password string, remember7Days bool) (string, *domain.User, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", nil, loginRequest{
		UserID:        userID,
		Password:      password,
		Remember7Days: remember7Days,
	}, &resp)
	if err != nil {
		return "", nil, err
	}
	if resp.Token == "" {
		return "", nil, errors.New("login response carried no token")
	}
	return resp.Token, &resp.User, nil
}

// Profile returns the user of the current token with their parks expanded
func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	var resp struct {
		User domain.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Health pings the server
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ListAreas returns every area
func (c *Client) ListAreas(ctx context.Context) ([]domain.Area, error) {
	var areas []domain.Area
	if err := c.do(ctx, http.MethodGet, "/api/areas", nil, nil, &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// ListParks returns every park
func (c *Client) ListParks(ctx context.Context) ([]domain.Park, error) {
	var parks []domain.Park
	if err := c.do(ctx, http.MethodGet, "/api/parks", nil, nil, &parks); err != nil {
		return nil, err
	}
	return parks, nil
}

// List returns the records of a type located in any of locationIDs
func (c *Client) List(ctx context.Context, t domain.RecordType, locationIDs []string) ([]domain.Record, error) {
	query := url.Values{}
	query.Set("locations", domain.JoinIDs(locationIDs))

	var records []domain.Record
	if err := c.do(ctx, http.MethodGet, "/api/"+t.Endpoint(), query, nil, &records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Type = t
	}
	return records, nil
}

type addResponse struct {
	Message string         `json:"message"`
	Item    *domain.Record `json:"item"`
}

// Add creates a record and returns the stored item
func (c *Client) Add(ctx context.Context, t domain.RecordType, payload map[string]string) (*domain.Record, error) {
	var resp addResponse
	if err := c.do(ctx, http.MethodPost, "/api/"+t.Endpoint()+"/add", nil, payload, &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, errors.New("add response carried no item")
	}
	resp.Item.Type = t
	return resp.Item, nil
}

type updateRequest struct {
	ID    string            `json:"id"`
	After map[string]string `json:"After"`
}

// Update replaces the edited fields of a record
func (c *Client) Update(ctx context.Context, t domain.RecordType, id string, after map[string]string) error {
	return c.do(ctx, http.MethodPost, "/api/"+t.Endpoint()+"/update", nil, updateRequest{ID: id, After: after}, nil)
}

type deleteRequest struct {
	ID string `json:"id"`
}

// Delete removes a record
func (c *Client) Delete(ctx context.Context, t domain.RecordType, id string) error {
	return c.do(ctx, http.MethodPost, "/api/"+t.Endpoint()+"/delete", nil, deleteRequest{ID: id}, nil)
}
