package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/desertthunder/spotwidget/internal/shared"
	"golang.org/x/oauth2"
)

// DefaultAPIBaseURL is the Spotify Web API root.
const DefaultAPIBaseURL = "https://api.spotify.com/v1"

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// APIError is the error object Spotify returns in non-2xx responses.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *APIResponse) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Err returns nil for 2xx responses, otherwise the error described by the body.
func (r *APIResponse) Err() *APIError {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}

	var payload struct {
		Error *APIError `json:"error"`
	}
	if r.IsJSON && json.Unmarshal(r.Body, &payload) == nil && payload.Error != nil {
		if payload.Error.Status == 0 {
			payload.Error.Status = r.StatusCode
		}
		return payload.Error
	}

	return &APIError{Status: r.StatusCode, Message: http.StatusText(r.StatusCode)}
}

// Session holds the access token for the current process and issues authenticated API calls.
//
// The token lives in memory only.
type Session struct {
	mu         sync.RWMutex
	token      *oauth2.Token
	baseURL    string
	httpClient *http.Client
}

// NewSession creates an unauthenticated session. An empty baseURL uses [DefaultAPIBaseURL].
func NewSession(baseURL string, client *http.Client) *Session {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Session{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

// SetToken replaces the held token.
func (s *Session) SetToken(token *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the held token or nil.
func (s *Session) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether an access token is held.
func (s *Session) Authenticated() bool {
	t := s.Token()
	return t != nil && t.AccessToken != ""
}

// Clear drops the token.
func (s *Session) Clear() {
	s.SetToken(nil)
}

// URL joins endpoint onto the base URL with a single slash.
func (s *Session) URL(endpoint string) string {
	return s.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// Call sends method to endpoint with the bearer token and returns the response whatever its status.
//
// method defaults to GET. A non-nil body is sent as JSON. Transport failures wrap [shared.ErrAPIRequest].
func (s *Session) Call(ctx context.Context, endpoint, method string, body any) (*APIResponse, error) {
	token := s.Token()
	if token == nil || token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request body: %v", shared.ErrInvalidInput, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.URL(endpoint), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token.SetAuthHeader(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &jsonData); err == nil {
			apiResp.IsJSON = true
			apiResp.JSONData = jsonData
		}
	}

	return apiResp, nil
}
