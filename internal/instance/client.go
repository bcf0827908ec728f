// pattern: Imperative Shell
package instance

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultClientTimeout bounds each request to a running server.
const DefaultClientTimeout = 10 * time.Second

// Client is a thin HTTP client for a running projectbranch server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client targeting the given base URL.
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, DefaultClientTimeout)
}

// NewClientWithTimeout creates a Client with a custom timeout. A refresh
// over many roots can take longer than the default.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// EncodePath encodes a filesystem path for use as a URL segment.
func EncodePath(path string) string {
	return base64.URLEncoding.EncodeToString([]byte(path))
}

// DecodePath reverses EncodePath.
func DecodePath(encoded string) (string, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid encoded path: %w", err)
	}
	return string(data), nil
}

// List fetches the catalog as raw JSON from GET /api/projects, optionally
// filtered.
func (c *Client) List(filter string) ([]byte, error) {
	path := "/api/projects"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(filter)
	}
	return c.get(path)
}

// Repositories fetches the flat candidate list.
func (c *Client) Repositories() ([]byte, error) {
	return c.get("/api/repositories")
}

// Refresh asks the server to rescan its roots.
func (c *Client) Refresh() ([]byte, error) {
	return c.post("/api/refresh")
}

// Mapping fetches the hosted-repository mapping of the project at path.
func (c *Client) Mapping(path string) ([]byte, error) {
	return c.get("/api/projects/" + EncodePath(path) + "/mapping")
}

// Branches fetches the branch context of the worktree at path.
func (c *Client) Branches(path string) ([]byte, error) {
	return c.get("/api/projects/" + EncodePath(path) + "/branches")
}

// get performs a GET request and returns the response body.
func (c *Client) get(path string) ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to projectbranch: %w", err)
	}
	return readResponse(resp)
}

// post performs a POST request with no body and returns the response body.
func (c *Client) post(path string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to projectbranch: %w", err)
	}
	return readResponse(resp)
}

func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Message: extractErrorMessage(body)}
	}
	return body, nil
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("projectbranch returned status %d: %s", e.Code, e.Message)
}

// extractErrorMessage returns the "error" field of a JSON body, or the raw
// body when there is none.
func extractErrorMessage(body []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return string(body)
}
