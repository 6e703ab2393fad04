package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/taskdesk-dev/taskdesk/internal/api"
)

const (
	graphqlPath      = "/graphql"
	defaultCacheSize = 128
)

// TokenSource supplies the bearer token attached to every request.
// An empty token means the request is sent anonymously.
type TokenSource interface {
	Token() string
}

// HTTPError is returned when the server answers with a non-200 status
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.StatusCode, e.Body)
}

// ResponseError is returned when the GraphQL response carries errors
type ResponseError struct {
	Operation string
	Errors    []api.Error
}

func (e *ResponseError) Error() string {
	return api.Messages(e.Errors)
}

// Code returns the code of the first error, or "" when none was set
func (e *ResponseError) Code() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Code()
}

// IsUnauthenticated reports whether err is a GraphQL UNAUTHENTICATED error
func IsUnauthenticated(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.Code() == api.CodeUnauthenticated
}

// Client represents a GraphQL client for the taskdesk API
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	cache      *lru.Cache
}

// New creates a new API client. A server URL without a scheme is assumed to be HTTPS.
func New(serverURL string) *Client {
	baseURL := strings.TrimRight(serverURL, "/")
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}

	cache, err := lru.New(defaultCacheSize)
	if err != nil {
		// lru.New only rejects a non-positive size and defaultCacheSize is a positive constant
		panic(fmt.Sprintf("client: failed to create response cache: %v", err))
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// SetTokenSource sets where the bearer token is read from
func (c *Client) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

// BaseURL returns the server URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClearCache discards every cached query result
func (c *Client) ClearCache() {
	c.cache.Purge()
}

// Query runs a read operation, serving it from the cache when possible
func (c *Client) Query(ctx context.Context, operation, document string, variables any, out any) error {
	vars, err := marshalVariables(variables)
	if err != nil {
		return err
	}

	key := operation + ":" + string(vars)
	if cached, ok := c.cache.Get(key); ok {
		return decodeData(operation, cached.(json.RawMessage), out)
	}

	data, err := c.execute(ctx, operation, document, vars)
	if err != nil {
		return err
	}
	c.cache.Add(key, data)

	return decodeData(operation, data, out)
}

// QueryNoCache runs a read operation against the network, bypassing the cache
func (c *Client) QueryNoCache(ctx context.Context, operation, document string, variables any, out any) error {
	vars, err := marshalVariables(variables)
	if err != nil {
		return err
	}

	data, err := c.execute(ctx, operation, document, vars)
	if err != nil {
		return err
	}
	return decodeData(operation, data, out)
}

// Mutate runs a write operation. Successful mutations invalidate the cache.
func (c *Client) Mutate(ctx context.Context, operation, document string, variables any, out any) error {
	vars, err := marshalVariables(variables)
	if err != nil {
		return err
	}

	data, err := c.execute(ctx, operation, document, vars)
	if err != nil {
		return err
	}
	c.cache.Purge()

	return decodeData(operation, data, out)
}

func (c *Client) execute(ctx context.Context, operation, document string, vars json.RawMessage) (json.RawMessage, error) {
	reqBody := api.Request{
		Query:         document,
		OperationName: operation,
		Variables:     vars,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+graphqlPath, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var gqlResp api.Response
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, &ResponseError{Operation: operation, Errors: gqlResp.Errors}
	}

	return gqlResp.Data, nil
}

func marshalVariables(variables any) (json.RawMessage, error) {
	if variables == nil {
		return json.RawMessage("{}"), nil
	}
	// encoding/json sorts map keys, so equal variables give equal cache keys
	data, err := json.Marshal(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variables: %w", err)
	}
	return data, nil
}

func decodeData(operation string, data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}
