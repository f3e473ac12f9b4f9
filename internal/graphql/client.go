package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jamesprial/gqlops/internal/config"
)

const defaultTimeout = 30 * time.Second

// Compile-time interface checks.
var (
	_ Session   = (*HTTPClient)(nil)
	_ Connector = (*HTTPConnector)(nil)
)

// HTTPClient sends GraphQL requests over HTTP. Each HTTPClient owns its own
// transport so Close drops exactly the connections it opened.
type HTTPClient struct {
	httpClient *http.Client
	transport  *http.Transport
	graphqlURL string
	apiKey     string
}

// NewHTTPClient constructs an HTTPClient posting to endpoint. The API key
// and timeout are taken from cfg. When cfg.Timeout is zero or negative, a
// default timeout of 30 seconds is used. An empty API key sends no
// x-api-key header.
func NewHTTPClient(endpoint string, cfg config.GraphQLConfig) (*HTTPClient, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if cfg.Timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		transport:  transport,
		graphqlURL: endpoint,
		apiKey:     cfg.APIKey,
	}, nil
}

// graphqlResponse is the JSON body shape for a GraphQL HTTP response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Execute sends req to the configured endpoint and returns the raw JSON
// bytes of the "data" field on success. Empty Variables and OperationName
// are omitted from the request body.
//
// Execute returns an error if:
//   - the HTTP request cannot be created or sent
//   - the server responds with a non-2xx status code
//   - the response body cannot be decoded as JSON
//   - the GraphQL response contains one or more errors
func (c *HTTPClient) Execute(ctx context.Context, req Request) ([]byte, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("graphql: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("graphql: authentication failed (HTTP 401)")
	}

	var gqlResp graphqlResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&gqlResp)

	// Servers commonly answer validation failures with 4xx plus an errors
	// payload; prefer the GraphQL messages when they are present.
	if decodeErr == nil && len(gqlResp.Errors) > 0 {
		msgs := make([]string, len(gqlResp.Errors))
		for i, e := range gqlResp.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("graphql: unexpected HTTP status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("graphql: decode response: %w", decodeErr)
	}

	return []byte(gqlResp.Data), nil
}

// Close releases the idle connections held by this client's transport.
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// HTTPConnector opens a fresh HTTPClient per Session.
type HTTPConnector struct {
	endpoint string
	cfg      config.GraphQLConfig
}

// NewHTTPConnector returns a Connector for the endpoint in settings.
func NewHTTPConnector(settings config.Settings, cfg config.GraphQLConfig) (*HTTPConnector, error) {
	if settings.URL == "" {
		return nil, fmt.Errorf("graphql: URL is required")
	}
	return &HTTPConnector{endpoint: settings.URL, cfg: cfg}, nil
}

// Endpoint returns the URL sessions post to.
func (c *HTTPConnector) Endpoint() string { return c.endpoint }

// Connect returns a new Session. It fails only when ctx is already done.
func (c *HTTPConnector) Connect(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("graphql: connect: %w", err)
	}
	return NewHTTPClient(c.endpoint, c.cfg)
}
