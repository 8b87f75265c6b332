package gql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

const userAgent = "worldctl/0.1"

// Client is the HTTP transport for the Worlds GraphQL API. It builds one
// POST per operation against a single endpoint, attaches auth headers, and
// parses the GraphQL envelope into either data or a classified error.
type Client struct {
	endpoint   string
	bundle     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a transport for the given GraphQL endpoint. bundle is
// the fixed service-bundle marker sent on every request.
func NewClient(endpoint, bundle string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		endpoint:   endpoint,
		bundle:     bundle,
		httpClient: httpClient,
		logger:     logger,
	}
}

// request is the GraphQL POST body.
type request struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// responseError is one entry of the GraphQL errors array.
type responseError struct {
	Message string `json:"message"`
}

// envelope is the GraphQL response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []responseError `json:"errors"`
}

// Do executes one GraphQL operation. token may be empty for
// unauthenticated operations (Login). On success the raw data payload is
// returned; every failure path yields a classified *Error.
func (c *Client) Do(ctx context.Context, operation, query string, variables map[string]any, token string) (json.RawMessage, error) {
	body, err := json.Marshal(request{
		OperationName: operation,
		Query:         query,
		Variables:     variables,
	})
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "encoding request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "creating request", Err: err}
	}

	requestID := uuid.NewString()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Service-Bundle", c.bundle)
	req.Header.Set("X-Request-ID", requestID)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := c.parseResponse(resp, operation)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("operation succeeded",
		slog.String("operation", operation),
		slog.String("request_id", requestID),
	)

	return data, nil
}

// parseResponse classifies the HTTP status and GraphQL envelope.
func (c *Client) parseResponse(resp *http.Response, operation string) (json.RawMessage, error) {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		kind := classifyStatus(resp.StatusCode)
		c.logger.Warn("operation failed",
			slog.String("operation", operation),
			slog.Int("status", resp.StatusCode),
			slog.String("kind", kind.String()),
		)

		return nil, Errorf(kind, "%s returned HTTP %d: %s", operation, resp.StatusCode, bytes.TrimSpace(errBody))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{
			Kind:    KindNetwork,
			Message: fmt.Sprintf("decoding %s response: %v", operation, err),
			Err:     err,
		}
	}

	if len(env.Errors) > 0 {
		msg := env.Errors[0].Message
		kind := classifyMessage(msg)
		c.logger.Warn("operation returned errors",
			slog.String("operation", operation),
			slog.String("kind", kind.String()),
		)

		return nil, Errorf(kind, "%s", msg)
	}

	return env.Data, nil
}
