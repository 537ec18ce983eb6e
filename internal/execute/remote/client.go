package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"coderelay/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://api.jdoodle.com/v1/execute"
	DefaultTimeout  = 20 * time.Second

	maxResponseBytes = 4 << 20
)

// Credentials identify this service to the remote executor.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Valid reports whether both halves of the credential pair are present.
func (c Credentials) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// String never renders the secret.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{ClientID: %q, ClientSecret: [redacted]}", c.ClientID)
}

// Payload is the prepared, already wrapped program for one dispatch.
type Payload struct {
	ExecutorID      string
	VersionSelector string
	Source          string
}

// Response is the executor's answer to a dispatch that reached it.
type Response struct {
	HTTPStatus int
	StatusCode int    // executor-reported status field
	Output     string // captured program output
	Body       []byte // raw body, passed through to callers unchanged
}

// TransportError reports a dispatch that did not produce a usable response.
// StatusCode is the upstream HTTP status, or 0 when none was received.
type TransportError struct {
	StatusCode       int
	Output           string
	CompilationError bool
	Err              error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote executor returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("remote executor unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the dispatch ran out of time.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Executor performs one remote execution.
type Executor interface {
	Execute(ctx context.Context, payload Payload) (Response, error)
}

// Config holds remote executor settings.
type Config struct {
	Endpoint    string
	Timeout     time.Duration
	Credentials Credentials
}

// Client dispatches programs to a JDoodle-compatible executor over HTTP.
type Client struct {
	endpoint    string
	timeout     time.Duration
	credentials Credentials
	httpClient  *http.Client
}

// NewClient creates a new Client. A nil httpClient uses a dedicated default client.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		timeout:     cfg.Timeout,
		credentials: cfg.Credentials,
		httpClient:  httpClient,
	}
}

type executeRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Script       string `json:"script"`
	Language     string `json:"language"`
	VersionIndex string `json:"versionIndex"`
}

type executeResponse struct {
	Output           *string `json:"output"`
	StatusCode       int     `json:"statusCode"`
	CompilationError bool    `json:"compilationError"`
}

// Execute sends a single request with no retry. The call is bounded by the
// client timeout regardless of the caller's deadline.
func (c *Client) Execute(ctx context.Context, payload Payload) (Response, error) {
	logger.Info(ctx, "executing code",
		zap.String("language", payload.ExecutorID),
		zap.String("version", payload.VersionSelector),
		zap.Int("codeLength", len(payload.Source)),
	)

	body, err := json.Marshal(executeRequest{
		ClientID:     c.credentials.ClientID,
		ClientSecret: c.credentials.ClientSecret,
		Script:       payload.Source,
		Language:     payload.ExecutorID,
		VersionIndex: payload.VersionSelector,
	})
	if err != nil {
		return Response{}, &TransportError{Err: fmt.Errorf("marshal execute request failed: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, &TransportError{Err: fmt.Errorf("build request failed: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if callCtx.Err() != nil {
			err = fmt.Errorf("request failed: %w", callCtx.Err())
		} else {
			err = fmt.Errorf("request failed: %w", err)
		}
		return Response{}, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body failed: %w", err)}
	}

	var decoded executeResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		transportErr := &TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", http.StatusText(resp.StatusCode)),
		}
		if decodeErr == nil {
			if decoded.Output != nil {
				transportErr.Output = *decoded.Output
			}
			transportErr.CompilationError = decoded.CompilationError
		}
		return Response{}, transportErr
	}
	if decodeErr != nil {
		return Response{}, &TransportError{Err: fmt.Errorf("decode response body failed: %w", decodeErr)}
	}

	result := Response{
		HTTPStatus: resp.StatusCode,
		StatusCode: decoded.StatusCode,
		Body:       raw,
	}
	if decoded.Output != nil {
		result.Output = *decoded.Output
	}
	return result, nil
}

var _ Executor = (*Client)(nil)
