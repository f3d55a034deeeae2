package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 2

	apiKeyHeader = "X-Api-Key"
)

// HTTPClientConfig configures the document store HTTP client.
type HTTPClientConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries uint64
	Logger     *zap.Logger
}

// HTTPClient talks to the document store REST surface. Transport failures are
// retried with exponential backoff before surfacing as ErrUnavailable; HTTP
// error statuses are never retried.
type HTTPClient struct {
	rest       *resty.Client
	maxRetries uint64
	logger     *zap.Logger
}

// NewHTTPClient validates the configuration and constructs an HTTPClient.
func NewHTTPClient(cfg HTTPClientConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote: base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		rest.SetHeader(apiKeyHeader, cfg.APIKey)
	}

	retries := cfg.MaxRetries
	if retries == 0 {
		retries = defaultMaxRetries
	}

	return &HTTPClient{rest: rest, maxRetries: retries, logger: logger}, nil
}

type documentEnvelope struct {
	Document Document `json:"document"`
}

type queryEnvelope struct {
	Documents []Document `json:"documents"`
}

// Insert creates a new document and returns it with its assigned id.
func (c *HTTPClient) Insert(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	var envelope documentEnvelope
	err := c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetBody(map[string]any{"fields": fields}).
			SetResult(&envelope).
			Post(fmt.Sprintf("/v1/collections/%s/documents", collection))
	})
	if err != nil {
		return Document{}, err
	}
	return envelope.Document, nil
}

// Update overwrites fields on an existing document.
func (c *HTTPClient) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			SetBody(map[string]any{"fields": fields}).
			Patch(fmt.Sprintf("/v1/collections/%s/documents/%s", collection, id))
	})
}

// Delete removes a document by id.
func (c *HTTPClient) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, func() (*resty.Response, error) {
		return c.rest.R().
			SetContext(ctx).
			Delete(fmt.Sprintf("/v1/collections/%s/documents/%s", collection, id))
	})
}

// Query returns the documents whose fields equal every filter value.
func (c *HTTPClient) Query(ctx context.Context, collection string, filter map[string]string) ([]Document, error) {
	var envelope queryEnvelope
	err := c.do(ctx, func() (*resty.Response, error) {
		request := c.rest.R().
			SetContext(ctx).
			SetResult(&envelope)
		for field, value := range filter {
			request.SetQueryParam(field, value)
		}
		return request.Get(fmt.Sprintf("/v1/collections/%s/documents", collection))
	})
	if err != nil {
		return nil, err
	}
	return envelope.Documents, nil
}

// do executes one request, retrying transport errors with exponential
// backoff, and maps the outcome onto the package error taxonomy.
func (c *HTTPClient) do(ctx context.Context, send func() (*resty.Response, error)) error {
	operation := func() error {
		response, err := send()
		if err != nil {
			// Transport-level failure, worth retrying.
			return err
		}
		if response.IsError() {
			return backoff.Permanent(statusError(response.StatusCode(), response.String()))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		var permanent *permanentStatusError
		if errors.As(err, &permanent) {
			return permanent
		}
		c.logger.Debug("remote request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

type permanentStatusError struct {
	status int
	body   string
}

func (e *permanentStatusError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", e.status, e.body)
}

func (e *permanentStatusError) Unwrap() error {
	if e.status == http.StatusUnauthorized || e.status == http.StatusForbidden {
		return ErrUnavailable
	}
	return nil
}

func statusError(status int, body string) error {
	return &permanentStatusError{status: status, body: body}
}
