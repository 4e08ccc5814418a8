// Package client is a REST client for the review engine API, used by the
// curator CLI. Requests that fail with a conflict, a rate limit, a server
// error or a network error are retried with exponential backoff.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/phrazzld/curator-srs/internal/api"
	"github.com/phrazzld/curator-srs/internal/api/shared"
	"github.com/phrazzld/curator-srs/internal/config"
)

// userIDHeader carries the caller identity, as an upstream gateway would.
const userIDHeader = "X-User-ID"

const defaultRetryDelay = 200 * time.Millisecond

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
	TraceID    string
}

func (e *APIError) Error() string {
	if e.TraceID != "" {
		return fmt.Sprintf("api error %d: %s (trace %s)", e.StatusCode, e.Message, e.TraceID)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsConflict reports whether err is a 409 response.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// Client calls the review engine API on behalf of one user.
type Client struct {
	httpClient       *resty.Client
	userID           uuid.UUID
	maxRetryAttempts uint
	retryDelay       time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithRetryDelay sets the base backoff delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// New creates a Client for cfg.BaseURL acting as userID.
func New(cfg config.ClientConfig, userID uuid.UUID, opts ...Option) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader(userIDHeader, userID.String())
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	c := &Client{
		httpClient:       httpClient,
		userID:           userID,
		maxRetryAttempts: cfg.RetryAttempts,
		retryDelay:       defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueueOptions override the server's ranking defaults. Zero values are not sent.
type QueueOptions struct {
	Limit           int
	NewLimit        int
	Order           string
	AheadOfSchedule bool
}

func (o QueueOptions) params() map[string]string {
	params := map[string]string{}
	if o.Limit > 0 {
		params["limit"] = strconv.Itoa(o.Limit)
	}
	if o.NewLimit > 0 {
		params["new_limit"] = strconv.Itoa(o.NewLimit)
	}
	if o.Order != "" {
		params["order"] = o.Order
	}
	if o.AheadOfSchedule {
		params["ahead_of_schedule"] = "true"
	}
	return params
}

// ReviewQueue fetches the ranked review queue.
func (c *Client) ReviewQueue(ctx context.Context, opts QueueOptions) (*api.ReviewQueueResponse, error) {
	var result api.ReviewQueueResponse
	err := c.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.SetQueryParams(opts.params()).SetResult(&result).Get("/api/review-queue")
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitReview records a review. Conflicts are retried: the server reloads
// the item on every attempt, so a retry applies the review to the latest state.
func (c *Client) SubmitReview(
	ctx context.Context,
	identifier string,
	quality int,
	timeSpent time.Duration,
) (*api.ItemResponse, error) {
	body := api.SubmitReviewRequest{
		Identifier:  identifier,
		Quality:     &quality,
		TimeSpentMS: timeSpent.Milliseconds(),
	}

	var result api.ItemResponse
	err := c.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.SetBody(body).SetResult(&result).Post("/api/review")
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// EnableItem turns on spaced repetition for an item.
func (c *Client) EnableItem(ctx context.Context, identifier, contentType string) (*api.ItemResponse, error) {
	var result api.ItemResponse
	err := c.do(ctx, func(req *resty.Request) (*resty.Response, error) {
		return req.
			SetPathParam("id", identifier).
			SetBody(api.EnableItemRequest{ContentType: contentType}).
			SetResult(&result).
			Post("/api/items/{id}/enable")
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// do runs send with retries and converts error responses to *APIError.
func (c *Client) do(ctx context.Context, send func(*resty.Request) (*resty.Response, error)) error {
	return retry.Do(
		func() error {
			var errResp shared.ErrorResponse
			resp, err := send(c.httpClient.R().SetContext(ctx).SetError(&errResp))
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			if resp.IsError() {
				msg := errResp.Error
				if msg == "" {
					msg = http.StatusText(resp.StatusCode())
				}
				return &APIError{StatusCode: resp.StatusCode(), Message: msg, TraceID: errResp.TraceID}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetryAttempts+1),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryableError),
		retry.LastErrorOnly(true),
	)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// Transport failures
		return true
	}

	switch {
	case apiErr.StatusCode == http.StatusConflict,
		apiErr.StatusCode == http.StatusTooManyRequests,
		apiErr.StatusCode >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}
