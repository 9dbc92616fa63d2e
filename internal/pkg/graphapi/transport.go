package graphapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/urlinsta/urlinsta/internal/pkg/ratelimit"
)

const (
	GraphAPIVersion = "v21.0"
	DefaultBaseURL  = "https://graph.facebook.com/" + GraphAPIVersion

	defaultMaxAttempts = 5
	defaultBackoffBase = 2 * time.Second
	defaultBackoffCap  = 60 * time.Second
	// Longest we are willing to block a caller waiting on the local rate
	// window before giving up with a RateLimitError.
	defaultMaxRateWait = 60 * time.Second
)

// Transport issues single Graph API GET calls through the shared rate limiter
// and an exponential-backoff retry loop. Every typed client in this package
// goes through Transport.Get.
type Transport struct {
	BaseURL     string
	HTTPClient  *http.Client
	Limiter     *ratelimit.Limiter
	MaxAttempts int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxRateWait time.Duration

	// sleep and jitter are swapped out by tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// NewTransport creates a transport with production defaults on top of the
// given admission controller.
func NewTransport(limiter *ratelimit.Limiter) *Transport {
	return &Transport{
		BaseURL:     DefaultBaseURL,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		Limiter:     limiter,
		MaxAttempts: defaultMaxAttempts,
		BackoffBase: defaultBackoffBase,
		BackoffCap:  defaultBackoffCap,
		MaxRateWait: defaultMaxRateWait,
		sleep:       sleepContext,
		jitter:      func() time.Duration { return time.Duration(rand.Int63n(int64(time.Second))) },
	}
}

// sleepContext blocks for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get performs a GET against the Graph API with admission control and
// retries. Transient network failures and retryable API errors are retried
// up to MaxAttempts with exponential backoff plus jitter; rate-limit denials
// and malformed-request rejections surface immediately.
func (t *Transport) Get(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	backoff := t.BackoffBase
	var lastErr error

	for attempt := 0; attempt < t.MaxAttempts; attempt++ {
		if attempt > 0 {
			// Jitter keeps a fleet of accounts from resynchronizing
			// their retries against the same remote window.
			if err := t.sleep(ctx, backoff+t.jitter()); err != nil {
				return nil, err
			}
			backoff *= 2
			if backoff > t.BackoffCap {
				backoff = t.BackoffCap
			}
		}

		body, err := t.dispatch(ctx, endpoint, params)
		if err == nil {
			return body, nil
		}
		if IsRateLimited(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// dispatch performs exactly one admission-checked HTTP exchange.
func (t *Transport) dispatch(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	if !t.Limiter.Allow() {
		wait := t.Limiter.ResetIn()
		if wait > t.MaxRateWait {
			return nil, &RateLimitError{RetryAfter: wait}
		}
		if err := t.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	reqURL := fmt.Sprintf("%s/%s", t.BaseURL, endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	// The exchange reached the remote API, so it counts against quota no
	// matter what status came back.
	t.Limiter.Record()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(raw, resp.StatusCode)
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode graph api response: %w", err)
	}
	return body, nil
}

// parseAPIError extracts the structured {message, code, error_subcode} error
// shape from a non-2xx response body.
func parseAPIError(raw []byte, status int) *APIError {
	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
			Subcode int    `json:"error_subcode"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Message == "" {
		return &APIError{Message: fmt.Sprintf("unexpected status %d", status)}
	}
	return &APIError{
		Message: body.Error.Message,
		Code:    body.Error.Code,
		Subcode: body.Error.Subcode,
	}
}
