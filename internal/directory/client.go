// Package directory is the anti-corruption layer in front of the group
// membership service. The history query needs the caller's group ids; this
// client fetches them over HTTP with circuit breaking and bounded retries so
// a directory outage degrades history instead of cascading.
//
// The returned group set is treated as already authorized: no independent
// membership check happens in this service.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"bullhorn/internal/types"
)

// GroupResolver supplies the set of group ids a user belongs to.
type GroupResolver interface {
	UserGroups(ctx context.Context, userID string) ([]string, error)
}

// RetryPolicy configures the retry behavior for directory calls.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy returns sensible defaults for directory lookups.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 2,
		MinWait:    250 * time.Millisecond,
		MaxWait:    2 * time.Second,
	}
}

// Client resolves user group membership over HTTP.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	baseURL    string
	policy     RetryPolicy
	logger     *slog.Logger
	sleepFn    func(time.Duration) // for testability; defaults to time.Sleep
}

var _ GroupResolver = (*Client)(nil)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithSleepFunc overrides the sleep function used between retries.
// This is intended for testing to avoid real delays.
func WithSleepFunc(fn func(time.Duration)) Option {
	return func(c *Client) {
		c.sleepFn = fn
	}
}

// NewClient creates a directory Client for the given base URL.
func NewClient(httpClient *http.Client, baseURL string, policy RetryPolicy, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "directory",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	c := &Client{
		httpClient: httpClient,
		breaker:    cb,
		baseURL:    baseURL,
		policy:     policy,
		logger:     logger,
		sleepFn:    time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// groupsResponse is the directory service's wire format.
type groupsResponse struct {
	GroupIDs []string `json:"group_ids"`
}

// UserGroups fetches the group ids the user is a member of. Retries on 429
// and 5xx with jittered exponential backoff; a tripped breaker or exhausted
// retries surface as upstream_directory_unavailable.
func (c *Client) UserGroups(ctx context.Context, userID string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/users/%s/groups", c.baseURL, url.PathEscape(userID))

	var lastStatus int
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			c.sleepFn(c.backoff(attempt))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to build directory request", err)
		}
		if traceID := types.GetRequestID(ctx); traceID != "" {
			req.Header.Set("X-Request-Id", traceID)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if r.StatusCode >= 500 {
				r.Body.Close()
				return nil, fmt.Errorf("directory returned %d", r.StatusCode)
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, types.NewAppError(types.ErrCodeUpstreamDirectory, "directory circuit open", err)
			}
			c.logger.WarnContext(ctx, "directory lookup attempt failed",
				"attempt", attempt,
				"error", err,
			)
			lastStatus = 0
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastStatus = resp.StatusCode
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, types.NewAppError(
				types.ErrCodeUpstreamDirectory,
				fmt.Sprintf("directory returned unexpected status %d", resp.StatusCode),
				nil,
			)
		}

		var body groupsResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamDirectory, "failed to decode directory response", decodeErr)
		}
		return body.GroupIDs, nil
	}

	return nil, types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamDirectory,
		"directory lookup failed after retries",
		nil,
		map[string]any{"last_status": lastStatus},
	)
}

// backoff computes the jittered exponential delay before the given attempt.
func (c *Client) backoff(attempt int) time.Duration {
	wait := time.Duration(float64(c.policy.MinWait) * math.Pow(2, float64(attempt-1)))
	if wait > c.policy.MaxWait {
		wait = c.policy.MaxWait
	}
	jitter := time.Duration(rand.Int64N(int64(c.policy.MinWait)))
	return wait + jitter
}
