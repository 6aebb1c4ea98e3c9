// Package studioapi is the HTTP client for the studio backend endpoints used by booking.
package studioapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"harmonix/internal/slots"
)

const defaultTimeout = 10 * time.Second

// Client calls the studio backend. It performs a single attempt per request.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	redis    *redis.Client
	cacheTTL time.Duration

	limiter *rate.Limiter
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "studio api error"
	}
	if e.Body == "" {
		return fmt.Sprintf("studio api: http %d", e.StatusCode)
	}
	return fmt.Sprintf("studio api: http %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// ErrUnsuccessful is returned when the availability endpoint answers success=false.
var ErrUnsuccessful = errors.New("studio api: request not successful")

// NewClient constructs a client with baseURL and an optional API key.
// If httpClient is nil a client with a 10s timeout is used.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit caps outgoing requests at rps with the given burst.
func (c *Client) UseRateLimit(rps float64, burst int) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	if burst <= 0 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

type availabilityResponse struct {
	Success      bool                    `json:"success"`
	Availability []slots.DayAvailability `json:"availability"`
}

// GetAvailability fetches the per-date unavailable slots of a studio.
func (c *Client) GetAvailability(ctx context.Context, studioID string) ([]slots.DayAvailability, error) {
	if strings.TrimSpace(studioID) == "" {
		return nil, errors.New("studio id is required")
	}
	endpoint := fmt.Sprintf("%s/api/studio/%s/availability", c.baseURL, url.PathEscape(studioID))
	cacheKey := fmt.Sprintf("studio:%s:availability", studioID)

	var resp availabilityResponse
	if !c.readCache(ctx, cacheKey, &resp) {
		if err := c.getJSON(ctx, endpoint, &resp); err != nil {
			return nil, err
		}
		if resp.Success {
			c.writeCache(ctx, cacheKey, resp)
		}
	}

	if !resp.Success {
		return nil, ErrUnsuccessful
	}
	if resp.Availability == nil {
		return []slots.DayAvailability{}, nil
	}
	return resp.Availability, nil
}

// GetStudio fetches the studio document. Both a bare document and a
// {"studio": {...}} envelope are accepted.
func (c *Client) GetStudio(ctx context.Context, studioID string) (*Studio, error) {
	if strings.TrimSpace(studioID) == "" {
		return nil, errors.New("studio id is required")
	}
	endpoint := fmt.Sprintf("%s/api/studio/%s", c.baseURL, url.PathEscape(studioID))
	cacheKey := fmt.Sprintf("studio:%s", studioID)

	var raw json.RawMessage
	if !c.readCache(ctx, cacheKey, &raw) {
		if err := c.getJSON(ctx, endpoint, &raw); err != nil {
			return nil, err
		}
		c.writeCache(ctx, cacheKey, raw)
	}
	return decodeStudio(raw)
}

// Ping asks the backend's /healthz endpoint whether it is serving. It goes through
// the same limiter and headers as the data reads; a non-2xx status is an *APIError.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, c.baseURL+"/healthz")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
	return resp.Body.Close()
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get issues one GET. On success the caller owns resp.Body.
func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}
