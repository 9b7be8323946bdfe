package jwt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultAPIURL is the Backend API the JWKS client talks to.
	DefaultAPIURL = "https://api.clerk.com"
	// DefaultAPIVersion is the Backend API version of the JWKS endpoint.
	DefaultAPIVersion = "v1"
	// DefaultJWKSCacheTTL is how long a fetched key set is served from
	// memory before it is fetched again.
	DefaultJWKSCacheTTL = 5 * time.Minute

	maxJWKSBodySize = 1 << 20
)

// HTTPStatusError is returned when the JWKS endpoint answers with a non
// 2xx status.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// JWKSClient fetches the JWKS of an instance from the Backend API and
// caches it. It implements KeyResolver, so it can be set as the Key of
// VerifyOptions to verify tokens without a local JWT key.
//
// A JWKSClient is safe for concurrent use. Concurrent refreshes share a
// single request.
type JWKSClient struct {
	secretKey     string
	apiURL        string
	apiVersion    string
	httpClient    *http.Client
	logger        *zap.Logger
	ttl           time.Duration
	skipCache     bool
	retryAttempts int
	sleep         func(context.Context, time.Duration) error

	group singleflight.Group

	mu        sync.RWMutex
	keys      *JWKS
	fetchedAt time.Time
}

// JWKSClientOption configures a JWKSClient.
type JWKSClientOption func(*JWKSClient)

// WithAPIURL sets the Backend API URL, DefaultAPIURL by default.
func WithAPIURL(apiURL string) JWKSClientOption {
	return func(c *JWKSClient) {
		if apiURL != "" {
			c.apiURL = strings.TrimRight(apiURL, "/")
		}
	}
}

// WithAPIVersion sets the Backend API version, DefaultAPIVersion by default.
func WithAPIVersion(version string) JWKSClientOption {
	return func(c *JWKSClient) {
		if version != "" {
			c.apiVersion = strings.Trim(version, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used to fetch the key set.
func WithHTTPClient(httpClient *http.Client) JWKSClientOption {
	return func(c *JWKSClient) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *zap.Logger) JWKSClientOption {
	return func(c *JWKSClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheTTL sets how long a fetched key set is reused.
func WithCacheTTL(ttl time.Duration) JWKSClientOption {
	return func(c *JWKSClient) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSkipCache makes every ResolveKey call fetch the key set.
func WithSkipCache(skip bool) JWKSClientOption {
	return func(c *JWKSClient) {
		c.skipCache = skip
	}
}

// WithRetryAttempts sets the number of attempts per fetch, 5 by default.
func WithRetryAttempts(attempts int) JWKSClientOption {
	return func(c *JWKSClient) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
	}
}

// NewJWKSClient returns a client that fetches the key set of the instance
// secretKey belongs to. It fails with ErrInvalidSecretKey when secretKey
// is empty.
func NewJWKSClient(secretKey string, opts ...JWKSClientOption) (*JWKSClient, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("%w: secret key is missing", ErrInvalidSecretKey)
	}

	c := &JWKSClient{
		secretKey:     secretKey,
		apiURL:        DefaultAPIURL,
		apiVersion:    DefaultAPIVersion,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        zap.NewNop(),
		ttl:           DefaultJWKSCacheTTL,
		retryAttempts: defaultRetryMaxAttempts,
		sleep:         sleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// URL returns the JWKS endpoint.
func (c *JWKSClient) URL() string {
	return c.apiURL + "/" + c.apiVersion + "/jwks"
}

// ResolveKey implements KeyResolver. It serves the key from the cached
// set while it is fresh and refetches the set when it is stale or holds
// no key for kid, as happens right after a key rotation.
func (c *JWKSClient) ResolveKey(ctx context.Context, kid string) (*JWK, error) {
	if !c.skipCache {
		if set, ok := c.cached(); ok {
			if key, err := set.ResolveKey(ctx, kid); err == nil {
				return key, nil
			}
		}
	}

	set, err := c.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	key, err := set.ResolveKey(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("%w: available kids are %q", err, kidsOf(set))
	}

	return key, nil
}

// Fetch downloads the key set, stores it in the cache and returns it.
// Callers that arrive while a fetch is in flight wait for its result;
// each of them stops waiting when its own ctx is done.
func (c *JWKSClient) Fetch(ctx context.Context) (*JWKS, error) {
	ch := c.group.DoChan(c.URL(), func() (any, error) {
		// The shared request outlives any single caller's cancellation,
		// it is bounded by the HTTP client timeout instead.
		return c.fetchWithRetry(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}

		return res.Val.(*JWKS), nil
	}
}

// Invalidate drops the cached key set.
func (c *JWKSClient) Invalidate() {
	c.mu.Lock()
	c.keys = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *JWKSClient) cached() (*JWKS, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.keys == nil || Clock().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}

	return c.keys, true
}

func (c *JWKSClient) fetchWithRetry(ctx context.Context) (*JWKS, error) {
	attempt := 0
	set, err := CallWithRetry(ctx, func(ctx context.Context) (*JWKS, error) {
		attempt++
		set, err := c.fetch(ctx)
		if err != nil {
			c.logger.Debug("jwks fetch attempt failed",
				zap.String("url", c.URL()),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		return set, err
	}, WithAttempts(1, c.retryAttempts), RetryIf(isRetryableFetchError), WithSleep(c.sleep))
	if err != nil {
		c.logger.Warn("failed to load jwks",
			zap.String("url", c.URL()),
			zap.Int("attempts", attempt),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrJWKSLoad, err)
	}

	c.mu.Lock()
	c.keys = set
	c.fetchedAt = Clock()
	c.mu.Unlock()

	c.logger.Debug("jwks loaded",
		zap.String("url", c.URL()),
		zap.Strings("kids", kidsOf(set)))

	return set, nil
}

func (c *JWKSClient) fetch(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxJWKSBodySize))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, URL: c.URL()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBodySize))
	if err != nil {
		return nil, err
	}

	set, err := ParseJWKS(body)
	if err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	if len(set.Keys) == 0 {
		return nil, errors.New("jwks holds no keys")
	}

	return set, nil
}

// isRetryableFetchError retries transport failures, 429 and 5xx
// responses. A 4xx answer, e.g. for a revoked secret key, will not change
// on retry.
func isRetryableFetchError(err error) bool {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return !errors.Is(err, context.Canceled)
}

func kidsOf(set *JWKS) []string {
	if set == nil {
		return nil
	}

	kids := make([]string, 0, len(set.Keys))
	for _, key := range set.Keys {
		if key != nil {
			kids = append(kids, key.Kid)
		}
	}

	return kids
}
