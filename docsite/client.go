package docsite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/dhamidi/plugintools/metrics"
)

// ClientOptions configures access to documentation hosts.
type ClientOptions struct {
	Proxy    string
	Username string
	Password string
	Timeout  time.Duration
	// RequestsPerSecond limits outgoing requests. Zero means unlimited.
	RequestsPerSecond float64
}

// HTTPClient fetches documentation pages over http(s) and from file URLs.
type HTTPClient struct {
	client   *http.Client
	limiter  *rate.Limiter
	username string
	password string
}

func NewHTTPClient(opts ClientOptions) (*HTTPClient, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &HTTPClient{
		client:   &http.Client{Transport: transport, Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// HTTP is the underlying client, for callers that stream large bodies
// themselves. It shares the proxy and timeout but not the rate limit.
func (c *HTTPClient) HTTP() *http.Client {
	return c.client
}

// Get returns the body of u. Non 2xx responses are errors.
func (c *HTTPClient) Get(ctx context.Context, u *url.URL) ([]byte, error) {
	if u.Scheme == "file" {
		return os.ReadFile(u.Path)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.SiteRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	metrics.SiteRequests.WithLabelValues(fmt.Sprintf("%dxx", resp.StatusCode/100)).Inc()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
