package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DefaultUserAgent is sent by HTTPClient unless overridden.
const DefaultUserAgent = "agentdemos-fetch/1.0"

// Response is the part of an HTTP response the aggregator consumes.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client issues a single GET request. Implementations must be safe for
// concurrent use: one Client is shared by every request of a batch.
//
// Get must honour ctx cancellation and return the full body on success. Any
// response, whatever its status code, is a success at this layer.
type Client interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// ClientFunc adapts a plain function to the Client interface.
type ClientFunc func(ctx context.Context, url string) (*Response, error)

// Get implements Client.
func (f ClientFunc) Get(ctx context.Context, url string) (*Response, error) { return f(ctx, url) }

// InvalidURLError reports a target that cannot be requested at all.
type InvalidURLError struct {
	URL    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.URL, e.Reason)
}

// HTTPClientOptions configures an HTTPClient.
type HTTPClientOptions struct {
	// UserAgent header value; DefaultUserAgent when empty.
	UserAgent string
	// Transport overrides the pooled transport cloned from http.DefaultTransport.
	Transport http.RoundTripper
	// MaxIdleConnsPerHost bounds the keep-alive pool per host (0 keeps the transport default).
	MaxIdleConnsPerHost int
	// MaxRedirects is the number of redirects followed before giving up (default 10).
	MaxRedirects int
}

// HTTPClient is the default Client backed by net/http. It owns its own
// connection pool, so closing it never affects other batches.
type HTTPClient struct {
	client    *http.Client
	userAgent string
}

// NewHTTPClient creates an HTTPClient with a private connection pool.
func NewHTTPClient(optFns ...func(o *HTTPClientOptions)) *HTTPClient {
	opts := HTTPClientOptions{
		UserAgent:    DefaultUserAgent,
		MaxRedirects: 10,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	transport := opts.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if opts.MaxIdleConnsPerHost > 0 {
			t.MaxIdleConnsPerHost = opts.MaxIdleConnsPerHost
		}
		transport = t
	}

	maxRedirects := opts.MaxRedirects

	return &HTTPClient{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
	}
}

// Get requests rawURL and reads the whole body. The deadline carried by ctx
// covers connecting, waiting for headers and reading the body.
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*Response, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &InvalidURLError{URL: rawURL, Reason: err.Error()}
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Close releases every pooled connection held by the client.
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

// validateURL rejects targets net/http would refuse anyway, so they surface
// with a stable InvalidURL category instead of a transport specific message.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &InvalidURLError{URL: rawURL, Reason: err.Error()}
	}

	switch u.Scheme {
	case "http", "https":
	case "":
		return &InvalidURLError{URL: rawURL, Reason: "missing scheme"}
	default:
		return &InvalidURLError{URL: rawURL, Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	if u.Host == "" {
		return &InvalidURLError{URL: rawURL, Reason: "missing host"}
	}

	return nil
}

// newDefaultClient is the Options.NewClient used when none is configured.
func newDefaultClient() Client { return NewHTTPClient() }

// compile-time checks
var (
	_ Client    = (*HTTPClient)(nil)
	_ io.Closer = (*HTTPClient)(nil)
	_ Client    = ClientFunc(nil)
)
