package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/bnema/annoirc/internal/domain"
)

const (
	maxAPIResponseBytes = 1 << 20
	maxRedirects        = 10
	dialTimeout         = 10 * time.Second
)

// ErrRestrictedAddress is returned when a request would reach a loopback,
// private or otherwise non-global address while http.allow_private is off.
var ErrRestrictedAddress = errors.New("restricted address")

// configSource is the part of the configuration monitor fetchers read from.
// Credentials and limits are looked up on every request so reloads apply to
// the next fetch.
type configSource interface {
	Current() *domain.Config
}

// Client carries the HTTP plumbing shared by every fetcher.
type Client struct {
	HTTPClient *http.Client
	config     configSource
}

func NewClient(config configSource) *Client {
	return &Client{HTTPClient: newHTTPClient(config), config: config}
}

func newHTTPClient(config configSource) *http.Client {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: 30 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			if config.Current().HTTP.AllowPrivate {
				return nil
			}
			return checkAddress(address)
		},
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil
	transport.MaxIdleConnsPerHost = 1

	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// checkAddress runs after name resolution, so redirects and DNS answers
// pointing inward are caught too.
func checkAddress(address string) error {
	addrPort, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrRestrictedAddress, address)
	}
	addr := addrPort.Addr().Unmap()
	if addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		sharedAddressSpace.Contains(addr) {
		return fmt.Errorf("%w: %s", ErrRestrictedAddress, addr)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, header http.Header) (*http.Response, error) {
	if query != nil {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if agent := c.config.Current().HTTP.UserAgent; agent != "" {
		req.Header.Set("User-Agent", agent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return resp, nil
}

// getJSON performs a GET against an API endpoint and decodes a successful
// response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, header http.Header, out any) (*http.Response, error) {
	resp, err := c.get(ctx, endpoint, query, header)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return resp, err
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseBytes)).Decode(out); err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", domain.ErrNotFound, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode)
	default:
		return fmt.Errorf("status %d", resp.StatusCode)
	}
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
