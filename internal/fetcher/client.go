package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/parser"
	"github.com/llmstxt-kit/llmstxt-go/internal/utils"
	"github.com/llmstxt-kit/llmstxt-go/pkg/version"
)

const defaultAccept = "text/plain, text/markdown;q=0.9, */*;q=0.8"

// Client fetches llms.txt files and linked content over one shared
// HTTP connection pool. The same client backs the context generator
// and the validator's URL probes so retry and timeout semantics stay
// consistent everywhere.
type Client struct {
	httpClient *http.Client
	headClient *http.Client
	opts       domain.FetchOptions
	retrier    *Retrier
	parser     *parser.Parser
	logger     *utils.Logger
}

var _ domain.ContentFetcher = (*Client)(nil)

// NewClient creates a fetcher client with the given options
func NewClient(opts domain.FetchOptions, logger *utils.Logger) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = version.UserAgent()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = domain.DefaultFetchTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = domain.DefaultRetryDelay
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = domain.DefaultMaxResponseSize
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	retrier := NewRetrier(RetrierOptions{
		MaxRetries:      opts.MaxRetries,
		InitialInterval: opts.RetryDelay,
		Multiplier:      2.0,
	})

	return &Client{
		httpClient: &http.Client{Transport: transport},
		headClient: &http.Client{
			Transport: transport,
			// HEAD probes must surface 3xx instead of following them
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		opts:    opts,
		retrier: retrier,
		parser:  parser.New(domain.ParserOptions{MaxInputSize: int(opts.MaxResponseSize)}),
		logger:  logger.WithComponent("fetcher"),
	}
}

// HTTPClient exposes the shared client for components that need raw
// access to the connection pool
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// UserAgent returns the configured User-Agent
func (c *Client) UserAgent() string {
	return c.opts.UserAgent
}

// Close releases idle connections
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Fetch retrieves https://{domain}/llms.txt and classifies the
// outcome. Every operational failure is returned as a FetchResult
// value; the error return is reserved for programmer errors and
// cancellation.
func (c *Client) Fetch(ctx context.Context, host string) (*domain.FetchResult, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, domain.ErrEmptyDomain
	}

	target := "https://" + host + "/llms.txt"
	start := time.Now()
	log := c.logger.WithDomain(host)

	var result *domain.FetchResult
	retryErr := c.retrier.Retry(ctx, func() error {
		res, err := c.attempt(ctx, host, target)
		if res != nil {
			result = res
		}
		return err
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if result == nil {
		return nil, retryErr
	}

	result.Duration = time.Since(start)
	log.Debug().
		Str("status", string(result.Status)).
		Int("code", result.StatusCode).
		Dur("duration", result.Duration).
		Msg("fetch completed")

	return result, nil
}

// attempt performs a single fetch attempt. A non-nil error marks the
// outcome as retriable; terminal classifications return (result, nil).
func (c *Client) attempt(ctx context.Context, host, target string) (*domain.FetchResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", target, err)
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return c.classifyTransportFailure(host, target, err)
	}
	defer resp.Body.Close()

	body, truncated, err := c.readBody(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result := &domain.FetchResult{
			Domain:       host,
			Status:       domain.StatusError,
			StatusCode:   resp.StatusCode,
			Headers:      LowercaseHeaders(resp.Header),
			ErrorMessage: "failed to read response body: " + err.Error(),
		}
		return result, domain.NewFetchError(target, 0, err)
	}

	headers := LowercaseHeaders(resp.Header)
	result := &domain.FetchResult{
		Domain:     host,
		StatusCode: resp.StatusCode,
		Headers:    headers,
		RawContent: string(body),
	}

	if truncated {
		result.Status = domain.StatusError
		result.ErrorMessage = fmt.Sprintf("response body exceeds %d bytes and was truncated", c.opts.MaxResponseSize)
		return result, nil
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		result.Status = domain.StatusSuccess
		result.Document = c.parser.Parse(string(body))
		return result, nil

	case resp.StatusCode == http.StatusNotFound:
		result.Status = domain.StatusNotFound
		return result, nil

	case resp.StatusCode == http.StatusForbidden:
		result.Status = domain.StatusBlocked
		result.BlockReason = BlockReason(headers, body)
		return result, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		result.Status = domain.StatusRateLimited
		result.RetryAfter = ParseRetryAfter(headers["retry-after"])
		return result, nil

	case ShouldRetryStatus(resp.StatusCode):
		result.Status = domain.StatusError
		result.ErrorMessage = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result, domain.NewFetchError(target, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode))

	default:
		result.Status = domain.StatusError
		result.ErrorMessage = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return result, nil
	}
}

// classifyTransportFailure maps a network-layer error onto the
// DnsFailure / Timeout / Error categories
func (c *Client) classifyTransportFailure(host, target string, err error) (*domain.FetchResult, error) {
	result := &domain.FetchResult{Domain: host, ErrorMessage: err.Error()}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		result.Status = domain.StatusDNSFailure
		return result, nil
	}

	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		result.Status = domain.StatusTimeout
		return result, domain.NewFetchError(target, 0, domain.ErrTimeout)
	}

	result.Status = domain.StatusError
	return result, domain.NewFetchError(target, 0, err)
}

// Get fetches a linked content URL with the same retry and size
// semantics as the primary fetch
func (c *Client) Get(ctx context.Context, rawURL string) (*domain.Response, error) {
	var resp *domain.Response
	err := c.retrier.Retry(ctx, func() error {
		var err error
		resp, err = c.doGet(ctx, rawURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) doGet(ctx context.Context, rawURL string) (*domain.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", rawURL, err)
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewFetchError(rawURL, 0, domain.ErrTimeout)
		}
		return nil, domain.NewFetchError(rawURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if ShouldRetryStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        domain.NewFetchError(rawURL, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)),
				RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
			}
		}
		return nil, domain.NewFetchError(rawURL, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, truncated, err := c.readBody(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(rawURL, 0, err)
	}
	if truncated {
		return nil, domain.NewFetchError(rawURL, resp.StatusCode, domain.ErrBodyTooLarge)
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         rawURL,
	}, nil
}

// Head issues a single HEAD probe without following redirects, so 3xx
// responses are observable by the caller
func (c *Client) Head(ctx context.Context, rawURL string) (*domain.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", rawURL, err)
	}
	c.applyHeaders(req)

	resp, err := c.headClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domain.NewFetchError(rawURL, 0, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         rawURL,
	}, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.AcceptHeader != "" {
		req.Header.Set("Accept", c.opts.AcceptHeader)
	} else {
		req.Header.Set("Accept", defaultAccept)
	}
}

// readBody reads up to MaxResponseSize bytes and reports whether the
// body exceeded the ceiling
func (c *Client) readBody(r io.Reader) ([]byte, bool, error) {
	limited := io.LimitReader(r, c.opts.MaxResponseSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > c.opts.MaxResponseSize {
		return body[:c.opts.MaxResponseSize], true, nil
	}
	return body, false, nil
}
