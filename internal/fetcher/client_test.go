package fetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

// testClient builds a client whose HTTP clients trust the test
// server's certificate
func testClient(ts *httptest.Server, opts domain.FetchOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = time.Millisecond
	}
	c := NewClient(opts, nil)
	c.httpClient = ts.Client()
	headClient := *ts.Client()
	headClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.headClient = &headClient
	return c
}

func serverHost(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "https://")
}

func TestFetchSuccess(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/llms.txt", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "LlmsTxtKit/")
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("# Site\n> summary\n## Docs\n- [G](https://x/g.md): guide\n"))
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, 200, result.StatusCode)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, "text/plain", result.Header("content-type"))

	require.NotNil(t, result.Document)
	assert.Equal(t, "Site", result.Document.Title)
	assert.Equal(t, "summary", result.Document.Summary)
	require.Len(t, result.Document.Sections, 1)
}

func TestFetchNotFound(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 3})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotFound, result.Status)
	assert.Equal(t, 404, result.StatusCode)
	assert.Nil(t, result.Document)
	assert.Equal(t, int32(1), requests.Load(), "404 is a stable answer; no retries")
}

func TestFetchCloudflareBlock(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("cf-ray", "abc-IAD")
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 3})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusBlocked, result.Status)
	assert.Equal(t, 403, result.StatusCode)
	assert.Contains(t, result.BlockReason, "Cloudflare")
	assert.Nil(t, result.Document)
	assert.Equal(t, int32(1), requests.Load(), "blocked is a stable answer; no retries")
}

func TestFetchRateLimited(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 3})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusRateLimited, result.Status)
	assert.Equal(t, 60*time.Second, result.RetryAfter)
	assert.Equal(t, int32(1), requests.Load(), "429 is never retried automatically")
}

func TestFetchServerErrorRetried(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 2})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, 500, result.StatusCode)
	assert.Equal(t, int32(3), requests.Load(), "1 initial attempt + maxRetries")
}

func TestFetchServerErrorRecovers(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("# Site\n"))
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 2})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, int32(3), requests.Load())
}

func TestFetchOtherClientErrorNotRetried(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 3})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Equal(t, 418, result.StatusCode)
	assert.Equal(t, int32(1), requests.Load())
}

func TestFetchEmptyDomain(t *testing.T) {
	c := NewClient(domain.FetchOptions{}, nil)

	_, err := c.Fetch(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyDomain)

	_, err = c.Fetch(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyDomain)
}

func TestFetchBodyTooLarge(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxResponseSize: 1024})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, result.Status)
	assert.Contains(t, result.ErrorMessage, "exceeds")
	assert.Nil(t, result.Document)
}

func TestFetchTimeout(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{Timeout: 50 * time.Millisecond, MaxRetries: 2})
	result, err := c.Fetch(context.Background(), serverHost(ts))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusTimeout, result.Status)
	assert.Equal(t, int32(3), requests.Load(), "timeouts are retried up to maxRetries")
}

func TestFetchCancellation(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	c := testClient(ts, domain.FetchOptions{})
	_, err := c.Fetch(ctx, serverHost(ts))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyTransportFailure(t *testing.T) {
	c := NewClient(domain.FetchOptions{}, nil)

	result, err := c.classifyTransportFailure("x.y", "https://x.y/llms.txt", &net.DNSError{
		Err: "no such host", Name: "x.y", IsNotFound: true,
	})
	require.NoError(t, err, "DNS failure is terminal")
	assert.Equal(t, domain.StatusDNSFailure, result.Status)

	result, err = c.classifyTransportFailure("x.y", "https://x.y/llms.txt", context.DeadlineExceeded)
	require.Error(t, err, "timeouts are retriable")
	assert.Equal(t, domain.StatusTimeout, result.Status)
	assert.True(t, domain.IsRetryable(err))

	result, err = c.classifyTransportFailure("x.y", "https://x.y/llms.txt", errors.New("connection reset"))
	require.Error(t, err, "transport errors are retriable")
	assert.Equal(t, domain.StatusError, result.Status)
	assert.True(t, domain.IsRetryable(err))
}

func TestGetLinkedContent(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		_, _ = w.Write([]byte("# Linked\n"))
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{})
	resp, err := c.Get(context.Background(), ts.URL+"/doc.md")

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "text/markdown", resp.ContentType)
	assert.Equal(t, "# Linked\n", string(resp.Body))
}

func TestGetNotFoundIsNotRetried(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 3})
	_, err := c.Get(context.Background(), ts.URL+"/doc.md")

	require.Error(t, err)
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 404, fetchErr.StatusCode)
	assert.Equal(t, int32(1), requests.Load())
}

func TestGetServerErrorRetried(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxRetries: 2})
	resp, err := c.Get(context.Background(), ts.URL+"/doc.md")

	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(2), requests.Load())
}

func TestGetBodyTooLarge(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{MaxResponseSize: 512})
	_, err := c.Get(context.Background(), ts.URL+"/doc.md")

	assert.ErrorIs(t, err, domain.ErrBodyTooLarge)
}

func TestHeadDoesNotFollowRedirects(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Location", "https://elsewhere.example/")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer ts.Close()

	c := testClient(ts, domain.FetchOptions{})
	resp, err := c.Head(context.Background(), ts.URL+"/doc.md")

	require.NoError(t, err)
	assert.Equal(t, 301, resp.StatusCode)
	assert.Equal(t, "https://elsewhere.example/", resp.Headers.Get("Location"))
}
