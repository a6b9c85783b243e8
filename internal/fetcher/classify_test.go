package fetcher

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetectWAF(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		body    string
		want    string
	}{
		{
			name:    "cloudflare by cf-ray header",
			headers: map[string]string{"cf-ray": "abc-IAD"},
			want:    VendorCloudflare,
		},
		{
			name:    "cloudflare by server header",
			headers: map[string]string{"server": "cloudflare"},
			want:    VendorCloudflare,
		},
		{
			name:    "cloudflare server header case insensitive",
			headers: map[string]string{"server": "Cloudflare"},
			want:    VendorCloudflare,
		},
		{
			name:    "cloudflare by challenge body",
			headers: map[string]string{},
			body:    "<html>Checking your browser before accessing example.com</html>",
			want:    VendorCloudflare,
		},
		{
			name:    "aws by x-amz-cf-id",
			headers: map[string]string{"x-amz-cf-id": "xyz"},
			want:    VendorAWS,
		},
		{
			name:    "aws by waf action header",
			headers: map[string]string{"x-amzn-waf-action": "captcha"},
			want:    VendorAWS,
		},
		{
			name:    "aws by cloudfront server",
			headers: map[string]string{"server": "CloudFront"},
			want:    VendorAWS,
		},
		{
			name:    "akamai by server header",
			headers: map[string]string{"server": "AkamaiGHost"},
			want:    VendorAkamai,
		},
		{
			name:    "akamai by transform header",
			headers: map[string]string{"x-akamai-transformed": "9 - 0 pmb=mRUM,1"},
			want:    VendorAkamai,
		},
		{
			name:    "no vendor fingerprint",
			headers: map[string]string{"server": "nginx"},
			body:    "forbidden",
			want:    "",
		},
		{
			name:    "cloudflare wins over aws when both present",
			headers: map[string]string{"cf-ray": "abc", "x-amz-cf-id": "xyz"},
			want:    VendorCloudflare,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectWAF(tt.headers, []byte(tt.body)))
		})
	}
}

func TestBlockReason(t *testing.T) {
	assert.Equal(t, "Cloudflare block detected",
		BlockReason(map[string]string{"cf-ray": "abc"}, nil))
	assert.Equal(t, "HTTP 403 Forbidden",
		BlockReason(map[string]string{"server": "nginx"}, nil))
}

func TestLowercaseHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "text/plain")
	h.Set("CF-Ray", "abc-IAD")
	h.Add("Vary", "Accept")
	h.Add("Vary", "Accept-Encoding")

	out := LowercaseHeaders(h)

	assert.Equal(t, "text/plain", out["content-type"])
	assert.Equal(t, "abc-IAD", out["cf-ray"])
	assert.Equal(t, "Accept, Accept-Encoding", out["vary"])
	_, hasUppercase := out["Content-Type"]
	assert.False(t, hasUppercase)
}

func TestShouldRetryStatus(t *testing.T) {
	assert.True(t, ShouldRetryStatus(500))
	assert.True(t, ShouldRetryStatus(502))
	assert.True(t, ShouldRetryStatus(599))
	assert.False(t, ShouldRetryStatus(499))
	assert.False(t, ShouldRetryStatus(429))
	assert.False(t, ShouldRetryStatus(404))
	assert.False(t, ShouldRetryStatus(200))
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 60*time.Second, ParseRetryAfter("60"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-5"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))

	// HTTP-date form: a date in the near future yields a positive delay
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	delay := ParseRetryAfter(future)
	assert.Greater(t, delay, 80*time.Second)
	assert.LessOrEqual(t, delay, 90*time.Second)

	// Dates in the past yield zero
	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	assert.Equal(t, time.Duration(0), ParseRetryAfter(past))
}
