package fetcher

import (
	"net/http"
	"strings"
)

// WAF vendor names reported in FetchResult.BlockReason
const (
	VendorCloudflare = "Cloudflare"
	VendorAWS        = "AWS CloudFront/WAF"
	VendorAkamai     = "Akamai"
)

// Cloudflare challenge pages carry these markers in the body even when
// the identifying headers are stripped by an intermediary.
var cloudflareBodyMarkers = []string{
	"cf-browser-verification",
	"cf_chl_opt",
	"Attention Required! | Cloudflare",
	"Checking your browser before accessing",
}

// DetectWAF inspects a 403 response for vendor fingerprints and
// returns the vendor name, or "" when none matches.
func DetectWAF(headers map[string]string, body []byte) string {
	server := headers["server"]

	if headers["cf-ray"] != "" || strings.EqualFold(server, "cloudflare") {
		return VendorCloudflare
	}
	bodyStr := string(body)
	for _, marker := range cloudflareBodyMarkers {
		if strings.Contains(bodyStr, marker) {
			return VendorCloudflare
		}
	}

	if strings.EqualFold(server, "CloudFront") ||
		headers["x-amz-cf-id"] != "" ||
		headers["x-amzn-waf-action"] != "" {
		return VendorAWS
	}

	if strings.EqualFold(server, "AkamaiGHost") ||
		headers["x-akamai-transformed"] != "" {
		return VendorAkamai
	}

	return ""
}

// BlockReason builds the human-readable reason for a 403. When no
// vendor matches, the generic HTTP 403 message is used.
func BlockReason(headers map[string]string, body []byte) string {
	if vendor := DetectWAF(headers, body); vendor != "" {
		return vendor + " block detected"
	}
	return "HTTP 403 Forbidden"
}

// LowercaseHeaders flattens an http.Header into a lowercase-keyed map.
// Multi-valued headers are joined with ", " per RFC 9110 list syntax.
func LowercaseHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, values := range h {
		out[strings.ToLower(k)] = strings.Join(values, ", ")
	}
	return out
}
