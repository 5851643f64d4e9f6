package services

import (
	"net/http"
	"strings"
)

const (
	BaseURLSourceEnvironment = "environment variable"
	BaseURLSourceHeaders     = "request headers"
	BaseURLSourceFallback    = "fallback"

	fallbackBaseURL = "http://localhost:3000"
)

// BaseURL is the public origin used to build redirect URLs, plus where it
// came from.
type BaseURL struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// ResolveBaseURL prefers the configured public domain, then the request's
// Host and forwarding headers, then a local development default.
func ResolveBaseURL(publicDomain string, h http.Header) BaseURL {
	if publicDomain != "" {
		return BaseURL{URL: publicDomain, Source: BaseURLSourceEnvironment}
	}

	host := h.Get("Host")
	if host == "" {
		return BaseURL{URL: fallbackBaseURL, Source: BaseURLSourceFallback}
	}
	return BaseURL{URL: requestProtocol(host, h) + "://" + host, Source: BaseURLSourceHeaders}
}

func requestProtocol(host string, h http.Header) string {
	if proto := h.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if proto := h.Get("X-Forwarded-Protocol"); proto != "" {
		return proto
	}
	if h.Get("X-Forwarded-Ssl") == "on" {
		return "https"
	}
	if isLocalHost(host) {
		return "http"
	}
	return "https"
}

func isLocalHost(host string) bool {
	for _, local := range []string{"localhost", "127.0.0.1"} {
		if host == local || strings.HasPrefix(host, local+":") {
			return true
		}
	}
	return false
}

// RequestHeaders copies the headers relevant to base URL resolution. Go's
// server moves Host out of the header map, so it is put back here.
func RequestHeaders(r *http.Request) http.Header {
	h := http.Header{}
	for _, name := range []string{"X-Forwarded-Proto", "X-Forwarded-Protocol", "X-Forwarded-Ssl", "X-Forwarded-Host"} {
		if v := r.Header.Get(name); v != "" {
			h.Set(name, v)
		}
	}
	if r.Host != "" {
		h.Set("Host", r.Host)
	}
	return h
}
