package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		header http.Header
		want   BaseURL
	}{
		{
			name:   "configured domain wins over headers",
			domain: "https://ictb.lk",
			header: headers("Host", "evil.example", "X-Forwarded-Proto", "http"),
			want:   BaseURL{URL: "https://ictb.lk", Source: BaseURLSourceEnvironment},
		},
		{
			name:   "forwarded proto",
			header: headers("Host", "donate.ictb.lk", "X-Forwarded-Proto", "https"),
			want:   BaseURL{URL: "https://donate.ictb.lk", Source: BaseURLSourceHeaders},
		},
		{
			name:   "forwarded protocol",
			header: headers("Host", "donate.ictb.lk", "X-Forwarded-Protocol", "http"),
			want:   BaseURL{URL: "http://donate.ictb.lk", Source: BaseURLSourceHeaders},
		},
		{
			name:   "forwarded ssl on",
			header: headers("Host", "localhost:3000", "X-Forwarded-Ssl", "on"),
			want:   BaseURL{URL: "https://localhost:3000", Source: BaseURLSourceHeaders},
		},
		{
			name:   "localhost with port is http",
			header: headers("Host", "localhost:8080"),
			want:   BaseURL{URL: "http://localhost:8080", Source: BaseURLSourceHeaders},
		},
		{
			name:   "loopback ip is http",
			header: headers("Host", "127.0.0.1"),
			want:   BaseURL{URL: "http://127.0.0.1", Source: BaseURLSourceHeaders},
		},
		{
			name:   "public host defaults to https",
			header: headers("Host", "donate.ictb.lk"),
			want:   BaseURL{URL: "https://donate.ictb.lk", Source: BaseURLSourceHeaders},
		},
		{
			name:   "no domain and no host",
			header: http.Header{},
			want:   BaseURL{URL: "http://localhost:3000", Source: BaseURLSourceFallback},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBaseURL(tt.domain, tt.header))
		})
	}
}

func TestRequestHeaders_RestoresHost(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://donate.ictb.lk/create-payment-session", nil)
	req.Header.Set("X-Forwarded-Proto", "https")

	h := RequestHeaders(req)
	assert.Equal(t, "donate.ictb.lk", h.Get("Host"))
	assert.Equal(t, "https", h.Get("X-Forwarded-Proto"))
	assert.Equal(t, BaseURL{URL: "https://donate.ictb.lk", Source: BaseURLSourceHeaders}, ResolveBaseURL("", h))
}
