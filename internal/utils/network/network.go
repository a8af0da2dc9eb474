package network

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/everest-mods/everest-mod-cli/internal/config/version"
	"github.com/klauspost/compress/gzhttp"
)

// userAgentTransport stamps every outgoing request with the tool's User-Agent.
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}
	return t.next.RoundTrip(req)
}

// UserAgent is the User-Agent header sent by NewSecureHTTPClient.
func UserAgent() string {
	return fmt.Sprintf("%s/%s", version.Toolname, version.Version)
}

// NewSecureHTTPClient returns a client with TLS 1.2+, bounded connect and
// header timeouts, and transparent gzip response decoding. There is no
// overall request timeout because mod archives can be large; callers bound
// requests through their context.
func NewSecureHTTPClient() *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConnsPerHost:   8,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: &userAgentTransport{
			next:      gzhttp.Transport(base),
			userAgent: UserAgent(),
		},
	}
}
