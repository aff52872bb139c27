// Package httpclient builds the http.Client the API clients share.
package httpclient

import (
	"crypto/tls"
	"net/http"
	"time"

	"go.ntppool.org/common/version"
)

type Options struct {
	// InsecureTLS disables certificate verification. Orion appliances
	// ship self-signed certificates on the SWIS port.
	InsecureTLS bool

	// Timeout caps each request end to end. Zero means the default.
	Timeout time.Duration
}

const defaultTimeout = 60 * time.Second

func New(opts Options) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:          10,
		IdleConnTimeout:       120 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 40 * time.Second,
	}
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			next: newPoolFlusherTransport(transport),
		},
	}
}

type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", "solareyes/"+version.Version())
	}
	return t.next.RoundTrip(req)
}
