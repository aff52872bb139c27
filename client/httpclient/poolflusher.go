package httpclient

import (
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"syscall"

	"go.ntppool.org/common/logger"
)

// poolFlusherTransport wraps an http.Transport and flushes the idle
// connection pool when a TLS or connection-level error shows up. Orion
// appliances drop long-idle TLS connections without closing them; a
// daemon syncing every few minutes hits that constantly.
type poolFlusherTransport struct {
	*http.Transport
	log *slog.Logger
}

func newPoolFlusherTransport(transport *http.Transport) *poolFlusherTransport {
	return &poolFlusherTransport{
		Transport: transport,
		log:       logger.Setup().WithGroup("pool-flusher"),
	}
}

func (pft *poolFlusherTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := pft.Transport.RoundTrip(req)

	if err != nil && shouldFlushConnections(err) {
		ctx := req.Context()
		pft.log.InfoContext(ctx, "connection error, flushing idle connections",
			"url", req.URL.String(), "error", err)

		pft.Transport.CloseIdleConnections()

		if req.Body == nil || req.GetBody != nil {
			if req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return resp, err
				}
				req.Body = body
			}
			pft.log.DebugContext(ctx, "retrying request after pool flush")
			resp, err = pft.Transport.RoundTrip(req)
		}
	}

	return resp, err
}

func shouldFlushConnections(err error) bool {
	return isTLSError(err) || isConnectionError(err)
}

func isTLSError(err error) bool {
	var tlsErr *tls.RecordHeaderError
	if errors.As(err, &tlsErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "certificate") ||
		strings.Contains(msg, "tls:") ||
		strings.Contains(msg, "x509:")
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset")
}
