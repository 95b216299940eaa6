package engine

import (
	"net"
	"net/http"
	"time"
)

// User-Agent strings used across provider clients.
const (
	UserAgentBot     = "JobMarket/1.0"
	UserAgentBrowser = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// NewHTTPClient builds the shared HTTP client for provider calls.
// Providers are low-volume JSON/RSS APIs; a modest pooled transport is
// plenty.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
