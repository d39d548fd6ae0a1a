package tooling

import (
	"net/http"
	"net/url"
	"time"
)

// HTTPDoer abstracts the HTTP client so tools can be tested with a fake
// transport. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// probeUserAgent is sent on outbound OSINT probes. Several targets block
// default Go user agents outright.
const probeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewProbeClient builds the shared HTTP client for OSINT probes, routed
// through proxyURL when non-empty (e.g. a local Tor SOCKS proxy). An invalid
// proxy URL is ignored rather than fatal, matching the best-effort nature of
// the probes.
func NewProbeClient(proxyURL string) *http.Client {
	client := &http.Client{Timeout: 30 * time.Second}
	if proxyURL == "" {
		return client
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return client
	}
	client.Transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	return client
}
