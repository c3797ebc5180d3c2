package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/StudyRAG/internal/config"
)

func newProviderTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
	}
}

// GetPooledClient is shared by the embedding and generation SDK clients so
// they reuse connections to the provider. A single provider call never
// outlives ProviderCallTimeout even when the caller's context has no deadline.
var GetPooledClient = sync.OnceValue(func() *http.Client {
	return &http.Client{
		Transport: newProviderTransport(),
		Timeout:   config.ProviderCallTimeout,
	}
})
