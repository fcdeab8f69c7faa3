package customHttpClient

import (
	"net/http"

	"github.com/aruiz/feinscan/internal/config"
)

// PooledTransport is shared by outbound clients so recognition calls reuse
// connections instead of paying the handshake per chunk.
var PooledTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewPooledClient returns an http.Client on the shared transport. Timeout 0
// means callers bound each request with a context deadline instead.
func NewPooledClient() *http.Client {
	return &http.Client{Transport: PooledTransport}
}
