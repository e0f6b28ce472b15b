package util

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// HTTPTransportOptions tune the transport used by the result uploaders.
// Zero values fall back to the defaults.
type HTTPTransportOptions struct {
	DialTimeout        time.Duration
	IdleTimeout        time.Duration
	MaxIdleConns       int
	InsecureSkipVerify bool
}

const (
	defaultDialTimeout  = 30 * time.Second
	defaultIdleTimeout  = 20 * time.Second
	defaultMaxIdleConns = 10
)

func (o HTTPTransportOptions) withDefaults() HTTPTransportOptions {
	if o.DialTimeout <= 0 {
		o.DialTimeout = defaultDialTimeout
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = defaultIdleTimeout
	}
	if o.MaxIdleConns <= 0 {
		o.MaxIdleConns = defaultMaxIdleConns
	}
	return o
}

// NewHTTPTransport returns a transport for a single long lived client. Call
// CloseIdleConnections on it once the client is done.
func NewHTTPTransport(opts HTTPTransportOptions) *http.Transport {
	opts = opts.withDefaults()

	return &http.Transport{
		// nolint: gosec
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify},
		Proxy:               http.ProxyFromEnvironment,
		IdleConnTimeout:     opts.IdleTimeout,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConns,
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: opts.DialTimeout,
		}).DialContext,
		TLSHandshakeTimeout: opts.DialTimeout / 3,
	}
}
