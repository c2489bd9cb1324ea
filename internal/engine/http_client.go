package engine

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// readTimeoutConn bounds the gap between received bytes. The deadline is
// armed when a request is written and pushed forward on every byte read.
// It is never armed by starting a Read, because the transport keeps a Read
// pending on idle connections and an idle gap must not eat into the next
// request's budget.
type readTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readTimeoutConn) Write(b []byte) (int, error) {
	// Applies to the Read the transport already has pending
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

func (c *readTimeoutConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.Conn.SetReadDeadline(time.Now().Add(c.timeout))
	}
	return n, err
}

// NewHTTPClient builds the resty client shared by all fetch workers.
func NewHTTPClient(connectTimeout, readTimeout time.Duration, maxConns int) *resty.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &readTimeoutConn{Conn: conn, timeout: readTimeout}, nil
		},
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: readTimeout,
		MaxIdleConnsPerHost:   maxConns,
		// Retire idle connections before their read deadline can fire
		IdleConnTimeout: readTimeout / 2,
	}

	return resty.New().
		SetTransport(transport).
		SetRetryCount(0)
}
