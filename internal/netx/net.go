// Package netx holds small network helpers: plain HTTP downloads for cached
// theme assets and a dial probe used as the reachability check.
package netx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// MaxDownloadSize caps the body read by Download.
const MaxDownloadSize = 8 << 20

// Download fetches url with GET and returns the body. Any non-200 status is
// an error that includes the status line.
func Download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxDownloadSize {
		return nil, fmt.Errorf("download failed: body exceeds %d bytes", MaxDownloadSize)
	}
	return body, nil
}

// CanDial reports whether a TCP connection to addr can be opened within
// timeout. The connection is closed immediately.
func CanDial(ctx context.Context, addr string, timeout time.Duration) bool {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
