package platform

import (
	"context"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/netx"
)

// DefaultProbeAddr is dialled when no probe address is configured.
const DefaultProbeAddr = "1.1.1.1:443"

// DialReachability reports connectivity by opening a TCP connection to Addr.
type DialReachability struct {
	Addr    string
	Timeout time.Duration
}

func NewDialReachability(addr string, timeout time.Duration) *DialReachability {
	if addr == "" {
		addr = DefaultProbeAddr
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &DialReachability{Addr: addr, Timeout: timeout}
}

func (r *DialReachability) Connected(ctx context.Context) bool {
	return netx.CanDial(ctx, r.Addr, r.Timeout)
}
