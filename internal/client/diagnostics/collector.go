// Package diagnostics records issue-tracking context for the client: who is
// logged in, to which server and panel, and which unexpected errors occurred.
package diagnostics

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/panelkeeper/internal/logging"
)

// Collector receives user context and unexpected errors.
type Collector interface {
	SetUser(ctx context.Context, fields map[string]string)
	Capture(ctx context.Context, err error, msg string)
}

// LogCollector reports through a logging.Logger. The current user context is
// attached to every captured error.
type LogCollector struct {
	log logging.Logger

	mu   sync.Mutex
	user map[string]string
}

func NewLogCollector(log logging.Logger) *LogCollector {
	return &LogCollector{log: log}
}

// SetUser replaces the user context. Values under "token" and "password"
// are never recorded.
func (c *LogCollector) SetUser(ctx context.Context, fields map[string]string) {
	user := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "token" || k == "password" {
			continue
		}
		user[k] = v
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	c.log.Debug(ctx, "diagnostics user context", c.args()...)
}

func (c *LogCollector) Capture(ctx context.Context, err error, msg string) {
	args := c.args()
	if err != nil {
		args = append(args, "error", err)
	}
	c.log.Error(ctx, msg, args...)
}

// User returns a copy of the current user context.
func (c *LogCollector) User() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]string, len(c.user))
	for k, v := range c.user {
		out[k] = v
	}
	return out
}

func (c *LogCollector) args() []any {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.user))
	for k := range c.user {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		args = append(args, "user."+k, c.user[k])
	}
	return args
}
