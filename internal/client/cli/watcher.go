package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/services"
	"github.com/robfig/cron/v3"
)

// exitFn is a test seam for os.Exit.
var exitFn = os.Exit

// StartOnlineStatusWatcher checks connectivity now and then every interval
// until the returned stop function is called. Intervals below a second are
// rounded up by the scheduler.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) (stop func()) {
	a.checkOnline(ctx)

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { a.checkOnline(ctx) }); err != nil {
		a.log.Warn(ctx, "connectivity watcher disabled", "interval", interval.String(), "error", err)
		return func() {}
	}
	c.Start()

	return func() {
		<-c.Stop().Done()
	}
}

func (a *App) checkOnline(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if a.reach.Connected(ctx) {
		a.setMode(ModeOnline)
	} else {
		a.setMode(ModeOffline)
	}
}

// handleInterrupts turns Ctrl-C into a cancel of the running user sync or
// unlock prompt. With nothing to cancel the program exits.
func (a *App) handleInterrupts(ctx context.Context) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
				a.interrupt(ctx)
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func (a *App) interrupt(ctx context.Context) {
	if a.est.CancelSync() {
		a.log.Info(ctx, "user sync cancelled from terminal")
		return
	}
	if a.gate.State() == services.GateAuthenticating {
		a.gate.Cancel()
		return
	}
	a.printf("\nBye!\n")
	a.Close()
	exitFn(130)
}
