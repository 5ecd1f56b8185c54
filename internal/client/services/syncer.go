package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultSyncPollInterval = time.Second
	DefaultSyncMaxDuration  = 5 * time.Minute

	syncPollTimeout = 30 * time.Second
)

var errSyncPending = errors.New("sync still in progress")

// ProgressFunc receives sync progress as a fraction in [0, 1].
type ProgressFunc func(fraction float64)

// Syncer drives a server-side panel user download to completion by polling.
type Syncer struct {
	client      client.Client
	log         logging.Logger
	interval    time.Duration
	maxDuration time.Duration
}

func NewSyncer(c client.Client, log logging.Logger, interval, maxDuration time.Duration) *Syncer {
	if interval <= 0 {
		interval = DefaultSyncPollInterval
	}
	if maxDuration <= 0 {
		maxDuration = DefaultSyncMaxDuration
	}
	return &Syncer{client: c, log: log, interval: interval, maxDuration: maxDuration}
}

// Sync polls until the backend reports completion. Cancelling ctx stops the
// loop at the next suspension point: a poll already sent is allowed to
// finish and its result is discarded. Cancellation yields ErrCancelled;
// every other failure wraps ErrSyncFailed.
func (s *Syncer) Sync(ctx context.Context, ep models.Endpoint, panelID int64, progress ProgressFunc) error {
	if progress == nil {
		progress = func(float64) {}
	}
	progress(0)

	b := retry.WithMaxDuration(s.maxDuration, retry.NewConstant(s.interval))
	polls := 0

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		polls++
		pollCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), syncPollTimeout)
		st, err := s.client.SyncUsers(pollCtx, ep, panelID)
		cancel()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if errors.Is(err, client.ErrUnavailable) {
				s.log.Debug(ctx, "sync poll failed, retrying", "panel_id", panelID, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}

		frac := min(max(st.Progress, 0), 1)
		if st.Complete {
			frac = 1
		}
		progress(frac)

		if frac >= 1 {
			return nil
		}
		return retry.RetryableError(errSyncPending)
	})

	switch {
	case ctx.Err() != nil:
		s.log.Info(ctx, "sync cancelled", "panel_id", panelID, "polls", polls)
		return ErrCancelled
	case err != nil:
		return fmt.Errorf("%w: %w", ErrSyncFailed, err)
	}
	s.log.Info(ctx, "sync complete", "panel_id", panelID, "polls", polls)
	return nil
}
