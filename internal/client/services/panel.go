package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/session"
	"github.com/dmitrijs2005/panelkeeper/internal/common"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
)

const timezoneFetchTimeout = 15 * time.Second

// PanelService holds the panel operations available after login: recipe
// timers, timezone and recipe effects. Every call uses the panel of the
// current session and fails with common.ErrNotLoggedIn without one.
type PanelService struct {
	client  client.Client
	session *session.Holder
	log     logging.Logger

	mu        sync.Mutex
	timezones []string
}

func NewPanelService(c client.Client, h *session.Holder, log logging.Logger) *PanelService {
	return &PanelService{client: c, session: h, log: log}
}

func (s *PanelService) current() (models.SessionToken, error) {
	sess, ok := s.session.Current()
	if !ok || !sess.LoggedIn() {
		return models.SessionToken{}, common.ErrNotLoggedIn
	}
	return sess, nil
}

func (s *PanelService) Timers(ctx context.Context) ([]models.Timer, error) {
	sess, err := s.current()
	if err != nil {
		return nil, err
	}
	timers, err := s.client.Timers(ctx, sess.Endpoint(), sess.PanelID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timer list: %w", err)
	}
	return timers, nil
}

func (s *PanelService) Timer(ctx context.Context, number int) (*models.Timer, error) {
	sess, err := s.current()
	if err != nil {
		return nil, err
	}
	timer, err := s.client.Timer(ctx, sess.Endpoint(), sess.PanelID, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timer %d: %w", number, err)
	}
	return timer, nil
}

// DeleteTimer removes a timer and returns the refreshed list.
func (s *PanelService) DeleteTimer(ctx context.Context, number int) ([]models.Timer, error) {
	sess, err := s.current()
	if err != nil {
		return nil, err
	}
	if err := s.client.DeleteTimer(ctx, sess.Endpoint(), sess.PanelID, number); err != nil {
		return nil, fmt.Errorf("failed to remove timer %d: %w", number, err)
	}
	s.log.Info(ctx, "timer removed", "panel_id", sess.PanelID, "timer", number)
	return s.Timers(ctx)
}

// FreeTimerSlot returns the number of the first unused timer slot.
func FreeTimerSlot(timers []models.Timer) (int, bool) {
	for _, t := range timers {
		if t.Empty() {
			return t.Number, true
		}
	}
	return 0, false
}

// Timezones returns the backend's timezone list. The first successful
// fetch is cached for the life of the service.
func (s *PanelService) Timezones(ctx context.Context) ([]string, error) {
	sess, err := s.current()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timezones != nil {
		return s.timezones, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timezoneFetchTimeout)
	defer cancel()

	zones, err := s.client.Timezones(ctx, sess.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timezones: %w", err)
	}
	s.timezones = zones
	return zones, nil
}

func (s *PanelService) SetTimezone(ctx context.Context, timezone string) error {
	sess, err := s.current()
	if err != nil {
		return err
	}
	if err := s.client.SetTimezone(ctx, sess.Endpoint(), sess.PanelID, timezone); err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}
	s.log.Info(ctx, "panel timezone set", "panel_id", sess.PanelID, "timezone", timezone)
	return nil
}

func (s *PanelService) Effects(ctx context.Context) ([]models.Effect, error) {
	sess, err := s.current()
	if err != nil {
		return nil, err
	}
	effects, err := s.client.Effects(ctx, sess.Endpoint(), sess.PanelID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve causes & effects: %w", err)
	}
	return effects, nil
}

// SystemDetails pings the panel for its current version markers.
func (s *PanelService) SystemDetails(ctx context.Context) (models.StatusDetails, error) {
	sess, err := s.current()
	if err != nil {
		return models.StatusDetails{}, err
	}
	resp, err := s.client.Ping(ctx, sess.Endpoint(), sess.PanelID)
	if err != nil {
		return models.StatusDetails{}, fmt.Errorf("failed to read system details: %w", err)
	}
	if resp.Response != models.ResponseResult {
		return models.StatusDetails{}, fmt.Errorf("failed to read system details: %w", ErrUnreachable)
	}
	return resp.Details, nil
}
