package client

import (
	"context"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
)

// Client is the backend API surface used by the services layer.
type Client interface {
	Authenticate(ctx context.Context, server string, req models.AuthRequest) (*models.AuthResponse, error)
	Panels(ctx context.Context, ep models.Endpoint) ([]models.PanelSummary, error)
	Ping(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PingResponse, error)
	SetCode(ctx context.Context, ep models.Endpoint, panelID int64, code string) error
	SyncUsers(ctx context.Context, ep models.Endpoint, panelID int64) (*models.SyncStatus, error)
	PanelLogin(ctx context.Context, ep models.Endpoint, panelID int64) (*models.PanelLoginResponse, error)

	Timezones(ctx context.Context, ep models.Endpoint) ([]string, error)
	SetTimezone(ctx context.Context, ep models.Endpoint, panelID int64, timezone string) error
	Timers(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Timer, error)
	Timer(ctx context.Context, ep models.Endpoint, panelID int64, number int) (*models.Timer, error)
	DeleteTimer(ctx context.Context, ep models.Endpoint, panelID int64, number int) error
	Effects(ctx context.Context, ep models.Endpoint, panelID int64) ([]models.Effect, error)
	HelpImages(ctx context.Context, ep models.Endpoint, theme string) ([]models.ThemeImage, error)
	Download(ctx context.Context, url string) ([]byte, error)
}
