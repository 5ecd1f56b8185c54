package codes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
)

// Record is a remembered code as stored: the PIN is sealed, never plaintext.
type Record struct {
	PanelID    int64
	UserID     string
	Sealed     []byte
	Nonce      []byte
	RememberMe bool
	Biometric  bool
	UpdatedAt  time.Time
}

type Repository interface {
	Get(ctx context.Context, panelID int64, userID string) (*Record, error)
	Upsert(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, panelID int64, userID string) error

	Preferences(ctx context.Context, panelID int64, userID string) (models.CodePreferences, error)
	SetPreferences(ctx context.Context, panelID int64, userID string, prefs models.CodePreferences) error

	DeleteUser(ctx context.Context, userID string) error
}
