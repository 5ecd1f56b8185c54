package credstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/repositories/codes"
	"github.com/dmitrijs2005/panelkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/panelkeeper/internal/common"
	"github.com/dmitrijs2005/panelkeeper/internal/cryptox"
	"github.com/dmitrijs2005/panelkeeper/internal/dbx"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
	"github.com/google/uuid"
)

const (
	keyEmail       = "cred:email"
	keyPassword    = "cred:password"
	keyServer      = "cred:server"
	keyTheme       = "theme"
	keyDeviceToken = "device_token"
	keySealKey     = "code_key"

	lastPanelPrefix = "last_panel:"
)

// Store is the SQLite-backed credential store. It is safe for concurrent
// use.
type Store struct {
	db  *sql.DB
	log logging.Logger
}

func New(db *sql.DB, log logging.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) metadataRepo(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(db)
}

func (s *Store) codesRepo(db dbx.DBTX) codes.Repository {
	return codes.NewSQLiteRepository(db)
}

type sealed struct {
	Ciphertext []byte `json:"c"`
	Nonce      []byte `json:"n"`
}

// sealKey returns the install key, creating it on first use.
func (s *Store) sealKey(ctx context.Context, db dbx.DBTX) ([]byte, error) {
	repo := s.metadataRepo(db)
	key, err := repo.Get(ctx, keySealKey)
	if err != nil {
		return nil, err
	}
	if len(key) == cryptox.KeySize {
		return key, nil
	}
	key = common.GenerateRandByteArray(cryptox.KeySize)
	if err := repo.Set(ctx, keySealKey, key); err != nil {
		return nil, err
	}
	return key, nil
}

// storedCredentials are the raw metadata values read by Load.
type storedCredentials struct {
	email, server, password, key []byte
}

// Load returns the saved credentials. All fields come from one transaction,
// so a concurrent Save is seen whole or not at all. Missing or unreadable
// fields are returned empty.
func (s *Store) Load(ctx context.Context) models.Credentials {
	raw, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (storedCredentials, error) {
		repo := s.metadataRepo(tx)
		var sc storedCredentials
		for _, f := range []struct {
			name string
			key  string
			dst  *[]byte
		}{
			{"email", keyEmail, &sc.email},
			{"server", keyServer, &sc.server},
			{"password", keyPassword, &sc.password},
			{"seal key", keySealKey, &sc.key},
		} {
			v, err := repo.Get(ctx, f.key)
			if err != nil {
				s.log.Warn(ctx, "credential load failed", "field", f.name, "error", err)
				continue
			}
			*f.dst = v
		}
		return sc, nil
	})
	if err != nil {
		s.log.Warn(ctx, "credential load failed", "error", err)
		return models.Credentials{}
	}

	c := models.Credentials{Email: string(raw.email), Server: string(raw.server)}
	if raw.password == nil {
		return c
	}
	if len(raw.key) != cryptox.KeySize {
		s.log.Warn(ctx, "credential load failed", "field", "password", "error", "seal key unavailable")
		return c
	}
	var box sealed
	if err := unmarshalSealed(raw.password, &box); err != nil {
		s.log.Warn(ctx, "credential load failed", "field", "password", "error", err)
		return c
	}
	if err := cryptox.Open(box.Ciphertext, box.Nonce, raw.key, &c.Password); err != nil {
		s.log.Warn(ctx, "credential load failed", "field", "password", "error", err)
	}
	return c
}

// Save writes all credential fields atomically.
func (s *Store) Save(ctx context.Context, c models.Credentials) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.metadataRepo(tx)

		key, err := s.sealKey(ctx, tx)
		if err != nil {
			return err
		}
		ct, nonce, err := cryptox.Seal(c.Password, key)
		if err != nil {
			return fmt.Errorf("seal password: %w", err)
		}
		raw, err := marshalSealed(sealed{Ciphertext: ct, Nonce: nonce})
		if err != nil {
			return err
		}

		if err := repo.Set(ctx, keyEmail, []byte(c.Email)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyServer, []byte(c.Server)); err != nil {
			return err
		}
		return repo.Set(ctx, keyPassword, raw)
	})
}

// ForgetPassword removes the saved password and keeps email and server.
func (s *Store) ForgetPassword(ctx context.Context) error {
	return s.metadataRepo(s.db).Delete(ctx, keyPassword)
}

// Clear removes the saved account together with its last-panel entries and
// remembered codes. The device token and install key are kept.
func (s *Store) Clear(ctx context.Context) error {
	c := s.Load(ctx)
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.metadataRepo(tx)
		for _, k := range []string{keyEmail, keyPassword, keyServer, keyTheme} {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		if c.Email == "" {
			return nil
		}
		if err := repo.DeletePrefix(ctx, lastPanelPrefix+strings.ToLower(c.Email)+":"); err != nil {
			return err
		}
		return s.codesRepo(tx).DeleteUser(ctx, c.Email)
	})
}

func lastPanelKey(email, server string) string {
	return lastPanelPrefix + strings.ToLower(email) + ":" + server
}

// LastPanel returns the raw last panel id for the account, or "".
func (s *Store) LastPanel(ctx context.Context, email, server string) (string, error) {
	v, err := s.metadataRepo(s.db).Get(ctx, lastPanelKey(email, server))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *Store) SetLastPanel(ctx context.Context, email, server string, panelID int64) error {
	return s.metadataRepo(s.db).Set(ctx, lastPanelKey(email, server), fmt.Appendf(nil, "%d", panelID))
}

// Theme returns the cached theme name, or "".
func (s *Store) Theme(ctx context.Context) (string, error) {
	v, err := s.metadataRepo(s.db).Get(ctx, keyTheme)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *Store) SetTheme(ctx context.Context, theme string) error {
	return s.metadataRepo(s.db).Set(ctx, keyTheme, []byte(theme))
}

// DeviceToken returns the per-install identifier, creating it on first use.
func (s *Store) DeviceToken(ctx context.Context) (string, error) {
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (string, error) {
		repo := s.metadataRepo(tx)
		v, err := repo.Get(ctx, keyDeviceToken)
		if err != nil {
			return "", err
		}
		if len(v) > 0 {
			return string(v), nil
		}
		token := uuid.NewString()
		return token, repo.Set(ctx, keyDeviceToken, []byte(token))
	})
}

func (s *Store) Preferences(ctx context.Context, panelID int64, userID string) (models.CodePreferences, error) {
	return s.codesRepo(s.db).Preferences(ctx, panelID, userID)
}

func (s *Store) SetPreferences(ctx context.Context, panelID int64, userID string, prefs models.CodePreferences) error {
	return s.codesRepo(s.db).SetPreferences(ctx, panelID, userID, prefs)
}
