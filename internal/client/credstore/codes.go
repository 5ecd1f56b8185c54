package credstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/client/repositories/codes"
	"github.com/dmitrijs2005/panelkeeper/internal/cryptox"
	"github.com/dmitrijs2005/panelkeeper/internal/dbx"
)

// RememberedCode returns the stored code for (panelID, userID), or nil when
// there is none.
func (s *Store) RememberedCode(ctx context.Context, panelID int64, userID string) (*models.RememberedCode, error) {
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.RememberedCode, error) {
		rec, err := s.codesRepo(tx).Get(ctx, panelID, userID)
		if err != nil || rec == nil {
			return nil, err
		}

		key, err := s.metadataRepo(tx).Get(ctx, keySealKey)
		if err != nil {
			return nil, err
		}
		if len(key) != cryptox.KeySize {
			return nil, fmt.Errorf("open remembered code: %w", cryptox.ErrInvalidKey)
		}

		var pin string
		if err := cryptox.Open(rec.Sealed, rec.Nonce, key, &pin); err != nil {
			return nil, fmt.Errorf("open remembered code: %w", err)
		}

		return &models.RememberedCode{
			PanelID:    rec.PanelID,
			UserID:     rec.UserID,
			Pin:        pin,
			RememberMe: rec.RememberMe,
			Biometric:  rec.Biometric,
		}, nil
	})
}

// SetRememberedCode stores or replaces the code for (PanelID, UserID).
func (s *Store) SetRememberedCode(ctx context.Context, code models.RememberedCode) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		key, err := s.sealKey(ctx, tx)
		if err != nil {
			return err
		}
		ct, nonce, err := cryptox.Seal(code.Pin, key)
		if err != nil {
			return fmt.Errorf("seal remembered code: %w", err)
		}
		return s.codesRepo(tx).Upsert(ctx, &codes.Record{
			PanelID:    code.PanelID,
			UserID:     code.UserID,
			Sealed:     ct,
			Nonce:      nonce,
			RememberMe: code.RememberMe,
			Biometric:  code.Biometric,
		})
	})
}

// ClearRememberedCode deletes the code for (panelID, userID). Deleting a
// missing code is not an error.
func (s *Store) ClearRememberedCode(ctx context.Context, panelID int64, userID string) error {
	return s.codesRepo(s.db).Delete(ctx, panelID, userID)
}

func marshalSealed(b sealed) ([]byte, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode sealed value: %w", err)
	}
	return raw, nil
}

func unmarshalSealed(raw []byte, b *sealed) error {
	if err := json.Unmarshal(raw, b); err != nil {
		return fmt.Errorf("decode sealed value: %w", err)
	}
	return nil
}
