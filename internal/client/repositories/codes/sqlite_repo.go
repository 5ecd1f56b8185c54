package codes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, panelID int64, userID string) (*Record, error) {
	rec := &Record{PanelID: panelID, UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		SELECT pin, nonce, remember_me, biometric, updated_at
		FROM remembered_codes WHERE panel_id = ? AND user_id = ?
	`, panelID, userID).Scan(&rec.Sealed, &rec.Nonce, &rec.RememberMe, &rec.Biometric, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get code for panel %d: %w", panelID, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, rec *Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO remembered_codes (panel_id, user_id, pin, nonce, remember_me, biometric, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(panel_id, user_id) DO UPDATE SET
			pin = excluded.pin,
			nonce = excluded.nonce,
			remember_me = excluded.remember_me,
			biometric = excluded.biometric,
			updated_at = excluded.updated_at
	`, rec.PanelID, rec.UserID, rec.Sealed, rec.Nonce, rec.RememberMe, rec.Biometric)
	if err != nil {
		return fmt.Errorf("failed to store code for panel %d: %w", rec.PanelID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, panelID int64, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM remembered_codes WHERE panel_id = ? AND user_id = ?`, panelID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete code for panel %d: %w", panelID, err)
	}
	return nil
}

func (r *SQLiteRepository) Preferences(ctx context.Context, panelID int64, userID string) (models.CodePreferences, error) {
	var p models.CodePreferences
	err := r.db.QueryRowContext(ctx, `
		SELECT remember_me, biometric FROM code_preferences WHERE panel_id = ? AND user_id = ?
	`, panelID, userID).Scan(&p.RememberMe, &p.Biometric)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CodePreferences{}, nil
	}
	if err != nil {
		return models.CodePreferences{}, fmt.Errorf("failed to get preferences for panel %d: %w", panelID, err)
	}
	return p, nil
}

func (r *SQLiteRepository) SetPreferences(ctx context.Context, panelID int64, userID string, prefs models.CodePreferences) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO code_preferences (panel_id, user_id, remember_me, biometric)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(panel_id, user_id) DO UPDATE SET
			remember_me = excluded.remember_me,
			biometric = excluded.biometric
	`, panelID, userID, prefs.RememberMe, prefs.Biometric)
	if err != nil {
		return fmt.Errorf("failed to set preferences for panel %d: %w", panelID, err)
	}
	return nil
}

// DeleteUser removes every code and preference row for userID.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM remembered_codes WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete codes: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM code_preferences WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}
