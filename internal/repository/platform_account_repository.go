package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postcaldev/postcal/internal/models"
)

type PlatformAccountRepository interface {
	Upsert(ctx context.Context, account *models.PlatformAccount) (int64, error)
	GetByClientPlatform(ctx context.Context, clientID int64, platform string) (*models.PlatformAccount, error)
	ListByClientID(ctx context.Context, clientID int64) ([]*models.PlatformAccount, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.PlatformAccount, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	Remove(ctx context.Context, id int64) error
	CheckByClientID(ctx context.Context, accountID, clientID int64) (bool, error)
}

type platformAccountRepository struct {
	db *sql.DB
}

func NewPlatformAccountRepository(db *sql.DB) PlatformAccountRepository {
	return &platformAccountRepository{db: db}
}

const accountColumns = `id, client_id, platform, account_id, account_name, access_token,
	refresh_token, token_expires_at, status, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*models.PlatformAccount, error) {
	var pa models.PlatformAccount
	err := row.Scan(&pa.ID, &pa.ClientID, &pa.Platform, &pa.AccountID, &pa.AccountName,
		&pa.AccessToken, &pa.RefreshToken, &pa.TokenExpiresAt, &pa.Status, &pa.CreatedAt, &pa.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &pa, nil
}

// Upsert keeps at most one account per (client, platform); reconnecting a
// platform replaces the stored credentials.
func (r *platformAccountRepository) Upsert(ctx context.Context, account *models.PlatformAccount) (int64, error) {
	query := `
		INSERT INTO platform_accounts (
			client_id,
			platform,
			account_id,
			account_name,
			access_token,
			refresh_token,
			token_expires_at,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (client_id, platform) DO UPDATE
		SET account_id = EXCLUDED.account_id,
			account_name = EXCLUDED.account_name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		account.ClientID,
		account.Platform,
		account.AccountID,
		account.AccountName,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiresAt,
		account.Status,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *platformAccountRepository) GetByClientPlatform(ctx context.Context, clientID int64, platform string) (*models.PlatformAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM platform_accounts WHERE client_id = $1 AND platform = $2`
	account, err := scanAccount(r.db.QueryRowContext(ctx, query, clientID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return account, nil
}

func (r *platformAccountRepository) ListByClientID(ctx context.Context, clientID int64) ([]*models.PlatformAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM platform_accounts WHERE client_id = $1 ORDER BY platform`
	rows, err := r.db.QueryContext(ctx, query, clientID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.PlatformAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *platformAccountRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.PlatformAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM platform_accounts WHERE status = $1 AND token_expires_at <= $2`
	rows, err := r.db.QueryContext(ctx, query, models.AccountStatusActive, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.PlatformAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *platformAccountRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `
		UPDATE platform_accounts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *platformAccountRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM platform_accounts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *platformAccountRepository) CheckByClientID(ctx context.Context, accountID, clientID int64) (bool, error) {
	query := "SELECT 1 FROM platform_accounts WHERE id = $1 AND client_id = $2"

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, clientID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
