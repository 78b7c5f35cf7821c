package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/postcaldev/postcal/internal/models"
)

// Clients are owned by the external account-management system; the core
// reads them to validate ownership and resolve API keys, and writes only
// the api_key column when a client rotates its credentials.
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	GetByApiKey(ctx context.Context, apiKey string) (*models.Client, error)
	Exists(ctx context.Context, id int64) (bool, error)
	RotateApiKey(ctx context.Context, clientID int64, apiKey string) error
}

type clientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	query := `SELECT id, name, email, api_key, created_at FROM clients WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var c models.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.ApiKey, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

func (r *clientRepository) GetByApiKey(ctx context.Context, apiKey string) (*models.Client, error) {
	query := `SELECT id, name, email, api_key, created_at FROM clients WHERE api_key = $1`
	row := r.db.QueryRowContext(ctx, query, apiKey)

	var c models.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.ApiKey, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

func (r *clientRepository) RotateApiKey(ctx context.Context, clientID int64, apiKey string) error {
	query := `UPDATE clients SET api_key = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, apiKey, clientID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *clientRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := "SELECT 1 FROM clients WHERE id = $1"

	var result int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
