package service

import (
	"context"
	"log/slog"
	"time"

	config "github.com/postcaldev/postcal/configs"
	"github.com/postcaldev/postcal/internal/apperrors"
	"github.com/postcaldev/postcal/internal/models"
	"github.com/postcaldev/postcal/internal/repository"
	"github.com/postcaldev/postcal/internal/transfer"
	"github.com/postcaldev/postcal/pkg/utils"
)

// RegistryService is the platform account registry: it resolves the stored
// credentials for a (client, platform) pair and manages connections.
type RegistryService interface {
	Lookup(ctx context.Context, clientID int64, platform string) (*models.PlatformAccount, error)
	Connect(ctx context.Context, clientID int64, conn *transfer.AccountConnection) (int64, error)
	Disconnect(ctx context.Context, clientID, accountID int64) error
	List(ctx context.Context, clientID int64) ([]*models.PlatformAccount, error)
	MarkAuthExpired(ctx context.Context, accountID int64) error
	SweepExpiring(ctx context.Context, cutoff time.Time) (int, error)
}

type registryService struct {
	cfg config.Config
	pa  repository.PlatformAccountRepository
}

func NewRegistryService(cfg config.Config, pa repository.PlatformAccountRepository) RegistryService {
	return &registryService{cfg: cfg, pa: pa}
}

// Lookup returns the account with its access token decrypted, ready to hand
// to an adapter. A missing row means the platform was never connected.
func (s *registryService) Lookup(ctx context.Context, clientID int64, platform string) (*models.PlatformAccount, error) {
	account, err := s.pa.GetByClientPlatform(ctx, clientID, platform)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, apperrors.NotFound("platform account")
	}

	decrypted, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	account.AccessToken = decrypted

	return account, nil
}

func (s *registryService) Connect(ctx context.Context, clientID int64, conn *transfer.AccountConnection) (int64, error) {
	if !models.SupportedPlatform(conn.Platform) {
		return 0, apperrors.Validationf("unsupported platform %q", conn.Platform)
	}
	if conn.AccessToken == "" {
		return 0, apperrors.Validationf("access token is required")
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(conn.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, err
	}

	encryptedRefreshToken := ""
	if conn.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(conn.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return 0, err
		}
	}

	account := &models.PlatformAccount{
		ClientID:       clientID,
		Platform:       conn.Platform,
		AccountID:      conn.AccountID,
		AccountName:    conn.AccountName,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: conn.TokenExpiresAt,
		Status:         models.AccountStatusActive,
	}

	return s.pa.Upsert(ctx, account)
}

func (s *registryService) Disconnect(ctx context.Context, clientID, accountID int64) error {
	exists, err := s.pa.CheckByClientID(ctx, accountID, clientID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("platform account")
	}

	return s.pa.Remove(ctx, accountID)
}

func (s *registryService) List(ctx context.Context, clientID int64) ([]*models.PlatformAccount, error) {
	return s.pa.ListByClientID(ctx, clientID)
}

func (s *registryService) MarkAuthExpired(ctx context.Context, accountID int64) error {
	if err := s.pa.UpdateStatus(ctx, accountID, models.AccountStatusAuthExpired); err != nil {
		return err
	}
	slog.Info("platform account marked auth_expired", "account_id", accountID)
	return nil
}

// SweepExpiring flags active accounts whose tokens lapse before the cutoff
// so the owning client can reconnect before deliveries start failing.
func (s *registryService) SweepExpiring(ctx context.Context, cutoff time.Time) (int, error) {
	accounts, err := s.pa.ListExpiring(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, account := range accounts {
		if err := s.pa.UpdateStatus(ctx, account.ID, models.AccountStatusAuthExpired); err != nil {
			slog.Info(err.Error())
			continue
		}
		marked++
	}
	return marked, nil
}
