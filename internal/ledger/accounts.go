package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
)

// AccountService manages the chart of accounts. Accounts referenced by journal
// lines are deactivated, never deleted.
type AccountService interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*models.LedgerAccount, error)
	UpdateAccount(ctx context.Context, input UpdateAccountInput) (*models.LedgerAccount, error)
	DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*models.LedgerAccount, error)
	GetAccount(ctx context.Context, accountID uuid.UUID) (*models.LedgerAccount, error)
	GetAccountByCode(ctx context.Context, channelID uuid.UUID, code string) (*models.LedgerAccount, error)
	ListAccounts(ctx context.Context, channelID uuid.UUID, includeInactive bool) ([]models.LedgerAccount, error)
}

type accountService struct {
	repo Repository
}

// NewAccountService builds the chart-of-accounts service.
func NewAccountService(repo Repository) (AccountService, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &accountService{repo: repo}, nil
}

func (s *accountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.LedgerAccount, error) {
	if input.ChannelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "account code required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "account name required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid account type %q", input.Type)
	}

	account := &models.LedgerAccount{
		ChannelID: input.ChannelID,
		Code:      code,
		Name:      strings.TrimSpace(input.Name),
		Type:      input.Type,
		IsActive:  true,
	}
	created, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_accounts_channel_code") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "account code %q already exists on channel", code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create account")
	}
	return created, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, input UpdateAccountInput) (*models.LedgerAccount, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "account id required")
	}
	account, err := s.repo.FindAccount(ctx, input.AccountID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "account name required")
		}
		updates["name"] = name
		account.Name = name
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
		account.IsActive = *input.IsActive
	}
	if len(updates) == 0 {
		return account, nil
	}
	if err := s.repo.UpdateAccount(ctx, account.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update account")
	}
	return account, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*models.LedgerAccount, error) {
	inactive := false
	return s.UpdateAccount(ctx, UpdateAccountInput{AccountID: accountID, IsActive: &inactive})
}

func (s *accountService) GetAccount(ctx context.Context, accountID uuid.UUID) (*models.LedgerAccount, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "account id required")
	}
	account, err := s.repo.FindAccount(ctx, accountID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	return account, nil
}

func (s *accountService) GetAccountByCode(ctx context.Context, channelID uuid.UUID, code string) (*models.LedgerAccount, error) {
	if channelID == uuid.Nil || strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id and account code required")
	}
	account, err := s.repo.FindAccountByCode(ctx, channelID, strings.TrimSpace(code))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	return account, nil
}

func (s *accountService) ListAccounts(ctx context.Context, channelID uuid.UUID, includeInactive bool) ([]models.LedgerAccount, error) {
	if channelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	accounts, err := s.repo.ListAccounts(ctx, channelID, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list accounts")
	}
	return accounts, nil
}
