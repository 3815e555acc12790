package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

// Repository defines persistence operations for accounts and journal entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAccount(ctx context.Context, account *models.LedgerAccount) (*models.LedgerAccount, error)
	FindAccount(ctx context.Context, id uuid.UUID) (*models.LedgerAccount, error)
	FindAccountByCode(ctx context.Context, channelID uuid.UUID, code string) (*models.LedgerAccount, error)
	ListAccounts(ctx context.Context, channelID uuid.UUID, includeInactive bool) ([]models.LedgerAccount, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CountActiveAccounts(ctx context.Context, channelID uuid.UUID, ids []uuid.UUID) (int64, error)
	CreateEntry(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error)
	FindEntry(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error)
	FindEntryBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.JournalEntry, error)
	MarkEntryReversed(ctx context.Context, id uuid.UUID) error
	ListEntries(ctx context.Context, channelID uuid.UUID, params pagination.Params) (*EntryList, error)
	AccountBalances(ctx context.Context, filters BalanceFilters) ([]AccountBalance, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAccount(ctx context.Context, account *models.LedgerAccount) (*models.LedgerAccount, error) {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *repository) FindAccount(ctx context.Context, id uuid.UUID) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) FindAccountByCode(ctx context.Context, channelID uuid.UUID, code string) (*models.LedgerAccount, error) {
	var account models.LedgerAccount
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND code = ?", channelID, code).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) ListAccounts(ctx context.Context, channelID uuid.UUID, includeInactive bool) ([]models.LedgerAccount, error) {
	query := r.db.WithContext(ctx).Where("channel_id = ?", channelID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var accounts []models.LedgerAccount
	if err := query.Order("code ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) UpdateAccount(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CountActiveAccounts(ctx context.Context, channelID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LedgerAccount{}).
		Where("channel_id = ? AND is_active = ? AND id IN ?", channelID, true, ids).
		Count(&count).Error
	return count, err
}

// CreateEntry persists the entry together with its lines.
func (r *repository) CreateEntry(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) FindEntry(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindEntryBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("channel_id = ? AND source_type = ? AND source_id = ?", channelID, sourceType, sourceID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) MarkEntryReversed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.JournalEntry{ID: id}).
		Update("status", enums.JournalEntryStatusReversed).Error
}

func (r *repository) ListEntries(ctx context.Context, channelID uuid.UUID, params pagination.Params) (*EntryList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.JournalEntry{}).
		Preload("Lines").
		Where("channel_id = ?", channelID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.JournalEntry
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &EntryList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			Timestamp: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Entries = rows
	return list, nil
}

func (r *repository) AccountBalances(ctx context.Context, filters BalanceFilters) ([]AccountBalance, error) {
	query := r.db.WithContext(ctx).
		Table("journal_lines").
		Select(
			"ledger_accounts.id AS account_id, "+
				"ledger_accounts.code AS code, "+
				"ledger_accounts.name AS name, "+
				"ledger_accounts.type AS type, "+
				"COALESCE(SUM(journal_lines.debit), 0) AS debits, "+
				"COALESCE(SUM(journal_lines.credit), 0) AS credits, "+
				"COALESCE(SUM(journal_lines.debit - journal_lines.credit), 0) AS balance",
		).
		Joins("JOIN ledger_accounts ON ledger_accounts.id = journal_lines.account_id").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Where("journal_lines.channel_id = ?", filters.ChannelID)
	if len(filters.AccountCodes) > 0 {
		query = query.Where("ledger_accounts.code IN ?", filters.AccountCodes)
	}
	if filters.From != nil {
		query = query.Where("journal_entries.entry_date >= ?", *filters.From)
	}
	if filters.To != nil {
		query = query.Where("journal_entries.entry_date <= ?", *filters.To)
	}

	var balances []AccountBalance
	err := query.
		Group("ledger_accounts.id, ledger_accounts.code, ledger_accounts.name, ledger_accounts.type").
		Order("ledger_accounts.code ASC").
		Scan(&balances).Error
	if err != nil {
		return nil, err
	}
	return balances, nil
}
