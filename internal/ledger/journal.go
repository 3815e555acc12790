package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/metrics"
	"github.com/waithaka-labs/dukapos-backend/pkg/outbox"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

// ReversalSourceType is the source type stamped on reversing entries. Keyed by
// the original entry id, it makes reversals idempotent like any other posting.
const ReversalSourceType = "Reversal"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// JournalService posts balanced entries and reversals.
type JournalService interface {
	PostEntry(ctx context.Context, input PostEntryInput) (*PostEntryResult, error)
	ReverseEntry(ctx context.Context, entryID uuid.UUID, actor ActorInput) (*PostEntryResult, error)
	GetEntry(ctx context.Context, entryID uuid.UUID) (*models.JournalEntry, error)
	GetEntryBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.JournalEntry, error)
	ListEntries(ctx context.Context, channelID uuid.UUID, params pagination.Params) (*EntryList, error)
	AccountBalances(ctx context.Context, filters BalanceFilters) ([]AccountBalance, error)
	TrialBalance(ctx context.Context, filters BalanceFilters) (*TrialBalance, error)
}

type journalService struct {
	repo    Repository
	tx      txRunner
	guard   periods.Guard
	outbox  outboxPublisher
	metrics *metrics.CoreMetrics
}

// NewJournalService builds a journal service. Metrics may be nil.
func NewJournalService(repo Repository, tx txRunner, guard periods.Guard, outboxSvc outboxPublisher, coreMetrics *metrics.CoreMetrics) (JournalService, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if guard == nil {
		return nil, fmt.Errorf("period guard required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &journalService{
		repo:    repo,
		tx:      tx,
		guard:   guard,
		outbox:  outboxSvc,
		metrics: coreMetrics,
	}, nil
}

func (s *journalService) PostEntry(ctx context.Context, input PostEntryInput) (*PostEntryResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("post_entry", time.Since(start)) }()

	totalDebits, err := validatePostInput(input)
	if err != nil {
		return nil, err
	}
	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	result := &PostEntryResult{}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.guard.Check(ctx, tx, input.ChannelID, entryDate); err != nil {
			s.metrics.IncPeriodLockRejection()
			return err
		}
		repo := s.repo.WithTx(tx)

		accountIDs := make([]uuid.UUID, 0, len(input.Lines))
		seen := map[uuid.UUID]bool{}
		for _, line := range input.Lines {
			if !seen[line.AccountID] {
				seen[line.AccountID] = true
				accountIDs = append(accountIDs, line.AccountID)
			}
		}
		active, err := repo.CountActiveAccounts(ctx, input.ChannelID, accountIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify accounts")
		}
		if active != int64(len(accountIDs)) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "one or more accounts missing or inactive")
		}

		entry := &models.JournalEntry{
			ChannelID:  input.ChannelID,
			EntryDate:  entryDate,
			PostedAt:   time.Now(),
			SourceType: input.SourceType,
			SourceID:   input.SourceID,
			Status:     enums.JournalEntryStatusPosted,
			Memo:       input.Memo,
		}
		for _, line := range input.Lines {
			entry.Lines = append(entry.Lines, models.JournalLine{
				ChannelID: input.ChannelID,
				AccountID: line.AccountID,
				Debit:     line.Debit,
				Credit:    line.Credit,
				Meta:      line.Meta,
			})
		}

		created, err := repo.CreateEntry(ctx, entry)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_journal_entries_source") {
				existing, findErr := repo.FindEntryBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reread entry after conflict")
				}
				s.metrics.IncIdempotentReplay("journal_entry")
				result.Entry = existing
				result.Replayed = true
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create journal entry")
		}
		s.metrics.IncPosting(string(enums.JournalEntryStatusPosted))
		result.Entry = created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventJournalPosted,
			AggregateType: enums.AggregateJournalEntry,
			AggregateID:   created.ID,
			Actor:         buildActor(input.Actor, input.ChannelID),
			OccurredAt:    entryDate,
			Data: JournalPostedEvent{
				EntryID:     created.ID,
				ChannelID:   input.ChannelID,
				EntryDate:   entryDate,
				SourceType:  input.SourceType,
				SourceID:    input.SourceID,
				LineCount:   len(created.Lines),
				TotalDebits: totalDebits,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReverseEntry posts a debit/credit-swapped entry dated now, links it to the
// original and flips the original's status. Reversing an already reversed
// entry is a CONFLICT.
func (s *journalService) ReverseEntry(ctx context.Context, entryID uuid.UUID, actor ActorInput) (*PostEntryResult, error) {
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "entry id required")
	}

	entryDate := time.Now()
	result := &PostEntryResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		original, err := repo.FindEntry(ctx, entryID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "journal entry not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load journal entry")
		}
		if original.Status == enums.JournalEntryStatusReversed {
			return pkgerrors.New(pkgerrors.CodeConflict, "journal entry already reversed")
		}

		if err := s.guard.Check(ctx, tx, original.ChannelID, entryDate); err != nil {
			s.metrics.IncPeriodLockRejection()
			return err
		}

		reversal := &models.JournalEntry{
			ChannelID:  original.ChannelID,
			EntryDate:  entryDate,
			PostedAt:   time.Now(),
			SourceType: ReversalSourceType,
			SourceID:   original.ID.String(),
			Status:     enums.JournalEntryStatusPosted,
			ReversalOf: &original.ID,
			Memo:       fmt.Sprintf("reversal of %s", original.ID),
		}
		for _, line := range original.Lines {
			reversal.Lines = append(reversal.Lines, models.JournalLine{
				ChannelID: original.ChannelID,
				AccountID: line.AccountID,
				Debit:     line.Credit,
				Credit:    line.Debit,
				Meta:      line.Meta,
			})
		}

		created, err := repo.CreateEntry(ctx, reversal)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_journal_entries_source") {
				existing, findErr := repo.FindEntryBySource(ctx, original.ChannelID, ReversalSourceType, original.ID.String())
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reread reversal after conflict")
				}
				s.metrics.IncIdempotentReplay("journal_entry")
				result.Entry = existing
				result.Replayed = true
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reversing entry")
		}

		if err := repo.MarkEntryReversed(ctx, original.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark entry reversed")
		}
		s.metrics.IncPosting(string(enums.JournalEntryStatusReversed))
		result.Entry = created

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventJournalReversed,
			AggregateType: enums.AggregateJournalEntry,
			AggregateID:   created.ID,
			Actor:         buildActor(actor, original.ChannelID),
			OccurredAt:    entryDate,
			Data: JournalReversedEvent{
				EntryID:    created.ID,
				ReversalOf: original.ID,
				ChannelID:  original.ChannelID,
				EntryDate:  entryDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *journalService) GetEntry(ctx context.Context, entryID uuid.UUID) (*models.JournalEntry, error) {
	if entryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "entry id required")
	}
	entry, err := s.repo.FindEntry(ctx, entryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "journal entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load journal entry")
	}
	return entry, nil
}

func (s *journalService) GetEntryBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.JournalEntry, error) {
	if channelID == uuid.Nil || sourceType == "" || sourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id and source triple required")
	}
	entry, err := s.repo.FindEntryBySource(ctx, channelID, sourceType, sourceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "journal entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load journal entry")
	}
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, channelID uuid.UUID, params pagination.Params) (*EntryList, error) {
	if channelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	list, err := s.repo.ListEntries(ctx, channelID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list journal entries")
	}
	return list, nil
}

func (s *journalService) AccountBalances(ctx context.Context, filters BalanceFilters) ([]AccountBalance, error) {
	if filters.ChannelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	balances, err := s.repo.AccountBalances(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute account balances")
	}
	return balances, nil
}

func (s *journalService) TrialBalance(ctx context.Context, filters BalanceFilters) (*TrialBalance, error) {
	balances, err := s.AccountBalances(ctx, filters)
	if err != nil {
		return nil, err
	}
	trial := &TrialBalance{Accounts: balances, ComputedAt: time.Now()}
	for _, balance := range balances {
		trial.TotalDebits += balance.Debits
		trial.TotalCredits += balance.Credits
	}
	return trial, nil
}

func validatePostInput(input PostEntryInput) (int64, error) {
	if input.ChannelID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	if input.SourceType == "" || input.SourceID == "" {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidInput, "source type and source id required")
	}
	if len(input.Lines) < 2 {
		return 0, pkgerrors.New(pkgerrors.CodeInvalidInput, "an entry requires at least two lines")
	}

	var totalDebits, totalCredits int64
	for i, line := range input.Lines {
		if line.AccountID == uuid.Nil {
			return 0, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "line %d: account id required", i)
		}
		if line.Debit < 0 || line.Credit < 0 {
			return 0, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "line %d: amounts must not be negative", i)
		}
		if line.Debit == 0 && line.Credit == 0 {
			return 0, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "line %d: one of debit or credit must be nonzero", i)
		}
		if line.Debit != 0 && line.Credit != 0 {
			return 0, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "line %d: only one of debit or credit may be nonzero", i)
		}
		totalDebits += line.Debit
		totalCredits += line.Credit
	}
	if totalDebits != totalCredits {
		return 0, pkgerrors.Newf(pkgerrors.CodeInvalidInput,
			"unbalanced entry: debits %d, credits %d", totalDebits, totalCredits)
	}
	return totalDebits, nil
}

func buildActor(actor ActorInput, channelID uuid.UUID) *outbox.ActorRef {
	if actor.UserID == uuid.Nil {
		return nil
	}
	channel := channelID
	return &outbox.ActorRef{
		UserID:    actor.UserID,
		ChannelID: &channel,
		Role:      actor.Role,
	}
}
