package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/dbtest"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/outbox"
)

type testEnv struct {
	journal  JournalService
	accounts AccountService
	periods  periods.Service
	client   *dbpkg.Client
	cash     *models.LedgerAccount
	sales    *models.LedgerAccount
	channel  uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	client := dbpkg.FromGorm(conn)
	repo := NewRepository(conn)

	periodSvc, err := periods.NewService(periods.NewRepository(conn), client)
	if err != nil {
		t.Fatalf("building periods service: %v", err)
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)

	journal, err := NewJournalService(repo, client, periodSvc, outboxSvc, nil)
	if err != nil {
		t.Fatalf("building journal service: %v", err)
	}
	accounts, err := NewAccountService(repo)
	if err != nil {
		t.Fatalf("building account service: %v", err)
	}

	env := &testEnv{
		journal:  journal,
		accounts: accounts,
		periods:  periodSvc,
		client:   client,
		channel:  uuid.New(),
	}
	env.cash = env.mustCreateAccount(t, "1000", "Cash", enums.AccountTypeAsset)
	env.sales = env.mustCreateAccount(t, "4000", "Sales", enums.AccountTypeIncome)
	return env
}

func (e *testEnv) mustCreateAccount(t *testing.T, code, name string, accountType enums.AccountType) *models.LedgerAccount {
	t.Helper()
	account, err := e.accounts.CreateAccount(context.Background(), CreateAccountInput{
		ChannelID: e.channel,
		Code:      code,
		Name:      name,
		Type:      accountType,
	})
	if err != nil {
		t.Fatalf("creating account %s: %v", code, err)
	}
	return account
}

func (e *testEnv) saleEntry(sourceID string, amount int64, entryDate time.Time) PostEntryInput {
	return PostEntryInput{
		ChannelID:  e.channel,
		EntryDate:  entryDate,
		SourceType: "Sale",
		SourceID:   sourceID,
		Memo:       "cash sale",
		Lines: []LineInput{
			{AccountID: e.cash.ID, Debit: amount},
			{AccountID: e.sales.ID, Credit: amount},
		},
	}
}

func TestPostEntryBalancedAndAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.journal.PostEntry(ctx, env.saleEntry("sale-1", 12500, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if result.Replayed {
		t.Fatalf("first post must not be a replay")
	}
	entry := result.Entry
	if entry.Status != enums.JournalEntryStatusPosted {
		t.Fatalf("expected posted status, got %s", entry.Status)
	}
	if len(entry.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(entry.Lines))
	}

	var lineCount int64
	env.client.DB().Model(&models.JournalLine{}).Where("entry_id = ?", entry.ID).Count(&lineCount)
	if lineCount != 2 {
		t.Fatalf("expected 2 persisted lines, got %d", lineCount)
	}
}

func TestPostEntryUnbalanced(t *testing.T) {
	env := newTestEnv(t)
	input := env.saleEntry("sale-bad", 1000, time.Now())
	input.Lines[1].Credit = 900

	_, err := env.journal.PostEntry(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(err.Error(), "unbalanced entry") {
		t.Fatalf("unexpected message %q", err.Error())
	}

	// Nothing may be written before the balance check passes.
	var entries int64
	env.client.DB().Model(&models.JournalEntry{}).Count(&entries)
	if entries != 0 {
		t.Fatalf("expected no entries, got %d", entries)
	}
}

func TestPostEntryLineValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := env.saleEntry("sale-both", 100, time.Now())
	input.Lines[0].Credit = 100
	if _, err := env.journal.PostEntry(ctx, input); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for debit+credit line, got %v", err)
	}

	input = env.saleEntry("sale-neg", 100, time.Now())
	input.Lines[0].Debit = -100
	if _, err := env.journal.PostEntry(ctx, input); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for negative amount, got %v", err)
	}

	input = env.saleEntry("sale-one-line", 100, time.Now())
	input.Lines = input.Lines[:1]
	if _, err := env.journal.PostEntry(ctx, input); !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for single line, got %v", err)
	}
}

func TestPostEntryIdempotentBySource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := env.saleEntry("sale-repeat", 5000, time.Now())

	first, err := env.journal.PostEntry(ctx, input)
	if err != nil {
		t.Fatalf("first post failed: %v", err)
	}
	second, err := env.journal.PostEntry(ctx, input)
	if err != nil {
		t.Fatalf("replay post failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected a replay")
	}
	if second.Entry.ID != first.Entry.ID {
		t.Fatalf("replay should return the original entry")
	}

	var entries int64
	env.client.DB().Model(&models.JournalEntry{}).Count(&entries)
	if entries != 1 {
		t.Fatalf("expected 1 entry, got %d", entries)
	}
}

func TestPostEntryUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	input := env.saleEntry("sale-ghost", 100, time.Now())
	input.Lines[0].AccountID = uuid.New()

	_, err := env.journal.PostEntry(context.Background(), input)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestPostEntryInactiveAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.accounts.DeactivateAccount(ctx, env.sales.ID); err != nil {
		t.Fatalf("deactivating account: %v", err)
	}

	_, err := env.journal.PostEntry(ctx, env.saleEntry("sale-inactive", 100, time.Now()))
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for an inactive account, got %v", err)
	}
}

func TestPostEntryPeriodLock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.periods.LockPeriod(ctx, periods.LockPeriodInput{
		ChannelID:   env.channel,
		LockEndDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		ActorUserID: uuid.New(),
	}); err != nil {
		t.Fatalf("locking period: %v", err)
	}

	_, err := env.journal.PostEntry(ctx, env.saleEntry("sale-jan", 100, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	if !pkgerrors.IsCode(err, pkgerrors.CodePeriodLocked) {
		t.Fatalf("expected PERIOD_LOCKED, got %v", err)
	}

	if _, err := env.journal.PostEntry(ctx, env.saleEntry("sale-feb", 100, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("entry after the cutoff should post, got %v", err)
	}
}

func TestReverseEntrySwapsAndMarksOriginal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	posted, err := env.journal.PostEntry(ctx, env.saleEntry("sale-rev", 8000, time.Now()))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}

	reversed, err := env.journal.ReverseEntry(ctx, posted.Entry.ID, ActorInput{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	reversal := reversed.Entry
	if reversal.ReversalOf == nil || *reversal.ReversalOf != posted.Entry.ID {
		t.Fatalf("expected reversal_of to reference the original")
	}

	byAccount := map[uuid.UUID]models.JournalLine{}
	for _, line := range reversal.Lines {
		byAccount[line.AccountID] = line
	}
	if byAccount[env.cash.ID].Credit != 8000 || byAccount[env.cash.ID].Debit != 0 {
		t.Fatalf("expected cash line swapped to credit, got %+v", byAccount[env.cash.ID])
	}
	if byAccount[env.sales.ID].Debit != 8000 || byAccount[env.sales.ID].Credit != 0 {
		t.Fatalf("expected sales line swapped to debit, got %+v", byAccount[env.sales.ID])
	}

	original, err := env.journal.GetEntry(ctx, posted.Entry.ID)
	if err != nil {
		t.Fatalf("loading original: %v", err)
	}
	if original.Status != enums.JournalEntryStatusReversed {
		t.Fatalf("expected original marked reversed, got %s", original.Status)
	}

	// The pair nets to zero on every account.
	balances, err := env.journal.AccountBalances(ctx, BalanceFilters{ChannelID: env.channel})
	if err != nil {
		t.Fatalf("balances failed: %v", err)
	}
	for _, balance := range balances {
		if balance.Balance != 0 {
			t.Fatalf("expected net zero after reversal, account %s has %d", balance.Code, balance.Balance)
		}
	}
}

func TestReverseEntryTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	posted, err := env.journal.PostEntry(ctx, env.saleEntry("sale-rev2", 300, time.Now()))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if _, err := env.journal.ReverseEntry(ctx, posted.Entry.ID, ActorInput{}); err != nil {
		t.Fatalf("first reverse failed: %v", err)
	}
	_, err = env.journal.ReverseEntry(ctx, posted.Entry.ID, ActorInput{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT on double reversal, got %v", err)
	}
}

func TestReverseEntryMissing(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.journal.ReverseEntry(context.Background(), uuid.New(), ActorInput{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestTrialBalanceTotalsMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.journal.PostEntry(ctx, env.saleEntry("sale-t1", 1500, time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("post 1 failed: %v", err)
	}
	if _, err := env.journal.PostEntry(ctx, env.saleEntry("sale-t2", 2500, time.Date(2025, 2, 6, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("post 2 failed: %v", err)
	}

	trial, err := env.journal.TrialBalance(ctx, BalanceFilters{ChannelID: env.channel})
	if err != nil {
		t.Fatalf("trial balance failed: %v", err)
	}
	if trial.TotalDebits != trial.TotalCredits {
		t.Fatalf("trial balance out of balance: debits %d, credits %d", trial.TotalDebits, trial.TotalCredits)
	}
	if trial.TotalDebits != 4000 {
		t.Fatalf("expected 4000 total debits, got %d", trial.TotalDebits)
	}

	from := time.Date(2025, 2, 6, 0, 0, 0, 0, time.UTC)
	ranged, err := env.journal.TrialBalance(ctx, BalanceFilters{ChannelID: env.channel, From: &from})
	if err != nil {
		t.Fatalf("ranged trial balance failed: %v", err)
	}
	if ranged.TotalDebits != 2500 {
		t.Fatalf("expected 2500 in range, got %d", ranged.TotalDebits)
	}
}

func TestJournalOutboxEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	posted, err := env.journal.PostEntry(ctx, env.saleEntry("sale-ev", 700, time.Now()))
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if _, err := env.journal.ReverseEntry(ctx, posted.Entry.ID, ActorInput{}); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}

	var postedEvents, reversedEvents int64
	env.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventJournalPosted).Count(&postedEvents)
	env.client.DB().Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventJournalReversed).Count(&reversedEvents)
	if postedEvents != 1 || reversedEvents != 1 {
		t.Fatalf("expected 1 posted + 1 reversed event, got %d and %d", postedEvents, reversedEvents)
	}
}
