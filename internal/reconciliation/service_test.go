package reconciliation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/waithaka-labs/dukapos-backend/internal/cashier"
	"github.com/waithaka-labs/dukapos-backend/internal/ledger"
	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/dbtest"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/outbox"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

type testEnv struct {
	svc      Service
	cashiers cashier.Service
	journal  ledger.JournalService
	accounts ledger.AccountService
	channel  uuid.UUID
	user     uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	client := dbpkg.FromGorm(conn)

	periodSvc, err := periods.NewService(periods.NewRepository(conn), client)
	if err != nil {
		t.Fatalf("building periods service: %v", err)
	}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)

	cashierSvc, err := cashier.NewService(cashier.NewRepository(conn), client, periodSvc, outboxSvc, nil)
	if err != nil {
		t.Fatalf("building cashier service: %v", err)
	}
	ledgerRepo := ledger.NewRepository(conn)
	journalSvc, err := ledger.NewJournalService(ledgerRepo, client, periodSvc, outboxSvc, nil)
	if err != nil {
		t.Fatalf("building journal service: %v", err)
	}
	accountSvc, err := ledger.NewAccountService(ledgerRepo)
	if err != nil {
		t.Fatalf("building account service: %v", err)
	}

	svc, err := NewService(NewRepository(conn), client, cashierSvc, journalSvc, nil)
	if err != nil {
		t.Fatalf("building reconciliation service: %v", err)
	}
	return &testEnv{
		svc:      svc,
		cashiers: cashierSvc,
		journal:  journalSvc,
		accounts: accountSvc,
		channel:  uuid.New(),
		user:     uuid.New(),
	}
}

func (e *testEnv) closedSession(t *testing.T, openingFloat, eventAmount, declared int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	session, err := e.cashiers.OpenSession(ctx, cashier.OpenSessionInput{
		ChannelID:    e.channel,
		CashierID:    uuid.New(),
		OpeningFloat: openingFloat,
	})
	if err != nil {
		t.Fatalf("opening session: %v", err)
	}
	if _, err := e.cashiers.RecordMoneyEvent(ctx, cashier.RecordMoneyEventInput{
		ChannelID:     e.channel,
		SessionID:     &session.ID,
		Type:          enums.MoneyEventTypeCashSale,
		Amount:        eventAmount,
		PaymentMethod: "cash",
		SourceType:    "Sale",
		SourceID:      uuid.NewString(),
		PostedBy:      e.user,
	}); err != nil {
		t.Fatalf("recording event: %v", err)
	}
	if _, err := e.cashiers.CloseSession(ctx, cashier.CloseSessionInput{
		SessionID:       session.ID,
		ClosingDeclared: declared,
	}); err != nil {
		t.Fatalf("closing session: %v", err)
	}
	return session.ID
}

func TestCreateSessionScope(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.closedSession(t, 1000, 4500, 5600)

	rec, err := env.svc.Create(context.Background(), CreateInput{
		ChannelID: env.channel,
		Scope:     enums.ReconciliationScopeSession,
		SessionID: &sessionID,
		CreatedBy: env.user,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.Status != enums.ReconciliationStatusDraft {
		t.Fatalf("expected draft, got %s", rec.Status)
	}
	if rec.DeclaredAmount != 5600 || rec.LedgerAmount != 5500 {
		t.Fatalf("expected declared 5600 against ledger 5500, got %d and %d", rec.DeclaredAmount, rec.LedgerAmount)
	}
	if rec.Variance != 100 {
		t.Fatalf("expected variance 100, got %d", rec.Variance)
	}
	if rec.RangeStart.IsZero() || rec.RangeEnd.IsZero() {
		t.Fatalf("expected the session window copied onto the record")
	}
}

func TestCreateSessionScopeRequiresClosed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session, err := env.cashiers.OpenSession(ctx, cashier.OpenSessionInput{
		ChannelID: env.channel,
		CashierID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("opening session: %v", err)
	}

	_, err = env.svc.Create(ctx, CreateInput{
		ChannelID: env.channel,
		Scope:     enums.ReconciliationScopeSession,
		SessionID: &session.ID,
		CreatedBy: env.user,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT for an open session, got %v", err)
	}
}

func TestCreateDayScopeSumsWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	amounts := map[string]struct {
		amount int64
		date   time.Time
	}{
		"sale-prev": {2000, time.Date(2025, 4, 30, 18, 0, 0, 0, time.UTC)},
		"sale-in-1": {3000, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)},
		"sale-in-2": {1500, time.Date(2025, 5, 1, 16, 0, 0, 0, time.UTC)},
		"sale-next": {700, time.Date(2025, 5, 2, 8, 0, 0, 0, time.UTC)},
	}
	for sourceID, spec := range amounts {
		if _, err := env.cashiers.RecordMoneyEvent(ctx, cashier.RecordMoneyEventInput{
			ChannelID:     env.channel,
			Type:          enums.MoneyEventTypeCashSale,
			Amount:        spec.amount,
			PaymentMethod: "cash",
			SourceType:    "Sale",
			SourceID:      sourceID,
			EventDate:     spec.date,
			PostedBy:      env.user,
		}); err != nil {
			t.Fatalf("recording %s: %v", sourceID, err)
		}
	}

	rec, err := env.svc.Create(ctx, CreateInput{
		ChannelID:      env.channel,
		Scope:          enums.ReconciliationScopeDay,
		RangeStart:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:       time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		DeclaredAmount: 4400,
		CreatedBy:      env.user,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.LedgerAmount != 4500 {
		t.Fatalf("expected ledger amount 4500 for the day, got %d", rec.LedgerAmount)
	}
	if rec.Variance != -100 {
		t.Fatalf("expected variance -100, got %d", rec.Variance)
	}
}

func TestCreateAccountScopeUsesBalances(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cash, err := env.accounts.CreateAccount(ctx, ledger.CreateAccountInput{
		ChannelID: env.channel, Code: "1000", Name: "Cash", Type: enums.AccountTypeAsset,
	})
	if err != nil {
		t.Fatalf("creating cash account: %v", err)
	}
	sales, err := env.accounts.CreateAccount(ctx, ledger.CreateAccountInput{
		ChannelID: env.channel, Code: "4000", Name: "Sales", Type: enums.AccountTypeIncome,
	})
	if err != nil {
		t.Fatalf("creating sales account: %v", err)
	}
	if _, err := env.journal.PostEntry(ctx, ledger.PostEntryInput{
		ChannelID:  env.channel,
		EntryDate:  time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		SourceType: "Sale",
		SourceID:   "sale-acct",
		Lines: []ledger.LineInput{
			{AccountID: cash.ID, Debit: 8000},
			{AccountID: sales.ID, Credit: 8000},
		},
	}); err != nil {
		t.Fatalf("posting entry: %v", err)
	}

	rec, err := env.svc.Create(ctx, CreateInput{
		ChannelID:      env.channel,
		Scope:          enums.ReconciliationScopeAccount,
		RangeStart:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:       time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AccountCodes:   []string{"1000"},
		DeclaredAmount: 8000,
		CreatedBy:      env.user,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.LedgerAmount != 8000 {
		t.Fatalf("expected ledger amount 8000, got %d", rec.LedgerAmount)
	}
	if rec.Variance != 0 {
		t.Fatalf("expected zero variance, got %d", rec.Variance)
	}
}

func TestTransitionsAreManualAndOrdered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sessionID := env.closedSession(t, 0, 1000, 1000)

	rec, err := env.svc.Create(ctx, CreateInput{
		ChannelID: env.channel,
		Scope:     enums.ReconciliationScopeSession,
		SessionID: &sessionID,
		CreatedBy: env.user,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Skipping review is not allowed.
	_, err = env.svc.Transition(ctx, TransitionInput{
		ReconciliationID: rec.ID,
		Target:           enums.ReconciliationStatusApproved,
		ActorUserID:      env.user,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT skipping review, got %v", err)
	}

	reviewer := uuid.New()
	reviewed, err := env.svc.Transition(ctx, TransitionInput{
		ReconciliationID: rec.ID,
		Target:           enums.ReconciliationStatusReviewed,
		ActorUserID:      reviewer,
	})
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != reviewer {
		t.Fatalf("expected reviewer stamped")
	}

	approver := uuid.New()
	approved, err := env.svc.Transition(ctx, TransitionInput{
		ReconciliationID: rec.ID,
		Target:           enums.ReconciliationStatusApproved,
		ActorUserID:      approver,
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != approver {
		t.Fatalf("expected approver stamped")
	}

	// Approved is terminal.
	_, err = env.svc.Transition(ctx, TransitionInput{
		ReconciliationID: rec.ID,
		Target:           enums.ReconciliationStatusReviewed,
		ActorUserID:      env.user,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected CONFLICT out of approved, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, CreateInput{
		Scope:     enums.ReconciliationScope("week"),
		CreatedBy: uuid.Nil,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}

	_, err = env.svc.Create(ctx, CreateInput{
		ChannelID:  env.channel,
		Scope:      enums.ReconciliationScopeDay,
		RangeStart: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:  env.user,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for inverted range, got %v", err)
	}

	_, err = env.svc.Create(ctx, CreateInput{
		ChannelID:  env.channel,
		Scope:      enums.ReconciliationScopeAccount,
		RangeStart: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC),
		CreatedBy:  env.user,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for missing account codes, got %v", err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.closedSession(t, 0, 100, 100)
	second := env.closedSession(t, 0, 200, 200)

	recA, err := env.svc.Create(ctx, CreateInput{
		ChannelID: env.channel, Scope: enums.ReconciliationScopeSession, SessionID: &first, CreatedBy: env.user,
	})
	if err != nil {
		t.Fatalf("create A failed: %v", err)
	}
	if _, err := env.svc.Create(ctx, CreateInput{
		ChannelID: env.channel, Scope: enums.ReconciliationScopeSession, SessionID: &second, CreatedBy: env.user,
	}); err != nil {
		t.Fatalf("create B failed: %v", err)
	}
	if _, err := env.svc.Transition(ctx, TransitionInput{
		ReconciliationID: recA.ID,
		Target:           enums.ReconciliationStatusReviewed,
		ActorUserID:      env.user,
	}); err != nil {
		t.Fatalf("review failed: %v", err)
	}

	draft := enums.ReconciliationStatusDraft
	list, err := env.svc.ListReconciliations(ctx, ListFilters{ChannelID: env.channel, Status: &draft}, pagination.Params{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list.Reconciliations) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(list.Reconciliations))
	}
}
