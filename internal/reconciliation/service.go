package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/internal/ledger"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/metrics"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type sessionLoader interface {
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.CashierSession, error)
}

type balanceReader interface {
	AccountBalances(ctx context.Context, filters ledger.BalanceFilters) ([]ledger.AccountBalance, error)
}

// Service opens reconciliation drafts and walks them through review.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Reconciliation, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Reconciliation, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error)
	ListReconciliations(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	sessions sessionLoader
	balances balanceReader
	metrics  *metrics.CoreMetrics
}

// NewService builds a reconciliation service. Metrics may be nil.
func NewService(repo Repository, tx txRunner, sessions sessionLoader, balances balanceReader, coreMetrics *metrics.CoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reconciliation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session loader required")
	}
	if balances == nil {
		return nil, fmt.Errorf("balance reader required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		sessions: sessions,
		balances: balances,
		metrics:  coreMetrics,
	}, nil
}

// Create snapshots the ledger side of the comparison at draft time and stores
// the variance. The draft then moves forward only by explicit Transition calls.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Reconciliation, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("create_reconciliation", time.Since(start)) }()

	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	rec := &models.Reconciliation{
		ChannelID:    input.ChannelID,
		Scope:        input.Scope,
		Status:       enums.ReconciliationStatusDraft,
		RangeStart:   input.RangeStart,
		RangeEnd:     input.RangeEnd,
		SessionID:    input.SessionID,
		AccountCodes: input.AccountCodes,
		ExternalRef:  input.ExternalRef,
		CreatedBy:    input.CreatedBy,
	}

	switch input.Scope {
	case enums.ReconciliationScopeSession:
		session, err := s.sessions.GetSession(ctx, *input.SessionID)
		if err != nil {
			return nil, err
		}
		if session.ChannelID != input.ChannelID {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "session belongs to a different channel")
		}
		if session.Status != enums.CashierSessionStatusClosed {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "session must be closed before reconciliation")
		}
		rec.DeclaredAmount = *session.ClosingDeclared
		rec.LedgerAmount = *session.ExpectedAmount
		rec.RangeStart = session.OpenedAt
		rec.RangeEnd = *session.ClosedAt

	case enums.ReconciliationScopeDay:
		total, err := s.repo.SumMoneyEvents(ctx, input.ChannelID, input.RangeStart, input.RangeEnd)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum money events")
		}
		rec.DeclaredAmount = input.DeclaredAmount
		rec.LedgerAmount = total

	case enums.ReconciliationScopeAccount:
		balances, err := s.balances.AccountBalances(ctx, ledger.BalanceFilters{
			ChannelID:    input.ChannelID,
			AccountCodes: input.AccountCodes,
			From:         &input.RangeStart,
			To:           &input.RangeEnd,
		})
		if err != nil {
			return nil, err
		}
		var total int64
		for _, balance := range balances {
			total += balance.Balance
		}
		rec.DeclaredAmount = input.DeclaredAmount
		rec.LedgerAmount = total
	}

	rec.Variance = rec.DeclaredAmount - rec.LedgerAmount

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).Create(ctx, rec)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reconciliation")
		}
		rec = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Transition advances a reconciliation one step. Skipping a step or moving
// backwards is a CONFLICT, as is any transition out of approved.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Reconciliation, error) {
	if input.ReconciliationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "reconciliation id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid target status %q", input.Target)
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "actor user id required")
	}

	var rec *models.Reconciliation
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindForUpdate(ctx, input.ReconciliationID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reconciliation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reconciliation")
		}
		if !current.Status.CanTransitionTo(input.Target) {
			return pkgerrors.Newf(pkgerrors.CodeConflict,
				"cannot transition from %s to %s", current.Status, input.Target)
		}

		updates := map[string]interface{}{"status": input.Target}
		switch input.Target {
		case enums.ReconciliationStatusReviewed:
			updates["reviewed_by"] = input.ActorUserID
			current.ReviewedBy = &input.ActorUserID
		case enums.ReconciliationStatusApproved:
			updates["approved_by"] = input.ActorUserID
			current.ApprovedBy = &input.ActorUserID
		}
		if err := repo.Update(ctx, current.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update reconciliation")
		}
		current.Status = input.Target
		rec = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Reconciliation, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "reconciliation id required")
	}
	rec, err := s.repo.Find(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reconciliation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reconciliation")
	}
	return rec, nil
}

func (s *service) ListReconciliations(ctx context.Context, filters ListFilters, params pagination.Params) (*List, error) {
	if filters.ChannelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reconciliations")
	}
	return list, nil
}

func validateCreateInput(input CreateInput) error {
	var errs error
	if input.ChannelID == uuid.Nil {
		errs = multierr.Append(errs, fmt.Errorf("channel id required"))
	}
	if !input.Scope.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("invalid scope %q", input.Scope))
	}
	if input.CreatedBy == uuid.Nil {
		errs = multierr.Append(errs, fmt.Errorf("created by required"))
	}

	switch input.Scope {
	case enums.ReconciliationScopeSession:
		if input.SessionID == nil {
			errs = multierr.Append(errs, fmt.Errorf("session id required for session scope"))
		}
		if input.DeclaredAmount != 0 {
			errs = multierr.Append(errs, fmt.Errorf("declared amount comes from the session for session scope"))
		}
	case enums.ReconciliationScopeDay, enums.ReconciliationScopeAccount:
		if input.RangeStart.IsZero() || input.RangeEnd.IsZero() {
			errs = multierr.Append(errs, fmt.Errorf("range start and range end required"))
		} else if !input.RangeStart.Before(input.RangeEnd) {
			errs = multierr.Append(errs, fmt.Errorf("range start must precede range end"))
		}
		if input.Scope == enums.ReconciliationScopeAccount && len(input.AccountCodes) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("account codes required for account scope"))
		}
	}

	if errs != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidInput, errs, "invalid reconciliation input")
	}
	return nil
}
