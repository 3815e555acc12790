package cashier

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages cash-drawer sessions and the money event ledger.
type Service interface {
	OpenSession(ctx context.Context, input OpenSessionInput) (*models.CashierSession, error)
	CloseSession(ctx context.Context, input CloseSessionInput) (*CloseSessionResult, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*models.CashierSession, error)
	ListSessions(ctx context.Context, channelID uuid.UUID, status *enums.CashierSessionStatus, params pagination.Params) (*SessionList, error)
	ListSessionEvents(ctx context.Context, sessionID uuid.UUID) ([]models.MoneyEvent, error)
	RecordMoneyEvent(ctx context.Context, input RecordMoneyEventInput) (*RecordMoneyEventResult, error)
	GetEventBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.MoneyEvent, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	guard   periods.Guard
	outbox  outboxPublisher
	metrics *metrics.CoreMetrics
}

// NewService builds a cashier service. Metrics may be nil.
func NewService(repo Repository, tx txRunner, guard periods.Guard, outboxSvc outboxPublisher, coreMetrics *metrics.CoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cashier repository required")
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
	return &service{
		repo:    repo,
		tx:      tx,
		guard:   guard,
		outbox:  outboxSvc,
		metrics: coreMetrics,
	}, nil
}

func (s *service) OpenSession(ctx context.Context, input OpenSessionInput) (*models.CashierSession, error) {
	if input.ChannelID == uuid.Nil || input.CashierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id and cashier id required")
	}
	if input.OpeningFloat < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "opening float must not be negative")
	}
	openedAt := input.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	var session *models.CashierSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindOpenSession(ctx, input.ChannelID, input.CashierID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check open session")
		}
		if existing != nil {
			return pkgerrors.Newf(pkgerrors.CodeConflict,
				"cashier already has an open session on this channel (session %s)", existing.ID)
		}

		session, err = repo.CreateSession(ctx, &models.CashierSession{
			ChannelID:    input.ChannelID,
			CashierID:    input.CashierID,
			Status:       enums.CashierSessionStatusOpen,
			OpenedAt:     openedAt,
			OpeningFloat: input.OpeningFloat,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create session")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CloseSession computes the expected drawer amount from the opening float plus
// every money event recorded against the session, then stores the variance
// against the cashier's declared count. A nonzero variance is data for the
// reconciliation review, not an error.
func (s *service) CloseSession(ctx context.Context, input CloseSessionInput) (*CloseSessionResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("close_session", time.Since(start)) }()

	if input.SessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "session id required")
	}
	if input.ClosingDeclared < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "declared amount must not be negative")
	}

	result := &CloseSessionResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, err := repo.FindSessionForUpdate(ctx, input.SessionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
			}
			if dbpkg.IsLockTimeout(err) {
				return pkgerrors.New(pkgerrors.CodeRetryable, "session is locked, try again")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session")
		}
		if session.Status == enums.CashierSessionStatusClosed {
			return pkgerrors.New(pkgerrors.CodeConflict, "session already closed")
		}

		eventTotal, err := repo.SumSessionEvents(ctx, session.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum session events")
		}
		expected := session.OpeningFloat + eventTotal
		variance := input.ClosingDeclared - expected
		closedAt := time.Now()

		updates := map[string]interface{}{
			"status":           enums.CashierSessionStatusClosed,
			"closed_at":        closedAt,
			"closing_declared": input.ClosingDeclared,
			"expected_amount":  expected,
			"variance":         variance,
		}
		if err := repo.UpdateSession(ctx, session.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close session")
		}

		session.Status = enums.CashierSessionStatusClosed
		session.ClosedAt = &closedAt
		session.ClosingDeclared = &input.ClosingDeclared
		session.ExpectedAmount = &expected
		session.Variance = &variance
		result.Session = session
		result.Expected = expected
		result.Variance = variance

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSessionClosed,
			AggregateType: enums.AggregateCashierSession,
			AggregateID:   session.ID,
			Actor:         buildActor(input.ActorUserID, session.ChannelID),
			OccurredAt:    closedAt,
			Data: SessionClosedEvent{
				SessionID: session.ID,
				ChannelID: session.ChannelID,
				CashierID: session.CashierID,
				Expected:  expected,
				Declared:  input.ClosingDeclared,
				Variance:  variance,
				ClosedAt:  closedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.CashierSession, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "session id required")
	}
	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session")
	}
	return session, nil
}

func (s *service) ListSessions(ctx context.Context, channelID uuid.UUID, status *enums.CashierSessionStatus, params pagination.Params) (*SessionList, error) {
	if channelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid session status %q", *status)
	}
	list, err := s.repo.ListSessions(ctx, channelID, status, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sessions")
	}
	return list, nil
}

func (s *service) ListSessionEvents(ctx context.Context, sessionID uuid.UUID) ([]models.MoneyEvent, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "session id required")
	}
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	events, err := s.repo.ListSessionEvents(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list session events")
	}
	return events, nil
}

// RecordMoneyEvent appends one signed cash movement. Idempotent by
// (channel, sourceType, sourceId): a retried write returns the stored event.
func (s *service) RecordMoneyEvent(ctx context.Context, input RecordMoneyEventInput) (*RecordMoneyEventResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("record_money_event", time.Since(start)) }()

	if err := validateMoneyEventInput(input); err != nil {
		return nil, err
	}
	eventDate := input.EventDate
	if eventDate.IsZero() {
		eventDate = time.Now()
	}

	result := &RecordMoneyEventResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.guard.Check(ctx, tx, input.ChannelID, eventDate); err != nil {
			s.metrics.IncPeriodLockRejection()
			return err
		}
		repo := s.repo.WithTx(tx)

		if input.SessionID != nil {
			session, err := repo.FindSessionForUpdate(ctx, *input.SessionID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
				}
				if dbpkg.IsLockTimeout(err) {
					return pkgerrors.New(pkgerrors.CodeRetryable, "session is locked, try again")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session")
			}
			if session.ChannelID != input.ChannelID {
				return pkgerrors.New(pkgerrors.CodeInvalidInput, "session belongs to a different channel")
			}
			if session.Status != enums.CashierSessionStatusOpen {
				return pkgerrors.New(pkgerrors.CodeConflict, "session is closed")
			}
		}

		event, err := repo.CreateEvent(ctx, &models.MoneyEvent{
			ChannelID:     input.ChannelID,
			EventDate:     eventDate,
			Type:          input.Type,
			Amount:        input.Amount,
			PaymentMethod: input.PaymentMethod,
			SessionID:     input.SessionID,
			SourceType:    input.SourceType,
			SourceID:      input.SourceID,
			Memo:          input.Memo,
			PostedBy:      input.PostedBy,
		})
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_money_events_source") {
				existing, findErr := repo.FindEventBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reread money event after conflict")
				}
				s.metrics.IncIdempotentReplay("money_event")
				result.Event = existing
				result.Replayed = true
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create money event")
		}
		result.Event = event

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventMoneyRecorded,
			AggregateType: enums.AggregateMoneyEvent,
			AggregateID:   event.ID,
			Actor:         buildActor(input.PostedBy, input.ChannelID),
			OccurredAt:    eventDate,
			Data: MoneyRecordedEvent{
				EventID:       event.ID,
				ChannelID:     input.ChannelID,
				SessionID:     input.SessionID,
				Type:          input.Type,
				Amount:        input.Amount,
				PaymentMethod: input.PaymentMethod,
				SourceType:    input.SourceType,
				SourceID:      input.SourceID,
				EventDate:     eventDate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetEventBySource(ctx context.Context, channelID uuid.UUID, sourceType, sourceID string) (*models.MoneyEvent, error) {
	if channelID == uuid.Nil || sourceType == "" || sourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id and source triple required")
	}
	event, err := s.repo.FindEventBySource(ctx, channelID, sourceType, sourceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "money event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load money event")
	}
	return event, nil
}

func validateMoneyEventInput(input RecordMoneyEventInput) error {
	if input.ChannelID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid money event type %q", input.Type)
	}
	if input.Amount == 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "amount must not be zero")
	}
	if input.PaymentMethod == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "payment method required")
	}
	if input.SourceType == "" || input.SourceID == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "source type and source id required")
	}
	if input.PostedBy == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "posted by required")
	}
	return nil
}

func buildActor(userID uuid.UUID, channelID uuid.UUID) *outbox.ActorRef {
	if userID == uuid.Nil {
		return nil
	}
	channel := channelID
	return &outbox.ActorRef{UserID: userID, ChannelID: &channel}
}
