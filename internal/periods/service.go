package periods

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
)

// Guard rejects writes whose effective date falls inside a locked period.
// Ledger, inventory and cashier services call it inside their transactions.
type Guard interface {
	Check(ctx context.Context, tx *gorm.DB, channelID uuid.UUID, effective time.Time) error
}

// Service manages the per-channel posting cutoff.
type Service interface {
	Guard
	LockPeriod(ctx context.Context, input LockPeriodInput) (*models.PeriodLock, error)
	UnlockPeriod(ctx context.Context, channelID, actorUserID uuid.UUID) (*models.PeriodLock, error)
	Status(ctx context.Context, channelID uuid.UUID) (*models.PeriodLock, error)
}

// LockPeriodInput carries the cutoff date and the user applying it.
type LockPeriodInput struct {
	ChannelID   uuid.UUID
	LockEndDate time.Time
	ActorUserID uuid.UUID
}

type service struct {
	repo Repository
	tx   txRunner
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// NewService builds a period lock service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("periods repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) LockPeriod(ctx context.Context, input LockPeriodInput) (*models.PeriodLock, error) {
	if input.ChannelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	if input.LockEndDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "lock end date required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.PeriodLock
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now()
		end := input.LockEndDate

		existing, err := repo.FindByChannel(ctx, input.ChannelID)
		if err != nil {
			if err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load period lock")
			}
			lock := &models.PeriodLock{
				ChannelID:   input.ChannelID,
				LockEndDate: &end,
				LockedBy:    &input.ActorUserID,
				LockedAt:    &now,
			}
			created, err := repo.Create(ctx, lock)
			if err != nil {
				if dbpkg.IsUniqueViolation(err, "ux_period_locks_channel") {
					return pkgerrors.New(pkgerrors.CodeRetryable, "concurrent period lock creation")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create period lock")
			}
			result = created
			return nil
		}

		updates := map[string]any{
			"lock_end_date": end,
			"locked_by":     input.ActorUserID,
			"locked_at":     now,
		}
		if err := repo.Update(ctx, existing.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update period lock")
		}
		existing.LockEndDate = &end
		existing.LockedBy = &input.ActorUserID
		existing.LockedAt = &now
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UnlockPeriod(ctx context.Context, channelID, actorUserID uuid.UUID) (*models.PeriodLock, error) {
	if channelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	if actorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var result *models.PeriodLock
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByChannel(ctx, channelID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no period lock for channel")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load period lock")
		}
		updates := map[string]any{
			"lock_end_date": nil,
			"locked_by":     actorUserID,
			"locked_at":     time.Now(),
		}
		if err := repo.Update(ctx, existing.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear period lock")
		}
		existing.LockEndDate = nil
		result = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Status(ctx context.Context, channelID uuid.UUID) (*models.PeriodLock, error) {
	if channelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	lock, err := s.repo.FindByChannel(ctx, channelID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no period lock for channel")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load period lock")
	}
	return lock, nil
}

// Check rejects effective dates at or before the channel's lock end date.
// A missing lock row means the channel has never been locked.
func (s *service) Check(ctx context.Context, tx *gorm.DB, channelID uuid.UUID, effective time.Time) error {
	repo := s.repo.WithTx(tx)
	lock, err := repo.FindByChannel(ctx, channelID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load period lock")
	}
	if lock.LockEndDate == nil {
		return nil
	}
	if !effective.After(*lock.LockEndDate) {
		return pkgerrors.Newf(pkgerrors.CodePeriodLocked,
			"period locked through %s", lock.LockEndDate.Format("2006-01-02"))
	}
	return nil
}
