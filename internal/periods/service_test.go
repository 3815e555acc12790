package periods

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/dbtest"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *dbpkg.Client) {
	t.Helper()
	conn := dbtest.Open(t)
	client := dbpkg.FromGorm(conn)
	svc, err := NewService(NewRepository(conn), client)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc, client
}

func TestLockPeriodCreatesAndMovesCutoff(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	channelID := uuid.New()
	userID := uuid.New()

	jan := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	lock, err := svc.LockPeriod(ctx, LockPeriodInput{
		ChannelID:   channelID,
		LockEndDate: jan,
		ActorUserID: userID,
	})
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if lock.LockEndDate == nil || !lock.LockEndDate.Equal(jan) {
		t.Fatalf("unexpected lock end date: %v", lock.LockEndDate)
	}
	if lock.LockedBy == nil || *lock.LockedBy != userID {
		t.Fatalf("expected locked_by to be recorded")
	}

	feb := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	moved, err := svc.LockPeriod(ctx, LockPeriodInput{
		ChannelID:   channelID,
		LockEndDate: feb,
		ActorUserID: userID,
	})
	if err != nil {
		t.Fatalf("moving lock failed: %v", err)
	}
	if moved.ID != lock.ID {
		t.Fatalf("expected single row per channel, got new id %s", moved.ID)
	}
	if moved.LockEndDate == nil || !moved.LockEndDate.Equal(feb) {
		t.Fatalf("unexpected moved lock end date: %v", moved.LockEndDate)
	}
}

func TestGuardRejectsDatesInsideLockedPeriod(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	channelID := uuid.New()

	cutoff := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if _, err := svc.LockPeriod(ctx, LockPeriodInput{
		ChannelID:   channelID,
		LockEndDate: cutoff,
		ActorUserID: uuid.New(),
	}); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	inside := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	err := svc.Check(ctx, client.DB(), channelID, inside)
	if !pkgerrors.IsCode(err, pkgerrors.CodePeriodLocked) {
		t.Fatalf("expected PERIOD_LOCKED for date inside period, got %v", err)
	}

	boundary := cutoff
	err = svc.Check(ctx, client.DB(), channelID, boundary)
	if !pkgerrors.IsCode(err, pkgerrors.CodePeriodLocked) {
		t.Fatalf("expected PERIOD_LOCKED on the boundary date, got %v", err)
	}

	after := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := svc.Check(ctx, client.DB(), channelID, after); err != nil {
		t.Fatalf("expected date after cutoff to pass, got %v", err)
	}
}

func TestGuardAllowsUnlockedChannel(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	if err := svc.Check(ctx, client.DB(), uuid.New(), time.Now()); err != nil {
		t.Fatalf("expected unlocked channel to pass, got %v", err)
	}
}

func TestUnlockPeriodClearsCutoff(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	channelID := uuid.New()

	cutoff := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if _, err := svc.LockPeriod(ctx, LockPeriodInput{
		ChannelID:   channelID,
		LockEndDate: cutoff,
		ActorUserID: uuid.New(),
	}); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	unlocked, err := svc.UnlockPeriod(ctx, channelID, uuid.New())
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if unlocked.LockEndDate != nil {
		t.Fatalf("expected cleared lock end date, got %v", unlocked.LockEndDate)
	}

	if err := svc.Check(ctx, client.DB(), channelID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("expected unlocked channel to accept old dates, got %v", err)
	}
}

func TestUnlockPeriodMissingChannel(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UnlockPeriod(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
