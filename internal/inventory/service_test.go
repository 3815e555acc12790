package inventory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/dbtest"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/outbox"
)

type testEnv struct {
	svc     Service
	repo    Repository
	client  *dbpkg.Client
	periods periods.Service
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

	svc, err := NewService(repo, client, periodSvc, outboxSvc, nil, nil)
	if err != nil {
		t.Fatalf("building inventory service: %v", err)
	}
	return &testEnv{svc: svc, repo: repo, client: client, periods: periodSvc}
}

func qty(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func (e *testEnv) seedBatch(t *testing.T, channelID, locationID, variantID uuid.UUID, quantity string, unitCost int64, createdAt time.Time, source string) *models.InventoryBatch {
	t.Helper()
	batch := &models.InventoryBatch{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty(quantity),
		UnitCost:   unitCost,
		SourceType: "Purchase",
		SourceID:   source,
		CreatedAt:  createdAt,
	}
	created, err := e.repo.CreateBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("seeding batch: %v", err)
	}
	return created
}

func TestCreateBatchRejectsNegativeQuantity(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CreateBatch(context.Background(), CreateBatchInput{
		ChannelID:  uuid.New(),
		LocationID: uuid.New(),
		VariantID:  uuid.New(),
		Quantity:   qty("-1"),
		UnitCost:   100,
		SourceType: "Purchase",
		SourceID:   "purchase-1",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestCreateBatchIdempotentBySource(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := CreateBatchInput{
		ChannelID:  uuid.New(),
		LocationID: uuid.New(),
		VariantID:  uuid.New(),
		Quantity:   qty("10"),
		UnitCost:   2500,
		SourceType: "Purchase",
		SourceID:   "purchase-77",
	}

	first, err := env.svc.CreateBatch(ctx, input)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	second, err := env.svc.CreateBatch(ctx, input)
	if err != nil {
		t.Fatalf("replay create failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same batch, got %s and %s", first.ID, second.ID)
	}

	var count int64
	if err := env.client.DB().Model(&models.InventoryBatch{}).Count(&count).Error; err != nil {
		t.Fatalf("counting batches: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 batch row, got %d", count)
	}
}

func TestReceiveStockValuation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	channelID, locationID, variantID := uuid.New(), uuid.New(), uuid.New()

	result, err := env.svc.ReceiveStock(ctx, ReceiveStockInput{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty("100"),
		UnitCost:   5000,
		SourceType: "Purchase",
		SourceID:   "purchase-100",
	})
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if result.Replayed {
		t.Fatalf("first receive should not be a replay")
	}
	if result.Movement == nil || !result.Movement.Quantity.Equal(qty("100")) {
		t.Fatalf("expected +100 movement, got %+v", result.Movement)
	}

	snapshot, err := env.svc.Valuation(ctx, BatchFilters{ChannelID: channelID})
	if err != nil {
		t.Fatalf("valuation failed: %v", err)
	}
	if !snapshot.TotalQuantity.Equal(qty("100")) {
		t.Fatalf("expected total quantity 100, got %s", snapshot.TotalQuantity)
	}
	if snapshot.TotalValue != 500000 {
		t.Fatalf("expected total value 500000, got %d", snapshot.TotalValue)
	}
	if snapshot.BatchCount != 1 {
		t.Fatalf("expected 1 batch, got %d", snapshot.BatchCount)
	}

	var events int64
	if err := env.client.DB().Model(&models.OutboxEvent{}).
		Where("event_type = ?", enums.EventStockReceived).
		Count(&events).Error; err != nil {
		t.Fatalf("counting outbox events: %v", err)
	}
	if events != 1 {
		t.Fatalf("expected 1 stock_received event, got %d", events)
	}
}

func TestReceiveStockReplaySkipsSideEffects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := ReceiveStockInput{
		ChannelID:  uuid.New(),
		LocationID: uuid.New(),
		VariantID:  uuid.New(),
		Quantity:   qty("40"),
		UnitCost:   1200,
		SourceType: "Purchase",
		SourceID:   "purchase-repeat",
	}

	first, err := env.svc.ReceiveStock(ctx, input)
	if err != nil {
		t.Fatalf("first receive failed: %v", err)
	}
	second, err := env.svc.ReceiveStock(ctx, input)
	if err != nil {
		t.Fatalf("replay receive failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected a replay")
	}
	if second.Batch.ID != first.Batch.ID || second.Movement.ID != first.Movement.ID {
		t.Fatalf("replay should return the original rows")
	}

	var batches, movements, events int64
	env.client.DB().Model(&models.InventoryBatch{}).Count(&batches)
	env.client.DB().Model(&models.InventoryMovement{}).Count(&movements)
	env.client.DB().Model(&models.OutboxEvent{}).Count(&events)
	if batches != 1 || movements != 1 || events != 1 {
		t.Fatalf("replay wrote extra rows: batches=%d movements=%d events=%d", batches, movements, events)
	}
}

func TestConsumeStockDrawsOldestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	channelID, locationID, variantID := uuid.New(), uuid.New(), uuid.New()

	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	batchA := env.seedBatch(t, channelID, locationID, variantID, "20", 3000, base, "purchase-a")
	batchB := env.seedBatch(t, channelID, locationID, variantID, "80", 3500, base.Add(time.Hour), "purchase-b")

	result, err := env.svc.ConsumeStock(ctx, ConsumeStockInput{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty("50"),
		SourceType: "Sale",
		SourceID:   "sale-1",
	})
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if len(result.Drawdowns) != 2 {
		t.Fatalf("expected 2 drawdowns, got %d", len(result.Drawdowns))
	}
	if result.Drawdowns[0].BatchID != batchA.ID || !result.Drawdowns[0].Quantity.Equal(qty("20")) {
		t.Fatalf("expected 20 drawn from the oldest batch, got %+v", result.Drawdowns[0])
	}
	if result.Drawdowns[1].BatchID != batchB.ID || !result.Drawdowns[1].Quantity.Equal(qty("30")) {
		t.Fatalf("expected 30 drawn from the newer batch, got %+v", result.Drawdowns[1])
	}
	if !result.Movement.Quantity.Equal(qty("-50")) {
		t.Fatalf("expected -50 movement, got %s", result.Movement.Quantity)
	}

	afterA, err := env.repo.FindBatch(ctx, batchA.ID)
	if err != nil {
		t.Fatalf("loading batch A: %v", err)
	}
	afterB, err := env.repo.FindBatch(ctx, batchB.ID)
	if err != nil {
		t.Fatalf("loading batch B: %v", err)
	}
	if !afterA.Quantity.IsZero() {
		t.Fatalf("expected batch A emptied, got %s", afterA.Quantity)
	}
	if !afterB.Quantity.Equal(qty("50")) {
		t.Fatalf("expected batch B at 50, got %s", afterB.Quantity)
	}
}

func TestConsumeStockInsufficient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	channelID, locationID, variantID := uuid.New(), uuid.New(), uuid.New()
	env.seedBatch(t, channelID, locationID, variantID, "20", 3000, time.Now(), "purchase-small")

	_, err := env.svc.ConsumeStock(ctx, ConsumeStockInput{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty("50"),
		SourceType: "Sale",
		SourceID:   "sale-too-big",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(err.Error(), "requested 50, available 20") {
		t.Fatalf("expected precise quantities in the error, got %q", err.Error())
	}

	// The rejected consumption must leave no movement behind.
	var movements int64
	env.client.DB().Model(&models.InventoryMovement{}).Count(&movements)
	if movements != 0 {
		t.Fatalf("expected no movements, got %d", movements)
	}
}

func TestConsumeStockIdempotentReplay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	channelID, locationID, variantID := uuid.New(), uuid.New(), uuid.New()
	env.seedBatch(t, channelID, locationID, variantID, "100", 2000, time.Now(), "purchase-big")

	input := ConsumeStockInput{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty("30"),
		SourceType: "Sale",
		SourceID:   "sale-retry",
	}
	first, err := env.svc.ConsumeStock(ctx, input)
	if err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	second, err := env.svc.ConsumeStock(ctx, input)
	if err != nil {
		t.Fatalf("replay consume failed: %v", err)
	}
	if !second.Replayed {
		t.Fatalf("expected a replay")
	}
	if second.Movement.ID != first.Movement.ID {
		t.Fatalf("replay should return the original movement")
	}
	if len(second.Drawdowns) != 1 || !second.Drawdowns[0].Quantity.Equal(qty("30")) {
		t.Fatalf("expected drawdowns recovered from the prior movement, got %+v", second.Drawdowns)
	}

	level, err := env.svc.VerifyStockLevel(ctx, channelID, locationID, variantID, qty("0"))
	if err != nil {
		t.Fatalf("stock level failed: %v", err)
	}
	if !level.Quantity.Equal(qty("70")) {
		t.Fatalf("replay must not decrement again: got %s", level.Quantity)
	}
}

func TestAdjustBatchQuantityGuardsNonNegativity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	batch := env.seedBatch(t, uuid.New(), uuid.New(), uuid.New(), "20", 1000, time.Now(), "purchase-adj")

	updated, err := env.svc.AdjustBatchQuantity(ctx, AdjustBatchInput{BatchID: batch.ID, Delta: qty("-15")})
	if err != nil {
		t.Fatalf("adjust failed: %v", err)
	}
	if !updated.Quantity.Equal(qty("5")) {
		t.Fatalf("expected 5 remaining, got %s", updated.Quantity)
	}

	_, err = env.svc.AdjustBatchQuantity(ctx, AdjustBatchInput{BatchID: batch.ID, Delta: qty("-50")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient batch quantity: requested 50, available 5") {
		t.Fatalf("unexpected error message %q", err.Error())
	}

	unchanged, err := env.repo.FindBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("loading batch: %v", err)
	}
	if !unchanged.Quantity.Equal(qty("5")) {
		t.Fatalf("failed adjust must not write, got %s", unchanged.Quantity)
	}
}

func TestAdjustBatchQuantityMissingBatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.AdjustBatchQuantity(context.Background(), AdjustBatchInput{BatchID: uuid.New(), Delta: qty("-1")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRecordMovementIdempotentAndPeriodLocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	channelID := uuid.New()

	input := RecordMovementInput{
		ChannelID:  channelID,
		LocationID: uuid.New(),
		VariantID:  uuid.New(),
		Type:       enums.MovementTypeAdjustment,
		Quantity:   qty("3"),
		SourceType: "Adjustment",
		SourceID:   "adj-9",
		OccurredAt: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}
	first, err := env.svc.RecordMovement(ctx, input)
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	second, err := env.svc.RecordMovement(ctx, input)
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the prior movement on replay")
	}

	if _, err := env.periods.LockPeriod(ctx, periods.LockPeriodInput{
		ChannelID:   channelID,
		LockEndDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		ActorUserID: uuid.New(),
	}); err != nil {
		t.Fatalf("locking period: %v", err)
	}

	locked := input
	locked.SourceID = "adj-10"
	locked.OccurredAt = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	_, err = env.svc.RecordMovement(ctx, locked)
	if !pkgerrors.IsCode(err, pkgerrors.CodePeriodLocked) {
		t.Fatalf("expected PERIOD_LOCKED, got %v", err)
	}

	open := input
	open.SourceID = "adj-11"
	open.OccurredAt = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if _, err := env.svc.RecordMovement(ctx, open); err != nil {
		t.Fatalf("movement after the cutoff should post, got %v", err)
	}
}

func TestMovementSumMatchesBatchSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	channelID, locationID, variantID := uuid.New(), uuid.New(), uuid.New()

	if _, err := env.svc.ReceiveStock(ctx, ReceiveStockInput{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty("60.5"),
		UnitCost:   800,
		SourceType: "Purchase",
		SourceID:   "purchase-r1",
	}); err != nil {
		t.Fatalf("receive 1 failed: %v", err)
	}
	if _, err := env.svc.ReceiveStock(ctx, ReceiveStockInput{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty("39.5"),
		UnitCost:   900,
		SourceType: "Purchase",
		SourceID:   "purchase-r2",
	}); err != nil {
		t.Fatalf("receive 2 failed: %v", err)
	}
	if _, err := env.svc.ConsumeStock(ctx, ConsumeStockInput{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   qty("72.25"),
		SourceType: "Sale",
		SourceID:   "sale-r1",
	}); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	movementSum, err := env.repo.SumMovements(ctx, channelID, locationID, variantID)
	if err != nil {
		t.Fatalf("summing movements: %v", err)
	}
	batchSum, err := env.repo.SumBatchQuantities(ctx, channelID, locationID, variantID)
	if err != nil {
		t.Fatalf("summing batches: %v", err)
	}
	if !movementSum.Equal(batchSum) {
		t.Fatalf("ledger out of balance: movements %s, batches %s", movementSum, batchSum)
	}
	if !batchSum.Equal(qty("27.75")) {
		t.Fatalf("expected 27.75 on hand, got %s", batchSum)
	}
}

func TestVerifyStockLevelAndBatchExists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	channelID, locationID, variantID := uuid.New(), uuid.New(), uuid.New()
	batch := env.seedBatch(t, channelID, locationID, variantID, "12", 500, time.Now(), "purchase-vl")

	level, err := env.svc.VerifyStockLevel(ctx, channelID, locationID, variantID, qty("10"))
	if err != nil {
		t.Fatalf("stock level failed: %v", err)
	}
	if !level.Sufficient {
		t.Fatalf("expected 12 >= 10 to be sufficient")
	}

	level, err = env.svc.VerifyStockLevel(ctx, channelID, locationID, variantID, qty("13"))
	if err != nil {
		t.Fatalf("stock level failed: %v", err)
	}
	if level.Sufficient {
		t.Fatalf("expected 12 < 13 to be insufficient")
	}

	exists, err := env.svc.VerifyBatchExists(ctx, batch.ID)
	if err != nil || !exists {
		t.Fatalf("expected batch to exist, got exists=%v err=%v", exists, err)
	}
	exists, err = env.svc.VerifyBatchExists(ctx, uuid.New())
	if err != nil || exists {
		t.Fatalf("expected missing batch, got exists=%v err=%v", exists, err)
	}
}
