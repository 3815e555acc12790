package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/waithaka-labs/dukapos-backend/internal/periods"
	dbpkg "github.com/waithaka-labs/dukapos-backend/pkg/db"
	"github.com/waithaka-labs/dukapos-backend/pkg/db/models"
	"github.com/waithaka-labs/dukapos-backend/pkg/enums"
	pkgerrors "github.com/waithaka-labs/dukapos-backend/pkg/errors"
	"github.com/waithaka-labs/dukapos-backend/pkg/metrics"
	"github.com/waithaka-labs/dukapos-backend/pkg/outbox"
	"github.com/waithaka-labs/dukapos-backend/pkg/pagination"
	"github.com/waithaka-labs/dukapos-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines batch-store and movement-ledger operations.
type Service interface {
	CreateBatch(ctx context.Context, input CreateBatchInput) (*models.InventoryBatch, error)
	ListOpenBatches(ctx context.Context, filters BatchFilters, params pagination.Params) (*BatchList, error)
	AdjustBatchQuantity(ctx context.Context, input AdjustBatchInput) (*models.InventoryBatch, error)
	Valuation(ctx context.Context, filters BatchFilters) (*ValuationSnapshot, error)
	RecordMovement(ctx context.Context, input RecordMovementInput) (*models.InventoryMovement, error)
	ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*MovementList, error)
	VerifyStockLevel(ctx context.Context, channelID, locationID, variantID uuid.UUID, requested decimal.Decimal) (*StockLevel, error)
	VerifyBatchExists(ctx context.Context, batchID uuid.UUID) (bool, error)
	ReceiveStock(ctx context.Context, input ReceiveStockInput) (*ReceiveStockResult, error)
	ConsumeStock(ctx context.Context, input ConsumeStockInput) (*ConsumeStockResult, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	guard   periods.Guard
	outbox  outboxPublisher
	metrics *metrics.CoreMetrics
	cache   *SnapshotCache
}

// NewService builds an inventory service. Metrics and cache may be nil.
func NewService(repo Repository, tx txRunner, guard periods.Guard, outboxSvc outboxPublisher, coreMetrics *metrics.CoreMetrics, cache *SnapshotCache) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
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
		cache:   cache,
	}, nil
}

func (s *service) CreateBatch(ctx context.Context, input CreateBatchInput) (*models.InventoryBatch, error) {
	if err := validateBatchInput(input); err != nil {
		return nil, err
	}

	var result *models.InventoryBatch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// A movement already recorded for the triple means the batch it points
		// at was created by a prior attempt.
		movement, err := repo.FindMovementBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup movement by source")
		}
		if movement != nil && movement.BatchID != nil {
			existing, err := repo.FindBatch(ctx, *movement.BatchID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load batch for prior movement")
			}
			s.metrics.IncIdempotentReplay("batch")
			result = existing
			return nil
		}

		batch := &models.InventoryBatch{
			ChannelID:  input.ChannelID,
			LocationID: input.LocationID,
			VariantID:  input.VariantID,
			Quantity:   input.Quantity,
			UnitCost:   input.UnitCost,
			ExpiryDate: input.ExpiryDate,
			SourceType: input.SourceType,
			SourceID:   input.SourceID,
			Metadata:   input.Metadata,
		}
		created, err := repo.CreateBatch(ctx, batch)
		if err != nil {
			// The unique constraint is the backstop for the race where two
			// creators pass the movement lookup at once.
			if dbpkg.IsUniqueViolation(err, "ux_batches_source") {
				existing, findErr := repo.FindBatchBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reread batch after conflict")
				}
				s.metrics.IncIdempotentReplay("batch")
				result = existing
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create batch")
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, input.ChannelID, input.LocationID, input.VariantID)
	return result, nil
}

func (s *service) ListOpenBatches(ctx context.Context, filters BatchFilters, params pagination.Params) (*BatchList, error) {
	if filters.ChannelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	list, err := s.repo.ListOpenBatches(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list open batches")
	}
	return list, nil
}

func (s *service) AdjustBatchQuantity(ctx context.Context, input AdjustBatchInput) (*models.InventoryBatch, error) {
	if input.BatchID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "batch id required")
	}
	if input.Delta.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "delta must be nonzero")
	}

	var result *models.InventoryBatch
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		batch, err := repo.FindBatchForUpdate(ctx, input.BatchID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "batch not found")
			}
			if dbpkg.IsLockTimeout(err) {
				return pkgerrors.New(pkgerrors.CodeRetryable, "batch is locked, try again")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock batch")
		}

		next := batch.Quantity.Add(input.Delta)
		if next.IsNegative() {
			s.metrics.IncInsufficientQuantity()
			return pkgerrors.Newf(pkgerrors.CodeInvalidInput,
				"insufficient batch quantity: requested %s, available %s",
				input.Delta.Neg().String(), batch.Quantity.String())
		}
		if err := repo.UpdateBatchQuantity(ctx, batch.ID, next); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update batch quantity")
		}
		batch.Quantity = next
		result = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, result.ChannelID, result.LocationID, result.VariantID)
	return result, nil
}

func (s *service) Valuation(ctx context.Context, filters BatchFilters) (*ValuationSnapshot, error) {
	if filters.ChannelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	snapshot, err := s.repo.ValuationSnapshot(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute valuation")
	}
	snapshot.ComputedAt = time.Now()
	return snapshot, nil
}

func (s *service) RecordMovement(ctx context.Context, input RecordMovementInput) (*models.InventoryMovement, error) {
	if err := validateMovementInput(input); err != nil {
		return nil, err
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	var result *models.InventoryMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.guard.Check(ctx, tx, input.ChannelID, occurredAt); err != nil {
			s.metrics.IncPeriodLockRejection()
			return err
		}
		repo := s.repo.WithTx(tx)
		movement := &models.InventoryMovement{
			ChannelID:  input.ChannelID,
			LocationID: input.LocationID,
			VariantID:  input.VariantID,
			Type:       input.Type,
			Quantity:   input.Quantity,
			BatchID:    input.BatchID,
			SourceType: input.SourceType,
			SourceID:   input.SourceID,
			OccurredAt: occurredAt,
			Metadata:   input.Metadata,
		}
		created, err := repo.CreateMovement(ctx, movement)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_movements_source") {
				existing, findErr := repo.FindMovementBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reread movement after conflict")
				}
				s.metrics.IncIdempotentReplay("movement")
				result = existing
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create movement")
		}
		s.metrics.IncMovement(string(input.Type))
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, input.ChannelID, input.LocationID, input.VariantID)
	return result, nil
}

func (s *service) ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*MovementList, error) {
	if filters.ChannelID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel id required")
	}
	list, err := s.repo.ListMovements(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list movements")
	}
	return list, nil
}

// VerifyStockLevel is advisory: quantities can change between this check and a
// decrement, so the locked decrement remains the source of truth.
func (s *service) VerifyStockLevel(ctx context.Context, channelID, locationID, variantID uuid.UUID, requested decimal.Decimal) (*StockLevel, error) {
	if channelID == uuid.Nil || locationID == uuid.Nil || variantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel, location and variant ids required")
	}

	quantity, cached := s.cache.GetQuantity(ctx, channelID, locationID, variantID)
	if !cached {
		var err error
		quantity, err = s.repo.SumBatchQuantities(ctx, channelID, locationID, variantID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum batch quantities")
		}
		s.cache.SetQuantity(ctx, channelID, locationID, variantID, quantity)
	}

	return &StockLevel{
		ChannelID:  channelID,
		LocationID: locationID,
		VariantID:  variantID,
		Quantity:   quantity,
		Sufficient: quantity.GreaterThanOrEqual(requested),
	}, nil
}

func (s *service) VerifyBatchExists(ctx context.Context, batchID uuid.UUID) (bool, error) {
	if batchID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeInvalidInput, "batch id required")
	}
	_, err := s.repo.FindBatch(ctx, batchID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup batch")
	}
	return true, nil
}

func (s *service) ReceiveStock(ctx context.Context, input ReceiveStockInput) (*ReceiveStockResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("receive_stock", time.Since(start)) }()

	if input.Type == "" {
		input.Type = enums.MovementTypePurchase
	}
	if err := validateBatchInput(CreateBatchInput{
		ChannelID:  input.ChannelID,
		LocationID: input.LocationID,
		VariantID:  input.VariantID,
		Quantity:   input.Quantity,
		UnitCost:   input.UnitCost,
		SourceType: input.SourceType,
		SourceID:   input.SourceID,
	}); err != nil {
		return nil, err
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "received quantity must be positive")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid movement type %q", input.Type)
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	result := &ReceiveStockResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.guard.Check(ctx, tx, input.ChannelID, occurredAt); err != nil {
			s.metrics.IncPeriodLockRejection()
			return err
		}
		repo := s.repo.WithTx(tx)

		prior, err := repo.FindMovementBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup movement by source")
		}
		if prior != nil {
			batch, err := repo.FindBatchBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
			if err != nil && err != gorm.ErrRecordNotFound {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load prior batch")
			}
			s.metrics.IncIdempotentReplay("receive_stock")
			result.Batch = batch
			result.Movement = prior
			result.Replayed = true
			return nil
		}

		batch := &models.InventoryBatch{
			ChannelID:  input.ChannelID,
			LocationID: input.LocationID,
			VariantID:  input.VariantID,
			Quantity:   input.Quantity,
			UnitCost:   input.UnitCost,
			ExpiryDate: input.ExpiryDate,
			SourceType: input.SourceType,
			SourceID:   input.SourceID,
			Metadata:   input.Metadata,
		}
		createdBatch, err := repo.CreateBatch(ctx, batch)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_batches_source") {
				existing, findErr := repo.FindBatchBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
				if findErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reread batch after conflict")
				}
				movement, findErr := repo.FindMovementBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
				if findErr != nil && findErr != gorm.ErrRecordNotFound {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "reread movement after conflict")
				}
				s.metrics.IncIdempotentReplay("receive_stock")
				result.Batch = existing
				result.Movement = movement
				result.Replayed = true
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create batch")
		}

		movement := &models.InventoryMovement{
			ChannelID:  input.ChannelID,
			LocationID: input.LocationID,
			VariantID:  input.VariantID,
			Type:       input.Type,
			Quantity:   input.Quantity,
			BatchID:    &createdBatch.ID,
			SourceType: input.SourceType,
			SourceID:   input.SourceID,
			OccurredAt: occurredAt,
			Metadata:   input.Metadata,
		}
		createdMovement, err := repo.CreateMovement(ctx, movement)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create movement")
		}
		s.metrics.IncMovement(string(input.Type))

		result.Batch = createdBatch
		result.Movement = createdMovement

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockReceived,
			AggregateType: enums.AggregateBatch,
			AggregateID:   createdBatch.ID,
			Actor:         buildActor(input.Actor, input.ChannelID),
			OccurredAt:    occurredAt,
			Data: StockReceivedEvent{
				BatchID:    createdBatch.ID,
				MovementID: createdMovement.ID,
				ChannelID:  input.ChannelID,
				LocationID: input.LocationID,
				VariantID:  input.VariantID,
				Quantity:   input.Quantity,
				UnitCost:   input.UnitCost,
				SourceType: input.SourceType,
				SourceID:   input.SourceID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, input.ChannelID, input.LocationID, input.VariantID)
	return result, nil
}

// ConsumeStock draws oldest batches first. That is this composite's policy,
// not a core rule: callers needing a different order work the batch store
// directly via ListOpenBatches and AdjustBatchQuantity.
func (s *service) ConsumeStock(ctx context.Context, input ConsumeStockInput) (*ConsumeStockResult, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("consume_stock", time.Since(start)) }()

	if input.ChannelID == uuid.Nil || input.LocationID == uuid.Nil || input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "channel, location and variant ids required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "consumed quantity must be positive")
	}
	if input.SourceType == "" || input.SourceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidInput, "source type and source id required")
	}
	if input.Type == "" {
		input.Type = enums.MovementTypeSale
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid movement type %q", input.Type)
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	result := &ConsumeStockResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.guard.Check(ctx, tx, input.ChannelID, occurredAt); err != nil {
			s.metrics.IncPeriodLockRejection()
			return err
		}
		repo := s.repo.WithTx(tx)

		prior, err := repo.FindMovementBySource(ctx, input.ChannelID, input.SourceType, input.SourceID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup movement by source")
		}
		if prior != nil {
			s.metrics.IncIdempotentReplay("consume_stock")
			result.Movement = prior
			result.Drawdowns = drawdownsFromMetadata(prior.Metadata)
			result.Replayed = true
			return nil
		}

		filters := BatchFilters{
			ChannelID:  input.ChannelID,
			LocationID: &input.LocationID,
			VariantID:  &input.VariantID,
		}
		batches, err := repo.OpenBatchesForUpdate(ctx, filters)
		if err != nil {
			if dbpkg.IsLockTimeout(err) {
				return pkgerrors.New(pkgerrors.CodeRetryable, "stock is locked, try again")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock open batches")
		}

		available := decimal.Zero
		for _, batch := range batches {
			available = available.Add(batch.Quantity)
		}
		if available.LessThan(input.Quantity) {
			s.metrics.IncInsufficientQuantity()
			return pkgerrors.Newf(pkgerrors.CodeInvalidInput,
				"insufficient stock: requested %s, available %s",
				input.Quantity.String(), available.String())
		}

		remaining := input.Quantity
		var drawdowns []BatchDrawdown
		for i := range batches {
			if remaining.IsZero() {
				break
			}
			batch := &batches[i]
			take := decimal.Min(batch.Quantity, remaining)
			next := batch.Quantity.Sub(take)
			if err := repo.UpdateBatchQuantity(ctx, batch.ID, next); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement batch quantity")
			}
			drawdowns = append(drawdowns, BatchDrawdown{
				BatchID:  batch.ID,
				Quantity: take,
				UnitCost: batch.UnitCost,
			})
			remaining = remaining.Sub(take)
		}

		metadata := types.Metadata{}
		for k, v := range input.Metadata {
			metadata[k] = v
		}
		metadata["drawdowns"] = drawdowns

		var batchRef *uuid.UUID
		if len(drawdowns) == 1 {
			batchRef = &drawdowns[0].BatchID
		}
		movement := &models.InventoryMovement{
			ChannelID:  input.ChannelID,
			LocationID: input.LocationID,
			VariantID:  input.VariantID,
			Type:       input.Type,
			Quantity:   input.Quantity.Neg(),
			BatchID:    batchRef,
			SourceType: input.SourceType,
			SourceID:   input.SourceID,
			OccurredAt: occurredAt,
			Metadata:   metadata,
		}
		created, err := repo.CreateMovement(ctx, movement)
		if err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_movements_source") {
				// Another consumer with the same source key won the race while
				// we held the batch locks; roll everything back and replay.
				return pkgerrors.New(pkgerrors.CodeRetryable, "concurrent duplicate consumption, try again")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create movement")
		}
		s.metrics.IncMovement(string(input.Type))

		result.Movement = created
		result.Drawdowns = drawdowns

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockConsumed,
			AggregateType: enums.AggregateMovement,
			AggregateID:   created.ID,
			Actor:         buildActor(input.Actor, input.ChannelID),
			OccurredAt:    occurredAt,
			Data: StockConsumedEvent{
				MovementID: created.ID,
				ChannelID:  input.ChannelID,
				LocationID: input.LocationID,
				VariantID:  input.VariantID,
				Quantity:   input.Quantity,
				Drawdowns:  drawdowns,
				SourceType: input.SourceType,
				SourceID:   input.SourceID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, input.ChannelID, input.LocationID, input.VariantID)
	return result, nil
}

func validateBatchInput(input CreateBatchInput) error {
	if input.ChannelID == uuid.Nil || input.LocationID == uuid.Nil || input.VariantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "channel, location and variant ids required")
	}
	if input.Quantity.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "quantity must not be negative")
	}
	if input.UnitCost < 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "unit cost must not be negative")
	}
	if input.SourceType == "" || input.SourceID == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "source type and source id required")
	}
	return nil
}

func validateMovementInput(input RecordMovementInput) error {
	if input.ChannelID == uuid.Nil || input.LocationID == uuid.Nil || input.VariantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "channel, location and variant ids required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeInvalidInput, "invalid movement type %q", input.Type)
	}
	if input.Quantity.IsZero() {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "quantity must be nonzero")
	}
	if input.SourceType == "" || input.SourceID == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "source type and source id required")
	}
	return nil
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

func drawdownsFromMetadata(metadata types.Metadata) []BatchDrawdown {
	raw, ok := metadata["drawdowns"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var drawdowns []BatchDrawdown
	if err := json.Unmarshal(encoded, &drawdowns); err != nil {
		return nil
	}
	return drawdowns
}
